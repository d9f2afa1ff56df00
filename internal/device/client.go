// v3
// internal/device/client.go
package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// Controller command tokens. Uppercase turns an element on, lowercase
// turns it off; S requests the full status report.
const (
	cmdLEDOn  = "L"
	cmdLEDOff = "l"
	cmdFanOn  = "F"
	cmdFanOff = "f"
	cmdStatus = "S"
)

var ErrNotConnected = errors.New("device not connected")

// Client speaks the single-token protocol over a half-duplex link. Not
// safe for concurrent use; the polling loop serializes all access.
type Client struct {
	lg     *slog.Logger
	port   io.ReadWriteCloser
	settle time.Duration
	now    func() time.Time
}

// Open connects over a real serial port. The controller resets when
// the port opens, so the caller should expect the first status poll to
// need a moment.
func Open(portName string, baud int, settle time.Duration, lg *slog.Logger) (*Client, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(500 * time.Millisecond); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	lg.Info("device connected", "port", portName, "baud", baud)
	return NewClient(p, settle, lg), nil
}

// NewClient wraps any byte stream; tests use an in-memory script.
func NewClient(port io.ReadWriteCloser, settle time.Duration, lg *slog.Logger) *Client {
	if settle <= 0 {
		settle = 100 * time.Millisecond
	}
	return &Client{lg: lg, port: port, settle: settle, now: time.Now}
}

func (c *Client) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

// exchange drains stale buffered bytes, writes one command token and
// collects the response. The settle delay gives the controller time to
// process before the read.
func (c *Client) exchange(cmd string) (string, error) {
	if c.port == nil {
		return "", ErrNotConnected
	}
	c.drain()
	if _, err := c.port.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}
	time.Sleep(c.settle)
	resp := c.readAvailable()
	if resp == "" {
		return "", fmt.Errorf("command %q: no response", cmd)
	}
	return resp, nil
}

// drain discards anything left over from a previous exchange. Stray
// bytes from prior commands must never be read as this response.
func (c *Client) drain() {
	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

func (c *Client) readAvailable() string {
	var b strings.Builder
	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil || n == 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func (c *Client) LEDOn() error  { return c.toggle(cmdLEDOn, "LED: ON") }
func (c *Client) LEDOff() error { return c.toggle(cmdLEDOff, "LED: OFF") }
func (c *Client) FanOn() error  { return c.toggle(cmdFanOn, "Fan: ON") }
func (c *Client) FanOff() error { return c.toggle(cmdFanOff, "Fan: OFF") }

func (c *Client) toggle(cmd, confirm string) error {
	resp, err := c.exchange(cmd)
	if err != nil {
		return err
	}
	if !strings.Contains(resp, confirm) {
		return fmt.Errorf("command %q: unexpected response %q", cmd, resp)
	}
	c.lg.Info("device toggle", "cmd", cmd)
	return nil
}

// Status requests the full report and parses it into a Reading.
// Unknown or malformed lines are skipped, never fatal; the Has* flags
// record what the report actually contained.
func (c *Client) Status() (telemetry.Reading, error) {
	resp, err := c.exchange(cmdStatus)
	if err != nil {
		return telemetry.Reading{}, err
	}
	r := parseStatus(resp)
	r.Timestamp = c.now()
	if !r.HasTemperature && !r.HasCO2 && !r.HasLight {
		return telemetry.Reading{}, fmt.Errorf("status report carried no metrics: %q", resp)
	}
	return r, nil
}

func parseStatus(report string) telemetry.Reading {
	var r telemetry.Reading
	for _, line := range strings.Split(report, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "temperature":
			v := strings.TrimSuffix(strings.TrimSuffix(value, "°F"), "F")
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				r.TemperatureF = f
				r.HasTemperature = true
			}
		case "co2":
			if n, err := strconv.Atoi(value); err == nil {
				r.CO2 = n
				r.HasCO2 = true
			}
		case "light":
			raw, category := splitLightValue(value)
			if n, err := strconv.Atoi(raw); err == nil {
				r.LightRaw = n
				r.HasLight = true
			}
			if category != "" {
				r.Brightness = telemetry.ParseBrightness(category)
			}
		case "brightness":
			r.Brightness = telemetry.ParseBrightness(value)
		case "led":
			r.LEDOn = strings.EqualFold(value, "ON")
		case "fan":
			r.FanOn = strings.EqualFold(value, "ON")
		}
	}
	return r
}

// splitLightValue handles both "512" and "512 (Dim)" report shapes.
func splitLightValue(v string) (raw, category string) {
	if i := strings.IndexByte(v, '('); i >= 0 {
		raw = strings.TrimSpace(v[:i])
		category = strings.TrimRight(strings.TrimSpace(v[i+1:]), ")")
		return raw, category
	}
	return v, ""
}
