// v0
// internal/device/client_test.go
package device

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Trylen22/iris-companion/internal/telemetry"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// scriptPort is an in-memory half-duplex port: writing a command queues
// its scripted response, reads return whatever is pending then time out
// with (0, nil) like a real serial port.
type scriptPort struct {
	responses map[string]string
	pending   []byte
	wrote     []string
	closed    bool
}

func (p *scriptPort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		return 0, nil
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *scriptPort) Write(b []byte) (int, error) {
	cmd := strings.TrimSpace(string(b))
	p.wrote = append(p.wrote, cmd)
	p.pending = append(p.pending, []byte(p.responses[cmd])...)
	return len(b), nil
}

func (p *scriptPort) Close() error {
	p.closed = true
	return nil
}

func newTestClient(port *scriptPort) *Client {
	return NewClient(port, time.Millisecond, quiet())
}

const statusReport = `LED: ON
Fan: OFF
Temperature: 72.5°F
CO2: 480
Light: 512 (Dim)
Uptime: 00:42:07`

func TestStatusParsesReport(t *testing.T) {
	port := &scriptPort{responses: map[string]string{"S": statusReport}}
	c := newTestClient(port)

	r, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !r.HasTemperature || r.TemperatureF != 72.5 {
		t.Fatalf("temperature: got %+v", r)
	}
	if !r.HasCO2 || r.CO2 != 480 {
		t.Fatalf("co2: got %+v", r)
	}
	if !r.HasLight || r.LightRaw != 512 {
		t.Fatalf("light: got %+v", r)
	}
	if r.Brightness != telemetry.Dim {
		t.Fatalf("brightness: got %v want Dim", r.Brightness)
	}
	if !r.LEDOn || r.FanOn {
		t.Fatalf("actuator flags: got led=%v fan=%v", r.LEDOn, r.FanOn)
	}
	if r.Timestamp.IsZero() {
		t.Fatal("timestamp must be stamped")
	}
}

func TestStatusSkipsUnknownLines(t *testing.T) {
	report := "Bootsplash v3\nTemperature: 70F\nnonsense line\nHumidity: 40%\n"
	port := &scriptPort{responses: map[string]string{"S": report}}
	c := newTestClient(port)

	r, err := c.Status()
	if err != nil {
		t.Fatalf("defensive parse must not fail: %v", err)
	}
	if !r.HasTemperature || r.TemperatureF != 70 {
		t.Fatalf("temperature: got %+v", r)
	}
	if r.HasCO2 || r.HasLight {
		t.Fatalf("absent metrics must stay absent: %+v", r)
	}
}

func TestStatusDrainsStaleBytes(t *testing.T) {
	port := &scriptPort{responses: map[string]string{"S": statusReport}}
	port.pending = []byte("LED: ON\nleftover from previous command\n")
	c := newTestClient(port)

	r, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if r.TemperatureF != 72.5 {
		t.Fatalf("stale bytes leaked into the parse: %+v", r)
	}
}

func TestStatusNoMetricsIsError(t *testing.T) {
	port := &scriptPort{responses: map[string]string{"S": "LED: ON"}}
	c := newTestClient(port)
	if _, err := c.Status(); err == nil {
		t.Fatal("report without metrics must error")
	}
}

func TestToggleCommands(t *testing.T) {
	port := &scriptPort{responses: map[string]string{
		"L": "LED: ON",
		"l": "LED: OFF",
		"F": "Fan: ON",
		"f": "Fan: OFF",
	}}
	c := newTestClient(port)

	steps := []struct {
		name string
		call func() error
	}{
		{"led on", c.LEDOn},
		{"led off", c.LEDOff},
		{"fan on", c.FanOn},
		{"fan off", c.FanOff},
	}
	for _, s := range steps {
		if err := s.call(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
	want := []string{"L", "l", "F", "f"}
	if len(port.wrote) != len(want) {
		t.Fatalf("commands written: got %v want %v", port.wrote, want)
	}
	for i := range want {
		if port.wrote[i] != want[i] {
			t.Fatalf("command %d: got %q want %q", i, port.wrote[i], want[i])
		}
	}
}

func TestToggleUnexpectedResponse(t *testing.T) {
	port := &scriptPort{responses: map[string]string{"L": "ERR: busy"}}
	c := newTestClient(port)
	if err := c.LEDOn(); err == nil {
		t.Fatal("unexpected confirmation must error")
	}
}

func TestNoResponseIsError(t *testing.T) {
	port := &scriptPort{responses: map[string]string{}}
	c := newTestClient(port)
	if err := c.FanOn(); err == nil {
		t.Fatal("silent device must error")
	}
}
