// v2
// internal/config/config.go
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Trylen22/iris-companion/internal/plan"
	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// AppConfig collects everything the companion reads at startup.
// Connectivity comes from the environment; engine tunables come from
// a properties file and are fixed for the life of the process.
type AppConfig struct {
	HTTPBind string
	LogDir   string

	SerialPort     string
	SerialBaud     int
	SerialSettleMs int

	OllamaURL      string
	OllamaModel    string
	OllamaTimeoutS int

	SpeechCommand string

	MQTTBroker   string
	MQTTClientID string
	ReadingTopic string
	SpeechTopic  string

	KafkaBrokers []string
	LedgerTopic  string

	PollIntervalMs int
	PropertiesPath string

	Telemetry telemetry.Config
	Plan      plan.Config
}

// Load reads .env (if present), then the environment, then the
// properties file. A missing properties file leaves the shipped
// defaults in place; a present but malformed one is an error.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	c := &AppConfig{
		HTTPBind:       getenv("HTTP_BIND", ":8090"),
		LogDir:         getenv("LOG_DIR", "./logs"),
		SerialPort:     getenv("SERIAL_PORT", "/dev/ttyACM0"),
		SerialBaud:     geti("SERIAL_BAUD", 9600),
		SerialSettleMs: geti("SERIAL_SETTLE_MS", 100),
		OllamaURL:      getenv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    getenv("OLLAMA_MODEL", "mistral"),
		OllamaTimeoutS: geti("OLLAMA_TIMEOUT_S", 30),
		SpeechCommand:  getenv("SPEECH_COMMAND", "espeak"),
		MQTTBroker:     getenv("MQTT_BROKER", ""),
		MQTTClientID:   getenv("MQTT_CLIENT_ID", "iris-companion"),
		ReadingTopic:   getenv("MQTT_READING_TOPIC", "iris/readings"),
		SpeechTopic:    getenv("MQTT_SPEECH_TOPIC", "iris/speech"),
		KafkaBrokers:   split(getenv("KAFKA_BROKERS", ""), ","),
		LedgerTopic:    getenv("LEDGER_TOPIC", "iris.events"),
		PollIntervalMs: geti("POLL_INTERVAL_MS", 5000),
		PropertiesPath: getenv("PROPERTIES_PATH", "./configs/iris.properties"),
		Telemetry:      telemetry.DefaultConfig(),
		Plan:           plan.DefaultConfig(),
	}
	if err := c.loadProperties(c.PropertiesPath); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *AppConfig) loadProperties(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if err := c.applyProperty(strings.TrimSpace(k), strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return s.Err()
}

func (c *AppConfig) applyProperty(k, v string) error {
	switch {
	case strings.HasPrefix(k, "threshold."):
		metric := strings.TrimPrefix(k, "threshold.")
		f, err := parsef(k, v)
		if err != nil {
			return err
		}
		c.Telemetry.ChangeThresholds[metric] = f
		return nil
	case strings.HasPrefix(k, "emergency."):
		rest := strings.TrimPrefix(k, "emergency.")
		metric, edge, ok := cutLast(rest, ".")
		if !ok {
			return fmt.Errorf("bad emergency key %q", k)
		}
		f, err := parsef(k, v)
		if err != nil {
			return err
		}
		b := c.Telemetry.EmergencyBounds[metric]
		switch edge {
		case "min":
			b.Min, b.HasMin = f, true
		case "max":
			b.Max, b.HasMax = f, true
		default:
			return fmt.Errorf("bad emergency edge %q", k)
		}
		c.Telemetry.EmergencyBounds[metric] = b
		return nil
	}

	switch k {
	case "speech.cooldown.seconds":
		return setSeconds(&c.Telemetry.SpeechCooldown, k, v)
	case "summary.interval.seconds":
		return setSeconds(&c.Telemetry.SummaryInterval, k, v)
	case "comfort.min":
		f, err := parsef(k, v)
		c.Plan.ComfortMinF = f
		return err
	case "comfort.max":
		f, err := parsef(k, v)
		c.Plan.ComfortMaxF = f
		return err
	case "co2.threshold":
		i, err := parsei(k, v)
		c.Plan.CO2Threshold = i
		return err
	case "session.average.minutes":
		i, err := parsei(k, v)
		c.Plan.AvgSessionMinutes = i
		return err
	case "intervention.cooldown.seconds":
		return setSeconds(&c.Plan.Cooldown, k, v)
	case "intervention.break.cooldown.seconds":
		return setSeconds(&c.Plan.BreakCooldown, k, v)
	default:
		// Unknown keys are ignored so properties files can be shared
		// across versions.
		return nil
	}
}

func setSeconds(dst *time.Duration, k, v string) error {
	i, err := parsei(k, v)
	if err != nil {
		return err
	}
	*dst = time.Duration(i) * time.Second
	return nil
}

func parsef(k, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", k, v)
	}
	return f, nil
}

func parsei(k, v string) (int, error) {
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", k, v)
	}
	return i, nil
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func geti(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func split(s, sep string) []string {
	if s == "" {
		return nil
	}
	p := strings.Split(s, sep)
	out := make([]string, 0, len(p))
	for _, x := range p {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
