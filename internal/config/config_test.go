// v0
// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProps(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "iris.properties")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutPropertiesFile(t *testing.T) {
	t.Setenv("PROPERTIES_PATH", filepath.Join(t.TempDir(), "missing.properties"))

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Telemetry.ChangeThresholds["temperature"] != 5 {
		t.Fatalf("temperature threshold default: %v", c.Telemetry.ChangeThresholds["temperature"])
	}
	if c.Plan.CO2Threshold != 800 || c.Plan.AvgSessionMinutes != 45 {
		t.Fatalf("plan defaults: %+v", c.Plan)
	}
	if c.PollIntervalMs != 5000 {
		t.Fatalf("poll interval default: %d", c.PollIntervalMs)
	}
}

func TestPropertiesOverrideDefaults(t *testing.T) {
	path := writeProps(t, `
# engine tunables
threshold.temperature = 3
threshold.co2 = 150
emergency.temperature.max = 85
emergency.co2.max = 1500
speech.cooldown.seconds = 30
summary.interval.seconds = 120
comfort.min = 66
comfort.max = 74
co2.threshold = 900
session.average.minutes = 50
intervention.cooldown.seconds = 240
intervention.break.cooldown.seconds = 480
`)
	t.Setenv("PROPERTIES_PATH", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Telemetry.ChangeThresholds["temperature"] != 3 {
		t.Fatalf("threshold override: %v", c.Telemetry.ChangeThresholds)
	}
	b := c.Telemetry.EmergencyBounds["temperature"]
	if !b.HasMax || b.Max != 85 {
		t.Fatalf("emergency max override: %+v", b)
	}
	if !b.HasMin || b.Min != 50 {
		t.Fatalf("emergency min default lost: %+v", b)
	}
	if c.Telemetry.SpeechCooldown != 30*time.Second {
		t.Fatalf("speech cooldown: %v", c.Telemetry.SpeechCooldown)
	}
	if c.Plan.ComfortMinF != 66 || c.Plan.ComfortMaxF != 74 {
		t.Fatalf("comfort band: %+v", c.Plan)
	}
	if c.Plan.Cooldown != 4*time.Minute || c.Plan.BreakCooldown != 8*time.Minute {
		t.Fatalf("cooldowns: %v %v", c.Plan.Cooldown, c.Plan.BreakCooldown)
	}
}

func TestMalformedPropertyIsAnError(t *testing.T) {
	path := writeProps(t, "threshold.temperature = warm\n")
	t.Setenv("PROPERTIES_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestUnknownKeysIgnored(t *testing.T) {
	path := writeProps(t, "future.setting = 42\nspeech.cooldown.seconds = 45\n")
	t.Setenv("PROPERTIES_PATH", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Telemetry.SpeechCooldown != 45*time.Second {
		t.Fatalf("setting after unknown key not applied: %v", c.Telemetry.SpeechCooldown)
	}
}

func TestEnvironmentWins(t *testing.T) {
	t.Setenv("PROPERTIES_PATH", filepath.Join(t.TempDir(), "missing.properties"))
	t.Setenv("HTTP_BIND", ":9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPBind != ":9999" {
		t.Fatalf("bind: %s", c.HTTPBind)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", c.KafkaBrokers)
	}
}
