// v0
// internal/telemetry/classifier_test.go
package telemetry

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time                { return f.t }
func (f *fakeClock) advance(d time.Duration)       { f.t = f.t.Add(d) }
func newFakeClock() *fakeClock                     { return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)} }
func reading(temp float64, co2, light int) Reading {
	return Reading{
		TemperatureF: temp, HasTemperature: true,
		CO2: co2, HasCO2: true,
		LightRaw: light, HasLight: true,
		Brightness: Moderate,
	}
}

func newTestClassifier(clk *fakeClock) *Classifier {
	cfg := DefaultConfig()
	cfg.Now = clk.now
	return NewClassifier(cfg, quietLogger())
}

func TestFirstReadingAlwaysSignificant(t *testing.T) {
	c := newTestClassifier(newFakeClock())
	if !c.HasSignificantChange(reading(72, 420, 500)) {
		t.Fatal("first reading must be significant")
	}
}

func TestSubThresholdDeltasNeverSignificant(t *testing.T) {
	c := newTestClassifier(newFakeClock())
	c.Commit(reading(72, 420, 500))
	seq := []Reading{
		reading(74, 500, 550),
		reading(76, 580, 590),
		reading(73, 640, 640),
	}
	for i, r := range seq {
		if c.HasSignificantChange(r) {
			t.Fatalf("reading %d: delta below threshold reported significant", i)
		}
		c.Commit(r)
	}
}

func TestMissingMetricSkippedInComparison(t *testing.T) {
	c := newTestClassifier(newFakeClock())
	c.Commit(reading(72, 420, 500))
	r := Reading{CO2: 430, HasCO2: true} // temperature and light absent
	if c.HasSignificantChange(r) {
		t.Fatal("absent metrics must never count as changed")
	}
}

func TestEmergenciesIndependentOfCooldown(t *testing.T) {
	clk := newFakeClock()
	c := newTestClassifier(clk)
	c.MarkSpoke() // cooldown is live
	em := c.Emergencies(reading(95, 420, 500))
	if len(em) != 1 || em[0].Metric != MetricTemperature {
		t.Fatalf("expected temperature emergency, got %v", em)
	}
	if !strings.Contains(em[0].Message, "dangerously high") {
		t.Fatalf("unexpected message: %s", em[0].Message)
	}
}

func TestEmergenciesMultipleMetrics(t *testing.T) {
	c := newTestClassifier(newFakeClock())
	em := c.Emergencies(reading(45, 2500, 10))
	if len(em) != 3 {
		t.Fatalf("expected 3 emergencies, got %d: %v", len(em), em)
	}
}

func TestShouldSpeakCooldown(t *testing.T) {
	clk := newFakeClock()
	c := newTestClassifier(clk)
	r := reading(72, 420, 500)

	if !c.ShouldSpeak(r, false) {
		t.Fatal("bootstrap reading should trigger speech")
	}
	c.MarkSpoke()
	c.Commit(r)

	clk.advance(10 * time.Second)
	changed := reading(80, 420, 500) // above threshold but not emergency
	if c.ShouldSpeak(changed, false) {
		t.Fatal("cooldown must suppress non-emergency speech")
	}

	clk.advance(60 * time.Second)
	if !c.ShouldSpeak(changed, false) {
		t.Fatal("significant change after cooldown should speak")
	}
}

func TestShouldSpeakForceShortCircuits(t *testing.T) {
	clk := newFakeClock()
	c := newTestClassifier(clk)
	c.MarkSpoke()
	if !c.ShouldSpeak(reading(72, 420, 500), true) {
		t.Fatal("force must bypass every gate")
	}
}

func TestShouldSpeakPeriodicSummary(t *testing.T) {
	clk := newFakeClock()
	c := newTestClassifier(clk)
	r := reading(72, 420, 500)
	c.Commit(r)
	c.MarkSpoke()
	c.MarkSummarized()

	clk.advance(120 * time.Second)
	if c.ShouldSpeak(r, false) {
		t.Fatal("no change and summary not due: must stay silent")
	}
	clk.advance(200 * time.Second) // past the 300s summary interval
	if !c.ShouldSpeak(r, false) {
		t.Fatal("summary interval elapsed: should speak")
	}
}

func TestEmergencyBypassesSpeechCooldown(t *testing.T) {
	clk := newFakeClock()
	c := newTestClassifier(clk)
	c.Commit(reading(72, 420, 500))
	c.MarkSpoke()
	clk.advance(1 * time.Second)

	r := reading(83, 420, 500)
	em := c.Emergencies(r)
	if len(em) == 0 || em[0].Metric != MetricTemperature {
		t.Fatalf("expected temperature emergency, got %v", em)
	}
	if !c.HasSignificantChange(r) {
		t.Fatal("11 degree jump must be significant")
	}
	if !c.ShouldSpeak(r, false) {
		t.Fatal("emergency must speak even 1s after prior announcement")
	}
}

func TestCO2BoundCrossingIsChangeAndEmergency(t *testing.T) {
	clk := newFakeClock()
	cfg := DefaultConfig()
	cfg.Now = clk.now
	cfg.EmergencyBounds[MetricCO2] = Bound{Max: 1000, HasMax: true}
	c := NewClassifier(cfg, quietLogger())
	c.Commit(reading(72, 420, 500))

	r := reading(72, 1050, 500)
	if !c.HasSignificantChange(r) {
		t.Fatal("630-unit CO2 delta must be significant")
	}
	em := c.Emergencies(r)
	if len(em) != 1 || em[0].Metric != MetricCO2 {
		t.Fatalf("expected co2 emergency, got %v", em)
	}
}

func TestCommitBaselineIsLatestObservation(t *testing.T) {
	clk := newFakeClock()
	c := newTestClassifier(clk)
	c.Commit(reading(72, 420, 500))
	c.MarkSpoke()

	// Suppressed by cooldown, but still committed.
	mid := reading(78, 420, 500)
	if c.ShouldSpeak(mid, false) {
		t.Fatal("cooldown should suppress")
	}
	c.Commit(mid)

	// Delta vs the committed 78, not the announced 72.
	if c.HasSignificantChange(reading(80, 420, 500)) {
		t.Fatal("2 degree delta vs latest baseline must not re-alert")
	}
}

func TestActionLogBounded(t *testing.T) {
	c := newTestClassifier(newFakeClock())
	for i := 0; i < 25; i++ {
		c.LogAction("poll", "cycle")
	}
	if got := len(c.RecentActions()); got != 10 {
		t.Fatalf("action log capacity: got %d want 10", got)
	}
}

func TestParseBrightness(t *testing.T) {
	cases := map[string]Brightness{
		"Very Dark":  VeryDark,
		"dim":        Dim,
		"Moderate":   Moderate,
		"VERY BRIGHT": VeryBright,
		"banana":     BrightnessUnknown,
		"":           BrightnessUnknown,
	}
	for in, want := range cases {
		if got := ParseBrightness(in); got != want {
			t.Fatalf("ParseBrightness(%q) = %v, want %v", in, got, want)
		}
	}
}
