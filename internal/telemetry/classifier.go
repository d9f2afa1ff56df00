// v2
// internal/telemetry/classifier.go
package telemetry

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

const actionLogCap = 10

// Bound is a fixed absolute emergency window for one metric. Either
// side may be absent.
type Bound struct {
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// Config carries the classifier tunables. These are configuration,
// fixed at construction; the classifier never mutates them.
type Config struct {
	ChangeThresholds map[string]float64
	EmergencyBounds  map[string]Bound
	SpeechCooldown   time.Duration
	SummaryInterval  time.Duration
	Now              func() time.Time
}

// DefaultConfig mirrors the controller's shipped tunables.
func DefaultConfig() Config {
	return Config{
		ChangeThresholds: map[string]float64{
			MetricTemperature: 5,
			MetricCO2:         200,
			MetricLight:       100,
		},
		EmergencyBounds: map[string]Bound{
			MetricTemperature: {Min: 50, Max: 80, HasMin: true, HasMax: true},
			MetricCO2:         {Max: 2000, HasMax: true},
			MetricLight:       {Min: 50, HasMin: true},
		},
		SpeechCooldown:  60 * time.Second,
		SummaryInterval: 300 * time.Second,
	}
}

// Emergency names a metric that crossed its bound, with the message to
// announce for it.
type Emergency struct {
	Metric  string
	Message string
}

// Classifier turns the raw reading stream into rate-limited alerts and
// emergency detection. One instance per loop; not safe for concurrent
// use, observers read snapshot copies.
type Classifier struct {
	cfg Config
	lg  *slog.Logger
	now func() time.Time

	last        *Reading
	lastSpeech  time.Time
	lastSummary time.Time
	actionLog   []string
}

func NewClassifier(cfg Config, lg *slog.Logger) *Classifier {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Classifier{cfg: cfg, lg: lg, now: now}
}

// HasSignificantChange reports whether any metric moved by at least its
// threshold since the last committed reading. The first reading ever
// seen is always significant. Metrics absent on either side are skipped.
func (c *Classifier) HasSignificantChange(r Reading) bool {
	if c.last == nil {
		return true
	}
	for key, threshold := range c.cfg.ChangeThresholds {
		cur, okCur := r.Metric(key)
		prev, okPrev := c.last.Metric(key)
		if !okCur || !okPrev {
			continue
		}
		if math.Abs(cur-prev) >= threshold {
			return true
		}
	}
	return false
}

// metricOrder keeps emergency reporting deterministic.
var metricOrder = []string{MetricTemperature, MetricCO2, MetricLight}

// Emergencies checks every bounded metric against its window. Cooldowns
// never apply here.
func (c *Classifier) Emergencies(r Reading) []Emergency {
	var out []Emergency
	for _, key := range metricOrder {
		b, ok := c.cfg.EmergencyBounds[key]
		if !ok {
			continue
		}
		v, ok := r.Metric(key)
		if !ok {
			continue
		}
		switch {
		case b.HasMax && v > b.Max:
			out = append(out, Emergency{Metric: key, Message: emergencyHighMessage(key, v)})
		case b.HasMin && v < b.Min:
			out = append(out, Emergency{Metric: key, Message: emergencyLowMessage(key, v)})
		}
	}
	return out
}

func emergencyHighMessage(key string, v float64) string {
	switch key {
	case MetricTemperature:
		return fmt.Sprintf("CRITICAL: Temperature %.1f°F - dangerously high!", v)
	case MetricCO2:
		return "CRITICAL: CO2 levels extremely high - immediate ventilation required!"
	default:
		return fmt.Sprintf("CRITICAL: %s reading %.0f above safe limit!", key, v)
	}
}

func emergencyLowMessage(key string, v float64) string {
	switch key {
	case MetricTemperature:
		return fmt.Sprintf("CRITICAL: Temperature %.1f°F - dangerously low!", v)
	case MetricLight:
		return "WARNING: Lighting extremely dim - safety concern!"
	default:
		return fmt.Sprintf("WARNING: %s reading %.0f below safe limit!", key, v)
	}
}

// ShouldSpeak decides whether this cycle warrants an announcement.
// Precedence: force, then emergencies (never suppressed), then the
// cooldown gate, then significant change, then the periodic summary.
func (c *Classifier) ShouldSpeak(r Reading, force bool) bool {
	if force {
		return true
	}
	if len(c.Emergencies(r)) > 0 {
		return true
	}
	now := c.now()
	if now.Sub(c.lastSpeech) < c.cfg.SpeechCooldown {
		return false
	}
	if c.HasSignificantChange(r) {
		return true
	}
	return now.Sub(c.lastSummary) >= c.cfg.SummaryInterval
}

// SummaryDue reports whether the periodic summary interval has elapsed.
func (c *Classifier) SummaryDue() bool {
	return c.now().Sub(c.lastSummary) >= c.cfg.SummaryInterval
}

// OutageNoticeDue rate-limits the "sensors unavailable" notice through
// the same speech cooldown used for ordinary alerts.
func (c *Classifier) OutageNoticeDue() bool {
	return c.now().Sub(c.lastSpeech) >= c.cfg.SpeechCooldown
}

// Commit records the reading as the new comparison baseline. Called
// every cycle whether or not speech happened, so deltas are measured
// against the most recent observation rather than the last announced
// one.
func (c *Classifier) Commit(r Reading) {
	snap := r
	c.last = &snap
}

// MarkSpoke stamps the speech cooldown clock.
func (c *Classifier) MarkSpoke() { c.lastSpeech = c.now() }

// MarkSummarized stamps the periodic summary clock.
func (c *Classifier) MarkSummarized() { c.lastSummary = c.now() }

// LogAction appends to the bounded action log, dropping the oldest
// entry past capacity.
func (c *Classifier) LogAction(label, detail string) {
	ts := c.now().Format("15:04:05")
	entry := fmt.Sprintf("[%s] %s: %s", ts, label, detail)
	c.actionLog = append(c.actionLog, entry)
	if len(c.actionLog) > actionLogCap {
		c.actionLog = c.actionLog[len(c.actionLog)-actionLogCap:]
	}
	if c.lg != nil {
		c.lg.Info("action", "label", label, "detail", detail)
	}
}

// RecentActions returns a copy of the action log, newest last.
func (c *Classifier) RecentActions() []string {
	out := make([]string, len(c.actionLog))
	copy(out, c.actionLog)
	return out
}

// LastReading returns the committed baseline, if any.
func (c *Classifier) LastReading() (Reading, bool) {
	if c.last == nil {
		return Reading{}, false
	}
	return *c.last, true
}
