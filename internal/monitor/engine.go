// v2
// internal/monitor/engine.go
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Trylen22/iris-companion/internal/dispatch"
	"github.com/Trylen22/iris-companion/internal/ledger"
	"github.com/Trylen22/iris-companion/internal/observability"
	"github.com/Trylen22/iris-companion/internal/plan"
	"github.com/Trylen22/iris-companion/internal/session"
	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// Device is the sensor/actuator surface the engine depends on.
// device.Client satisfies it.
type Device interface {
	Status() (telemetry.Reading, error)
	LEDOn() error
	LEDOff() error
	FanOn() error
	FanOff() error
}

// Announcer is the speech surface; speech.ExecAnnouncer and the MQTT
// publisher both satisfy it.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

type Config struct {
	PollInterval time.Duration
	Now          func() time.Time
}

// Engine is the synchronous control loop: poll, classify, plan,
// dispatch, sleep. Single goroutine; the stop signal is honored at
// cycle boundaries only, so every started cycle completes.
type Engine struct {
	lg      *slog.Logger
	dev     Device
	cls     *telemetry.Classifier
	pln     *plan.Planner
	dsp     *dispatch.Dispatcher
	spk     Announcer
	tracker *session.Tracker
	sink    ledger.Sink
	metrics *observability.Metrics
	publish func(telemetry.Reading)

	thresholds map[string]float64
	interval   time.Duration
	now        func() time.Time
	actionIDs  []string

	// mu guards stats and the mirrored observer views below. The loop
	// goroutine owns the classifier, planner and tracker; observers only
	// ever see copies refreshed here at cycle boundaries.
	mu     sync.Mutex
	stats  Stats
	recent []string
	sess   session.Snapshot
}

// Stats is the running counter set. Copies of it are handed out, never
// the live struct.
type Stats struct {
	Cycles           uint64             `json:"cycles"`
	PollFailures     uint64             `json:"pollFailures"`
	AlertsSpoken     uint64             `json:"alertsSpoken"`
	Interventions    uint64             `json:"interventions"`
	DispatchFailures uint64             `json:"dispatchFailures"`
	LastSpoken       string             `json:"lastSpoken,omitempty"`
	LastIntervention string             `json:"lastIntervention,omitempty"`
	LastCycleAt      time.Time          `json:"lastCycleAt"`
	LastReading      *telemetry.Reading `json:"lastReading,omitempty"`
}

// Snapshot is the immutable view served by the HTTP API.
type Snapshot struct {
	Stats
	RecentActions []string         `json:"recentActions"`
	Session       session.Snapshot `json:"session"`
	Actions       []string         `json:"actions"`
}

type Deps struct {
	Device     Device
	Classifier *telemetry.Classifier
	Planner    *plan.Planner
	Dispatcher *dispatch.Dispatcher
	Speaker    Announcer
	Tracker    *session.Tracker
	Sink       ledger.Sink
	Metrics    *observability.Metrics
	Publish    func(telemetry.Reading)
	Thresholds map[string]float64
}

func NewEngine(cfg Config, deps Deps, lg *slog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	sink := deps.Sink
	if sink == nil {
		sink = ledger.NoopSink{}
	}
	e := &Engine{
		lg:         lg,
		dev:        deps.Device,
		cls:        deps.Classifier,
		pln:        deps.Planner,
		dsp:        deps.Dispatcher,
		spk:        deps.Speaker,
		tracker:    deps.Tracker,
		sink:       sink,
		metrics:    deps.Metrics,
		publish:    deps.Publish,
		thresholds: deps.Thresholds,
		interval:   cfg.PollInterval,
		now:        cfg.Now,
	}
	// The registry is populated before the loop starts and never
	// shrinks, so one copy at construction serves every observer.
	e.actionIDs = e.dsp.Actions()
	e.sess = e.tracker.Snapshot()
	e.dsp.SetEnvironment(e.cls.LastReading)
	return e
}

// Run loops until ctx is canceled. Device failures degrade the cycle,
// never the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.lg.Info("engine started", "interval", e.interval.String())
	for {
		if err := ctx.Err(); err != nil {
			e.lg.Info("engine stopping", "reason", err.Error())
			return err
		}
		e.Cycle(ctx)
		select {
		case <-ctx.Done():
			e.lg.Info("engine stopping", "reason", ctx.Err().Error())
			return ctx.Err()
		case <-time.After(e.interval):
		}
	}
}

// Cycle runs exactly one poll-classify-plan-dispatch pass.
func (e *Engine) Cycle(ctx context.Context) {
	reading, polled := e.poll(ctx)

	if polled {
		e.classify(ctx, reading)
	}

	e.intervene(ctx, reading, polled)

	e.metrics.CycleCompleted()
	e.mu.Lock()
	e.stats.Cycles++
	e.stats.LastCycleAt = e.now()
	if polled {
		snap := reading
		e.stats.LastReading = &snap
	}
	e.recent = e.cls.RecentActions()
	e.sess = e.tracker.Snapshot()
	e.mu.Unlock()
}

func (e *Engine) poll(ctx context.Context) (telemetry.Reading, bool) {
	reading, err := e.dev.Status()
	if err != nil {
		e.lg.Warn("sensor poll failed", "error", err)
		e.metrics.PollFailed()
		e.mu.Lock()
		e.stats.PollFailures++
		e.mu.Unlock()
		if e.cls.OutageNoticeDue() {
			e.say(ctx, "I can't reach the environment sensors right now.")
			e.cls.MarkSpoke()
			e.recordAlert(ctx, "outage", "I can't reach the environment sensors right now.")
		}
		return telemetry.Reading{}, false
	}
	if e.publish != nil {
		e.publish(reading)
	}
	return reading, true
}

// classify decides whether this reading warrants speech, picks the
// highest-precedence message (emergency, then change, then summary),
// and always commits the reading as the next baseline.
func (e *Engine) classify(ctx context.Context, reading telemetry.Reading) {
	emergencies := e.cls.Emergencies(reading)
	force := len(emergencies) > 0

	if e.cls.ShouldSpeak(reading, force) {
		switch {
		case force:
			msg := emergencyMessage(emergencies)
			e.say(ctx, msg)
			e.cls.MarkSpoke()
			for _, em := range emergencies {
				e.cls.LogAction("emergency", em.Metric)
				_ = e.sink.Record(ctx, ledger.Event{Kind: ledger.KindEmergency, Label: em.Metric, Detail: em.Message})
			}
			e.metrics.AlertSpoken("emergency")
			e.noteAlert(msg)
		case e.cls.HasSignificantChange(reading):
			prev, hasPrev := e.cls.LastReading()
			msg := changeMessage(prev, hasPrev, reading, e.thresholds)
			e.say(ctx, msg)
			e.cls.MarkSpoke()
			e.metrics.AlertSpoken("change")
			e.recordAlert(ctx, "change", msg)
		default:
			msg := summaryMessage(reading)
			e.say(ctx, msg)
			e.cls.MarkSummarized()
			e.metrics.AlertSpoken("summary")
			e.recordAlert(ctx, "summary", msg)
		}
	}

	e.cls.Commit(reading)
}

func (e *Engine) intervene(ctx context.Context, reading telemetry.Reading, polled bool) {
	pctx := plan.Context{
		FocusedTimeMinutes: e.tracker.FocusedMinutes(),
		StressLevel:        e.tracker.StressLevel(),
		Mood:               e.tracker.Mood(),
	}
	if polled {
		snap := reading
		pctx.Environment = &snap
	}

	decision := e.pln.Plan(pctx)
	if decision == nil {
		return
	}

	e.say(ctx, decision.Message)
	for _, action := range decision.Actions {
		if !e.dsp.Execute(ctx, action) {
			e.metrics.DispatchFailed()
			e.mu.Lock()
			e.stats.DispatchFailures++
			e.mu.Unlock()
		}
		e.cls.LogAction("action", action)
		_ = e.sink.Record(ctx, ledger.Event{Kind: ledger.KindAction, Label: action})
	}
	e.cls.LogAction("intervention", decision.Type.String())
	_ = e.sink.Record(ctx, ledger.Event{
		Kind:   ledger.KindIntervention,
		Label:  decision.Type.String(),
		Detail: decision.Message,
	})
	e.metrics.InterventionDelivered(decision.Type.String())

	e.mu.Lock()
	e.stats.Interventions++
	e.stats.LastIntervention = decision.Type.String()
	e.mu.Unlock()
}

func (e *Engine) say(ctx context.Context, text string) {
	if e.spk != nil {
		e.spk.Announce(ctx, text)
	}
	e.lg.Info("spoke", "text", text)
}

func (e *Engine) recordAlert(ctx context.Context, kind, msg string) {
	_ = e.sink.Record(ctx, ledger.Event{Kind: ledger.KindAlert, Label: kind, Detail: msg})
	e.noteAlert(msg)
}

func (e *Engine) noteAlert(msg string) {
	e.mu.Lock()
	e.stats.AlertsSpoken++
	e.stats.LastSpoken = msg
	e.mu.Unlock()
}

// Snapshot returns a copy of the live counters plus the registry and
// session views mirrored at the last cycle boundary. Safe to call from
// any goroutine.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	stats := e.stats
	if stats.LastReading != nil {
		r := *stats.LastReading
		stats.LastReading = &r
	}
	recent := make([]string, len(e.recent))
	copy(recent, e.recent)
	sess := e.sess
	e.mu.Unlock()
	return Snapshot{
		Stats:         stats,
		RecentActions: recent,
		Session:       sess,
		Actions:       e.actionIDs,
	}
}
