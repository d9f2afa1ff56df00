// v1
// internal/plan/planner.go
package plan

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// InterventionType enumerates the proactive actions the planner can take.
type InterventionType int

const (
	StressReduction InterventionType = iota
	BreakReminder
	EnvironmentalAdjustment
	MotivationBoost
	StudyOptimization
)

func (t InterventionType) String() string {
	switch t {
	case StressReduction:
		return "stress_reduction"
	case BreakReminder:
		return "break_reminder"
	case EnvironmentalAdjustment:
		return "environmental_adjustment"
	case MotivationBoost:
		return "motivation_boost"
	case StudyOptimization:
		return "study_optimization"
	default:
		return "unknown"
	}
}

// priorityOrder is fixed: safety, then health, then comfort, then
// optimization. The walk stops at the first applicable type whose
// cooldown has expired.
var priorityOrder = []InterventionType{
	StressReduction,
	BreakReminder,
	EnvironmentalAdjustment,
	MotivationBoost,
	StudyOptimization,
}

type Priority int

const (
	Medium Priority = iota
	High
)

func (p Priority) String() string {
	if p == High {
		return "high"
	}
	return "medium"
}

// Mood is the coarse emotional state inferred from student input.
type Mood int

const (
	Neutral Mood = iota
	Stressed
	Frustrated
	Tired
	Excited
	Confident
)

func (m Mood) String() string {
	switch m {
	case Stressed:
		return "stressed"
	case Frustrated:
		return "frustrated"
	case Tired:
		return "tired"
	case Excited:
		return "excited"
	case Confident:
		return "confident"
	default:
		return "neutral"
	}
}

func ParseMood(s string) Mood {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stressed":
		return Stressed
	case "frustrated":
		return Frustrated
	case "tired":
		return Tired
	case "excited":
		return Excited
	case "confident":
		return Confident
	default:
		return Neutral
	}
}

// Context carries one planning call's behavioral and environmental
// signals. Constructed fresh per call; zero values mean "no signal" and
// never manufacture an intervention.
type Context struct {
	FocusedTimeMinutes int
	StressLevel        int // 0-10
	Mood               Mood
	Environment        *telemetry.Reading
}

// Decision is the single intervention selected for this cycle.
type Decision struct {
	Type     InterventionType
	Priority Priority
	Message  string
	Actions  []string
}

// Config holds the planner tunables; never mutated by planning itself.
type Config struct {
	AvgSessionMinutes int
	ComfortMinF       float64
	ComfortMaxF       float64
	CO2Threshold      int
	Cooldown          time.Duration
	BreakCooldown     time.Duration
	Now               func() time.Time
}

func DefaultConfig() Config {
	return Config{
		AvgSessionMinutes: 45,
		ComfortMinF:       68,
		ComfortMaxF:       75,
		CO2Threshold:      800,
		Cooldown:          5 * time.Minute,
		BreakCooldown:     10 * time.Minute,
	}
}

// Planner owns the per-type cooldown registry. One instance per loop;
// not safe for concurrent use.
type Planner struct {
	cfg       Config
	lg        *slog.Logger
	now       func() time.Time
	lastFired map[InterventionType]time.Time
}

func New(cfg Config, lg *slog.Logger) *Planner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Planner{cfg: cfg, lg: lg, now: now, lastFired: map[InterventionType]time.Time{}}
}

type workHealth struct {
	needsBreak   bool
	breakOverdue bool
}

type envHealth struct {
	needsAdjustment bool
	tooHot          bool
	tooCold         bool
	stuffy          bool
	dim             bool
}

type emotionalHealth struct {
	motivationLow bool
	needsSupport  bool
	highStress    bool
}

func (p *Planner) assessWork(c Context) workHealth {
	return workHealth{
		needsBreak:   c.FocusedTimeMinutes > p.cfg.AvgSessionMinutes+15,
		breakOverdue: c.FocusedTimeMinutes > p.cfg.AvgSessionMinutes+30,
	}
}

func (p *Planner) assessEnvironment(c Context) envHealth {
	var h envHealth
	if c.Environment == nil {
		return h
	}
	r := c.Environment
	if r.HasTemperature {
		h.tooHot = r.TemperatureF > p.cfg.ComfortMaxF
		h.tooCold = r.TemperatureF < p.cfg.ComfortMinF
	}
	if r.HasCO2 {
		h.stuffy = r.CO2 > p.cfg.CO2Threshold
	}
	if r.Brightness != telemetry.BrightnessUnknown {
		h.dim = r.Brightness < telemetry.Moderate
	}
	h.needsAdjustment = h.tooHot || h.tooCold || h.stuffy || h.dim
	return h
}

func (p *Planner) assessEmotion(c Context) emotionalHealth {
	return emotionalHealth{
		motivationLow: c.StressLevel > 6 || c.Mood == Frustrated || c.Mood == Tired,
		needsSupport:  c.StressLevel > 7,
		highStress:    c.StressLevel > 8,
	}
}

// Plan selects at most one intervention: build the candidate set from
// the three assessments, walk the fixed priority order, and take the
// first candidate off cooldown. Skipped candidates are not cooled down.
func (p *Planner) Plan(c Context) *Decision {
	work := p.assessWork(c)
	env := p.assessEnvironment(c)
	emo := p.assessEmotion(c)

	candidates := map[InterventionType]bool{}
	if emo.needsSupport {
		candidates[StressReduction] = true
	}
	if work.needsBreak || work.breakOverdue {
		candidates[BreakReminder] = true
	}
	if env.needsAdjustment {
		candidates[EnvironmentalAdjustment] = true
	}
	// High stress already produces a StressReduction candidate; the same
	// signal must not queue a second intervention behind it.
	if emo.motivationLow && !emo.needsSupport {
		candidates[MotivationBoost] = true
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, t := range priorityOrder {
		if !candidates[t] {
			continue
		}
		if p.onCooldown(t) {
			continue
		}
		d := p.build(t, work, env, emo)
		p.lastFired[t] = p.now()
		if p.lg != nil {
			p.lg.Info("intervention", "type", t.String(), "priority", d.Priority.String(), "actions", d.Actions)
		}
		return d
	}
	return nil
}

func (p *Planner) onCooldown(t InterventionType) bool {
	last, ok := p.lastFired[t]
	if !ok {
		return false
	}
	return p.now().Sub(last) < p.cooldownFor(t)
}

func (p *Planner) cooldownFor(t InterventionType) time.Duration {
	if t == BreakReminder {
		return p.cfg.BreakCooldown
	}
	return p.cfg.Cooldown
}

func (p *Planner) build(t InterventionType, work workHealth, env envHealth, emo emotionalHealth) *Decision {
	d := &Decision{Type: t, Priority: Medium}
	if t == StressReduction || t == BreakReminder {
		d.Priority = High
	}
	switch t {
	case StressReduction:
		if emo.highStress {
			d.Message = "I can sense you're feeling very stressed. Let's take a moment to breathe together."
			d.Actions = []string{"suggest_breathing", "offer_support"}
		} else {
			d.Message = "You seem a bit stressed. Would you like to talk about what's on your mind?"
			d.Actions = []string{"offer_support"}
		}
	case BreakReminder:
		if work.breakOverdue {
			d.Message = "You've been studying for quite a while. It's time for a break!"
		} else {
			d.Message = "How about a short break? Your brain will thank you."
		}
		d.Actions = []string{"suggest_break"}
	case EnvironmentalAdjustment:
		switch {
		case env.tooHot:
			d.Message = "It's getting warm in here. Let me turn on the fan for you."
			d.Actions = []string{"turn_fan_on"}
		case env.tooCold:
			d.Message = "It's a bit cool. Let me adjust the environment for you."
			d.Actions = []string{"turn_led_on"}
		case env.stuffy:
			d.Message = "The air quality could be better. Let me turn on the fan to help."
			d.Actions = []string{"turn_fan_on"}
		default:
			d.Message = "The lighting is a little low. Let me switch on the lamp for you."
			d.Actions = []string{"turn_led_on"}
		}
	case MotivationBoost:
		d.Message = "You're doing great! Remember, every study session brings you closer to your goals."
		d.Actions = []string{"offer_encouragement"}
	case StudyOptimization:
		d.Message = "Your rhythm looks solid. A quick review of your plan could make this session count double."
		d.Actions = []string{"suggest_review"}
	}
	return d
}

// CooldownsSnapshot returns a copy of the cooldown registry for
// observers; the live map belongs to the loop thread.
func (p *Planner) CooldownsSnapshot() map[string]time.Time {
	out := make(map[string]time.Time, len(p.lastFired))
	for t, ts := range p.lastFired {
		out[t.String()] = ts
	}
	return out
}
