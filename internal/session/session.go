// v1
// internal/session/session.go
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Trylen22/iris-companion/internal/plan"
)

// Tracker keeps the study-session bookkeeping that feeds the planner's
// behavioral signals. Owned by the loop thread; observers read
// Snapshot copies.
type Tracker struct {
	lg  *slog.Logger
	now func() time.Time

	id          string
	start       time.Time
	active      bool
	breaksTaken int
	mood        plan.Mood
	stressLevel int

	completedSessions int
	totalMinutes      int
	seedAvgMinutes    int
}

// New seeds the tracker with the historical average session length
// used until real sessions accumulate.
func New(seedAvgMinutes int, lg *slog.Logger) *Tracker {
	if seedAvgMinutes <= 0 {
		seedAvgMinutes = 45
	}
	return &Tracker{lg: lg, now: time.Now, seedAvgMinutes: seedAvgMinutes}
}

// SetClock replaces the clock; tests only.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// Start begins a session. Starting over an active session restarts it.
func (t *Tracker) Start() string {
	t.id = uuid.NewString()
	t.start = t.now()
	t.active = true
	t.breaksTaken = 0
	t.lg.Info("session start", "id", t.id)
	return "Let's make this a great study session! I'm watching the room for you."
}

// End closes the session and folds its length into the running average.
func (t *Tracker) End() string {
	if !t.active {
		return "No active study session to end."
	}
	minutes := t.FocusedMinutes()
	t.completedSessions++
	t.totalMinutes += minutes
	t.active = false
	t.lg.Info("session end", "id", t.id, "minutes", minutes, "breaks", t.breaksTaken)

	msg := fmt.Sprintf("Study session complete! You studied for %d minutes", minutes)
	if t.breaksTaken > 0 {
		msg += fmt.Sprintf(" and took %d breaks", t.breaksTaken)
	}
	return msg + ". Great work!"
}

// TakeBreak records a break without ending the session.
func (t *Tracker) TakeBreak() string {
	if !t.active {
		return "Start a session first, then I'll remind you to pace yourself."
	}
	t.breaksTaken++
	t.lg.Info("session break", "id", t.id, "breaks", t.breaksTaken)
	return "Great idea! Taking breaks helps your brain process what you've learned."
}

// FocusedMinutes is the elapsed focused time of the active session,
// zero when none is running ("no signal" for the planner).
func (t *Tracker) FocusedMinutes() int {
	if !t.active {
		return 0
	}
	return int(t.now().Sub(t.start).Minutes())
}

// AvgSessionMinutes blends the configured seed with observed history.
func (t *Tracker) AvgSessionMinutes() int {
	if t.completedSessions == 0 {
		return t.seedAvgMinutes
	}
	return t.totalMinutes / t.completedSessions
}

func (t *Tracker) Active() bool     { return t.active }
func (t *Tracker) Mood() plan.Mood  { return t.mood }
func (t *Tracker) StressLevel() int { return t.stressLevel }
func (t *Tracker) BreaksTaken() int { return t.breaksTaken }
func (t *Tracker) ID() string       { return t.id }

// moodPatterns maps moods to the phrases that reveal them. First match
// wins, in this order.
var moodPatterns = []struct {
	mood  plan.Mood
	words []string
}{
	{plan.Stressed, []string{"exam", "test", "deadline", "pressure", "worried"}},
	{plan.Frustrated, []string{"difficult", "hard", "confused", "stuck", "problem"}},
	{plan.Tired, []string{"exhausted", "sleepy", "tired", "burned out", "drained"}},
	{plan.Excited, []string{"excited", "happy", "great", "awesome", "progress"}},
	{plan.Confident, []string{"confident", "ready", "prepared", "got this", "nailed it"}},
}

var stressIndicators = []string{"stressed", "anxious", "worried", "overwhelmed", "pressure"}

// AnalyzeInput infers mood and a 0-10 stress level from free-text
// student input and stores both for subsequent planner contexts.
func (t *Tracker) AnalyzeInput(input string) (plan.Mood, int) {
	text := strings.ToLower(input)

	mood := plan.Neutral
	for _, p := range moodPatterns {
		for _, w := range p.words {
			if strings.Contains(text, w) {
				mood = p.mood
				break
			}
		}
		if mood != plan.Neutral {
			break
		}
	}

	hits := 0
	for _, w := range stressIndicators {
		if strings.Contains(text, w) {
			hits++
		}
	}
	stress := hits * 2
	if stress > 10 {
		stress = 10
	}

	t.mood = mood
	t.stressLevel = stress
	return mood, stress
}

// Snapshot is an immutable view for the HTTP API.
type Snapshot struct {
	ID             string `json:"id,omitempty"`
	Active         bool   `json:"active"`
	FocusedMinutes int    `json:"focusedMinutes"`
	BreaksTaken    int    `json:"breaksTaken"`
	Mood           string `json:"mood"`
	StressLevel    int    `json:"stressLevel"`
	AvgMinutes     int    `json:"avgSessionMinutes"`
}

func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		ID:             t.id,
		Active:         t.active,
		FocusedMinutes: t.FocusedMinutes(),
		BreaksTaken:    t.breaksTaken,
		Mood:           t.mood.String(),
		StressLevel:    t.stressLevel,
		AvgMinutes:     t.AvgSessionMinutes(),
	}
}
