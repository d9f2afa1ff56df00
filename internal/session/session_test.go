// v0
// internal/session/session_test.go
package session

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Trylen22/iris-companion/internal/plan"
)

func newTestTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tr := New(45, slog.New(slog.NewTextHandler(io.Discard, nil)))
	tr.SetClock(func() time.Time { return now })
	return tr, &now
}

func TestFocusedMinutesTracksActiveSession(t *testing.T) {
	tr, now := newTestTracker(t)
	if tr.FocusedMinutes() != 0 {
		t.Fatal("inactive session must report zero focused minutes")
	}
	tr.Start()
	*now = now.Add(37 * time.Minute)
	if got := tr.FocusedMinutes(); got != 37 {
		t.Fatalf("focused minutes: got %d want 37", got)
	}
}

func TestEndFoldsIntoAverage(t *testing.T) {
	tr, now := newTestTracker(t)
	if tr.AvgSessionMinutes() != 45 {
		t.Fatalf("seed average: got %d want 45", tr.AvgSessionMinutes())
	}
	tr.Start()
	*now = now.Add(60 * time.Minute)
	msg := tr.End()
	if !strings.Contains(msg, "60 minutes") {
		t.Fatalf("end message: %q", msg)
	}
	if tr.AvgSessionMinutes() != 60 {
		t.Fatalf("average after one session: got %d want 60", tr.AvgSessionMinutes())
	}
	tr.Start()
	*now = now.Add(30 * time.Minute)
	tr.End()
	if tr.AvgSessionMinutes() != 45 {
		t.Fatalf("average after two sessions: got %d want 45", tr.AvgSessionMinutes())
	}
}

func TestBreaksCountedInEndMessage(t *testing.T) {
	tr, now := newTestTracker(t)
	tr.Start()
	tr.TakeBreak()
	tr.TakeBreak()
	*now = now.Add(50 * time.Minute)
	if msg := tr.End(); !strings.Contains(msg, "2 breaks") {
		t.Fatalf("end message should mention breaks: %q", msg)
	}
}

func TestEndWithoutSession(t *testing.T) {
	tr, _ := newTestTracker(t)
	if msg := tr.End(); !strings.Contains(msg, "No active") {
		t.Fatalf("got %q", msg)
	}
}

func TestAnalyzeInputMoodAndStress(t *testing.T) {
	cases := []struct {
		input  string
		mood   plan.Mood
		stress int
	}{
		{"I have an exam tomorrow and I'm worried", plan.Stressed, 2},
		{"this problem is so difficult, I'm stuck", plan.Frustrated, 0},
		{"feeling exhausted and drained", plan.Tired, 0},
		{"great progress today!", plan.Excited, 0},
		{"I'm so anxious, overwhelmed, the pressure is too much", plan.Stressed, 6},
		{"just reading", plan.Neutral, 0},
	}
	for _, tc := range cases {
		tr, _ := newTestTracker(t)
		mood, stress := tr.AnalyzeInput(tc.input)
		if mood != tc.mood {
			t.Fatalf("AnalyzeInput(%q) mood = %v, want %v", tc.input, mood, tc.mood)
		}
		if stress != tc.stress {
			t.Fatalf("AnalyzeInput(%q) stress = %d, want %d", tc.input, stress, tc.stress)
		}
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.Start()
	first := tr.ID()
	tr.End()
	tr.Start()
	if tr.ID() == first {
		t.Fatal("restarted session must get a fresh id")
	}
}
