// v1
// internal/speech/speech.go
package speech

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Announcer renders text to the student. One-way: failures are logged
// and never propagate into decision logic.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

// ExecAnnouncer shells out to a local TTS command (espeak, piper, say)
// with the text as the final argument, bounded by a timeout so a hung
// engine cannot stall the polling loop.
type ExecAnnouncer struct {
	lg      *slog.Logger
	command string
	args    []string
	timeout time.Duration
}

func NewExecAnnouncer(command string, args []string, timeout time.Duration, lg *slog.Logger) *ExecAnnouncer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ExecAnnouncer{lg: lg, command: command, args: args, timeout: timeout}
}

func (a *ExecAnnouncer) Announce(ctx context.Context, text string) {
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := append(append([]string{}, a.args...), text)
	cmd := exec.CommandContext(ctx, a.command, args...)
	if err := cmd.Run(); err != nil {
		a.lg.Warn("speech_failed", "command", a.command, "error", err)
		return
	}
	a.lg.Info("spoke", "chars", len(text))
}

// NullAnnouncer logs the text instead of rendering it. Used when
// speech is disabled and as the quiet backend in tests.
type NullAnnouncer struct {
	lg *slog.Logger
}

func NewNullAnnouncer(lg *slog.Logger) *NullAnnouncer { return &NullAnnouncer{lg: lg} }

func (a *NullAnnouncer) Announce(_ context.Context, text string) {
	if a.lg != nil {
		a.lg.Info("announce", "text", text)
	}
}
