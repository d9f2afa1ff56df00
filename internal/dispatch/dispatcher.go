// v2
// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Trylen22/iris-companion/internal/reasoner"
	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// Effect is one unit of device or speech work. Every effect reports an
// explicit success flag; there is no implicit fall-through.
type Effect func(ctx context.Context) bool

// Resolver is the bounded external fallback for unrecognized action
// identifiers. reasoner.Client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, req reasoner.Request) (reasoner.Reply, error)
}

// Announcer is the subset of the speech capability the dispatcher
// needs for clarifying messages.
type Announcer interface {
	Announce(ctx context.Context, text string)
}

// Dispatcher maps symbolic action identifiers onto effects. Unknown
// identifiers get exactly one externally suggested retry; no further
// chaining, so worst-case latency stays bounded and cycles are
// impossible.
type Dispatcher struct {
	lg       *slog.Logger
	resolver Resolver
	speaker  Announcer
	actions  map[string]Effect
	env      func() (telemetry.Reading, bool)
}

func New(resolver Resolver, speaker Announcer, lg *slog.Logger) *Dispatcher {
	return &Dispatcher{
		lg:       lg,
		resolver: resolver,
		speaker:  speaker,
		actions:  map[string]Effect{},
	}
}

// Register adds or overwrites an action. There is no removal; device
// capability only ever grows at runtime.
func (d *Dispatcher) Register(id string, eff Effect) {
	d.actions[id] = eff
}

// SetEnvironment installs the telemetry snapshot provider embedded in
// fallback prompts.
func (d *Dispatcher) SetEnvironment(fn func() (telemetry.Reading, bool)) { d.env = fn }

// Actions lists the registered identifiers, sorted for determinism.
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.actions))
	for id := range d.actions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Execute runs a registered action, or resolves an unknown identifier
// through the reasoning service with a single bounded recursion.
func (d *Dispatcher) Execute(ctx context.Context, id string) bool {
	return d.execute(ctx, id, true)
}

func (d *Dispatcher) execute(ctx context.Context, id string, allowFallback bool) bool {
	if eff, ok := d.actions[id]; ok {
		success := eff(ctx)
		if !success {
			d.lg.Warn("action failed", "action", id)
		}
		return success
	}
	if !allowFallback || d.resolver == nil {
		d.lg.Warn("unknown action", "action", id, "fallback", false)
		return false
	}
	return d.fallback(ctx, id)
}

func (d *Dispatcher) fallback(ctx context.Context, id string) bool {
	d.lg.Info("unknown action, consulting reasoner", "action", id)
	req := reasoner.Request{Unresolved: id, Known: d.Actions()}
	if d.env != nil {
		if r, ok := d.env(); ok {
			req.Environment = &r
		}
	}
	reply, err := d.resolver.Resolve(ctx, req)
	if err != nil {
		d.lg.Warn("reasoner unavailable", "action", id, "error", err)
		d.clarify(ctx, "I couldn't work out how to handle \""+id+"\" right now.")
		return false
	}
	if reply.Response != "" {
		d.clarify(ctx, reply.Response)
	}
	suggested := reply.ActionID()
	if suggested == "" {
		d.lg.Warn("reasoner gave no suggestion", "action", id)
		return false
	}
	if _, ok := d.actions[suggested]; !ok {
		d.lg.Warn("reasoner suggested unregistered action", "action", id, "suggested", suggested)
		d.clarify(ctx, "I don't have a way to do \""+id+"\" yet.")
		return false
	}
	d.lg.Info("reasoner suggestion accepted", "action", id, "suggested", suggested)
	return d.execute(ctx, suggested, false)
}

// clarify is best-effort speech; failures stay inside the announcer.
func (d *Dispatcher) clarify(ctx context.Context, text string) {
	if d.speaker != nil {
		d.speaker.Announce(ctx, text)
	}
}
