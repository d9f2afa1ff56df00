// v1
// internal/monitor/actions.go
package monitor

import (
	"context"
	"fmt"

	"github.com/Trylen22/iris-companion/internal/dispatch"
	"github.com/Trylen22/iris-companion/internal/plan"
	"github.com/Trylen22/iris-companion/internal/session"
	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// RegisterStandardActions populates the dispatcher with the companion's
// startup action set: device toggles, environment queries, coaching
// lines, and session bookkeeping.
func RegisterStandardActions(dsp *dispatch.Dispatcher, dev Device, spk Announcer, cls *telemetry.Classifier, tracker *session.Tracker, planCfg plan.Config) {
	say := func(ctx context.Context, text string) bool {
		if spk != nil {
			spk.Announce(ctx, text)
		}
		return true
	}
	toggle := func(op func() error) dispatch.Effect {
		return func(ctx context.Context) bool { return op() == nil }
	}

	dsp.Register("turn_led_on", toggle(dev.LEDOn))
	dsp.Register("turn_led_off", toggle(dev.LEDOff))
	dsp.Register("turn_fan_on", toggle(dev.FanOn))
	dsp.Register("turn_fan_off", toggle(dev.FanOff))

	dsp.Register("status", func(ctx context.Context) bool {
		r, ok := cls.LastReading()
		if !ok {
			return say(ctx, "I don't have any sensor readings yet.")
		}
		return say(ctx, summaryMessage(r))
	})

	dsp.Register("analyze", func(ctx context.Context) bool {
		r, ok := cls.LastReading()
		if !ok {
			return say(ctx, "I don't have any sensor readings to analyze yet.")
		}
		return say(ctx, analysisMessage(r, planCfg))
	})

	dsp.Register("emergency_check", func(ctx context.Context) bool {
		r, ok := cls.LastReading()
		if !ok {
			return say(ctx, "I can't run an emergency check without sensor readings.")
		}
		emergencies := cls.Emergencies(r)
		if len(emergencies) == 0 {
			return say(ctx, "All readings are within safe ranges.")
		}
		return say(ctx, emergencyMessage(emergencies))
	})

	dsp.Register("suggest_break", func(ctx context.Context) bool {
		return say(ctx, "A short break would do you good. Stand up, stretch, get some water.")
	})
	dsp.Register("suggest_breathing", func(ctx context.Context) bool {
		return say(ctx, "Let's try a breathing exercise. Breathe in for four counts, hold for four, out for four.")
	})
	dsp.Register("offer_support", func(ctx context.Context) bool {
		return say(ctx, "I'm here if you need to talk through what's stressing you out.")
	})
	dsp.Register("offer_encouragement", func(ctx context.Context) bool {
		return say(ctx, "You're putting in real effort. Keep going, you've got this.")
	})
	dsp.Register("suggest_review", func(ctx context.Context) bool {
		return say(ctx, "This might be a good moment to review what you've covered so far.")
	})

	dsp.Register("start_session", func(ctx context.Context) bool {
		return say(ctx, tracker.Start())
	})
	dsp.Register("end_session", func(ctx context.Context) bool {
		return say(ctx, tracker.End())
	})
	dsp.Register("take_break", func(ctx context.Context) bool {
		return say(ctx, tracker.TakeBreak())
	})
}

// analysisMessage is the spoken comfort assessment for the analyze
// action.
func analysisMessage(r telemetry.Reading, cfg plan.Config) string {
	msg := summaryMessage(r)
	switch {
	case r.HasTemperature && r.TemperatureF > cfg.ComfortMaxF:
		msg += fmt.Sprintf(" It's warmer than the comfortable range of %.0f to %.0f degrees.", cfg.ComfortMinF, cfg.ComfortMaxF)
	case r.HasTemperature && r.TemperatureF < cfg.ComfortMinF:
		msg += fmt.Sprintf(" It's cooler than the comfortable range of %.0f to %.0f degrees.", cfg.ComfortMinF, cfg.ComfortMaxF)
	}
	if r.HasCO2 && r.CO2 > cfg.CO2Threshold {
		msg += " The air is getting stuffy; some ventilation would help."
	}
	if r.Brightness == telemetry.VeryDark || r.Brightness == telemetry.Dark {
		msg += " It's quite dark for studying; more light would reduce eye strain."
	}
	return msg
}
