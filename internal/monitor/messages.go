// v1
// internal/monitor/messages.go
package monitor

import (
	"fmt"
	"strings"

	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// changeMessage names every metric whose delta crossed its threshold.
// The caller guarantees at least one did.
func changeMessage(prev telemetry.Reading, hasPrev bool, cur telemetry.Reading, thresholds map[string]float64) string {
	if !hasPrev {
		return "I'm now watching your study environment. " + summaryMessage(cur)
	}
	var parts []string
	if cur.HasTemperature && prev.HasTemperature {
		if delta := cur.TemperatureF - prev.TemperatureF; abs(delta) >= thresholds[telemetry.MetricTemperature] {
			parts = append(parts, fmt.Sprintf("Temperature changed from %.1f°F to %.1f°F.", prev.TemperatureF, cur.TemperatureF))
		}
	}
	if cur.HasCO2 && prev.HasCO2 {
		if delta := float64(cur.CO2 - prev.CO2); abs(delta) >= thresholds[telemetry.MetricCO2] {
			parts = append(parts, fmt.Sprintf("CO2 moved from %d to %d ppm.", prev.CO2, cur.CO2))
		}
	}
	if cur.HasLight && prev.HasLight {
		if delta := float64(cur.LightRaw - prev.LightRaw); abs(delta) >= thresholds[telemetry.MetricLight] {
			parts = append(parts, fmt.Sprintf("Light level is now %s.", lightPhrase(cur)))
		}
	}
	if len(parts) == 0 {
		return summaryMessage(cur)
	}
	return "Environment update: " + strings.Join(parts, " ")
}

// summaryMessage is the periodic check-in line.
func summaryMessage(r telemetry.Reading) string {
	var parts []string
	if r.HasTemperature {
		parts = append(parts, fmt.Sprintf("temperature %.1f°F", r.TemperatureF))
	}
	if r.HasCO2 {
		parts = append(parts, fmt.Sprintf("CO2 %d ppm", r.CO2))
	}
	if r.HasLight {
		parts = append(parts, "light "+lightPhrase(r))
	}
	if len(parts) == 0 {
		return "I don't have any sensor readings yet."
	}
	return "Environment check: " + strings.Join(parts, ", ") + "."
}

// emergencyMessage joins every violated bound into one announcement.
func emergencyMessage(emergencies []telemetry.Emergency) string {
	msgs := make([]string, 0, len(emergencies))
	for _, e := range emergencies {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, " ")
}

func lightPhrase(r telemetry.Reading) string {
	if r.Brightness != telemetry.BrightnessUnknown {
		return fmt.Sprintf("%d (%s)", r.LightRaw, r.Brightness)
	}
	return fmt.Sprintf("%d", r.LightRaw)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
