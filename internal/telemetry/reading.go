// v0
// internal/telemetry/reading.go
package telemetry

import (
	"strings"
	"time"
)

// Metric keys as they appear in thresholds, bounds and status reports.
const (
	MetricTemperature = "temperature"
	MetricCO2         = "co2"
	MetricLight       = "light"
)

// Brightness is the categorical light level derived by the controller
// from the raw photoresistor value.
type Brightness int

const (
	BrightnessUnknown Brightness = iota
	VeryDark
	Dark
	Dim
	Moderate
	Bright
	VeryBright
)

func (b Brightness) String() string {
	switch b {
	case VeryDark:
		return "Very Dark"
	case Dark:
		return "Dark"
	case Dim:
		return "Dim"
	case Moderate:
		return "Moderate"
	case Bright:
		return "Bright"
	case VeryBright:
		return "Very Bright"
	default:
		return "Unknown"
	}
}

// ParseBrightness maps the controller's report wording onto a category.
// Anything unrecognized becomes BrightnessUnknown, never an error.
func ParseBrightness(s string) Brightness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "very dark", "very_dark":
		return VeryDark
	case "dark":
		return Dark
	case "dim":
		return Dim
	case "moderate":
		return Moderate
	case "bright":
		return Bright
	case "very bright", "very_bright":
		return VeryBright
	default:
		return BrightnessUnknown
	}
}

// Reading is one polling cycle's snapshot of the sensors plus derived
// categorical fields. Immutable once produced; the Has* flags record
// which metrics the report actually contained.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`

	TemperatureF   float64 `json:"temperatureF"`
	HasTemperature bool    `json:"hasTemperature"`

	CO2    int  `json:"co2"`
	HasCO2 bool `json:"hasCo2"`

	LightRaw int  `json:"lightRaw"`
	HasLight bool `json:"hasLight"`

	Brightness Brightness `json:"brightness"`
	LEDOn      bool       `json:"ledOn"`
	FanOn      bool       `json:"fanOn"`
}

// Metric returns the numeric value for a metric key and whether the
// reading carried it. A missing metric is "no signal", not zero.
func (r Reading) Metric(key string) (float64, bool) {
	switch key {
	case MetricTemperature:
		return r.TemperatureF, r.HasTemperature
	case MetricCO2:
		return float64(r.CO2), r.HasCO2
	case MetricLight:
		return float64(r.LightRaw), r.HasLight
	default:
		return 0, false
	}
}
