// v1
// internal/reasoner/extract.go
package reasoner

import (
	"encoding/json"
	"strings"
)

// Reply is the structured suggestion extracted from a free-form model
// response.
type Reply struct {
	Action      string `json:"action"`
	Suggested   string `json:"suggested_action"`
	Response    string `json:"response"`
	Explanation string `json:"explanation"`
}

// ActionID returns whichever of the two action fields the model filled.
func (r Reply) ActionID() string {
	if r.Action != "" {
		return r.Action
	}
	return r.Suggested
}

// ExtractReply is the strict first stage: find the first balanced
// {...} substring in the raw text and decode it. The model's literal
// wording is not a contract, so failure here is expected and reported
// via ok=false rather than an error.
func ExtractReply(raw string) (Reply, bool) {
	frag, ok := firstBalancedObject(raw)
	if !ok {
		return Reply{}, false
	}
	var r Reply
	if err := json.Unmarshal([]byte(frag), &r); err != nil {
		return Reply{}, false
	}
	if r.ActionID() == "" && r.Response == "" {
		return Reply{}, false
	}
	return r, true
}

// firstBalancedObject scans for the first '{' and returns the substring
// up to its matching '}', tracking nesting and JSON string quoting.
func firstBalancedObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// FallbackReply is the deterministic second stage: a keyword table that
// maps recognizable phrases onto known actions when no JSON could be
// extracted.
func FallbackReply(raw string) Reply {
	text := strings.ToLower(raw)
	has := func(words ...string) bool {
		for _, w := range words {
			if !strings.Contains(text, w) {
				return false
			}
		}
		return true
	}
	switch {
	case has("led", "on"):
		return Reply{
			Action:      "turn_led_on",
			Response:    "I'll turn on the LED for you.",
			Explanation: "Turning on the LED",
		}
	case has("led", "off"):
		return Reply{
			Action:      "turn_led_off",
			Response:    "I'll turn off the LED for you.",
			Explanation: "Turning off the LED",
		}
	case has("fan", "on"):
		return Reply{
			Action:      "turn_fan_on",
			Response:    "I'll turn on the fan for you.",
			Explanation: "Turning on the fan",
		}
	case has("fan", "off"):
		return Reply{
			Action:      "turn_fan_off",
			Response:    "I'll turn off the fan for you.",
			Explanation: "Turning off the fan",
		}
	case has("temp") || has("temperature"):
		return Reply{
			Action:      "analyze",
			Response:    "I'll check the temperature for you.",
			Explanation: "Analyzing temperature",
		}
	case has("status") || has("what"):
		return Reply{
			Action:      "status",
			Response:    "I'll check the environmental status for you.",
			Explanation: "Checking environmental status",
		}
	default:
		return Reply{
			Action:      "analyze",
			Response:    "I'll analyze the environmental conditions for you.",
			Explanation: "Analyzing environment",
		}
	}
}
