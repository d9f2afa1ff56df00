// v2
// internal/reasoner/client.go
package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Trylen22/iris-companion/internal/circuitbreaker"
	"github.com/Trylen22/iris-companion/internal/telemetry"
)

// Request carries everything the model needs to resolve an
// unrecognized action: the raw request, the registry's identifiers and
// the latest telemetry snapshot when one exists.
type Request struct {
	Unresolved  string
	Known       []string
	Environment *telemetry.Reading
}

// Client talks to an Ollama-style generate endpoint. Every call is
// bounded by Timeout and guarded by the circuit breaker so a flapping
// model server degrades to fast local failures.
type Client struct {
	lg      *slog.Logger
	http    *circuitbreaker.HTTPClient
	baseURL string
	model   string
	timeout time.Duration
	observe func(time.Duration)
}

type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxFailures int
	ResetAfter  time.Duration

	// Observe, when set, receives the round-trip duration of every
	// generate call, successful or not.
	Observe func(time.Duration)
}

func NewClient(cfg Config, lg *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	hc := circuitbreaker.NewHTTPClient(
		"reasoner",
		circuitbreaker.Config{MaxFailures: cfg.MaxFailures, ResetTimeout: cfg.ResetAfter},
		base+"/api/tags",
		&http.Client{Timeout: cfg.Timeout},
		lg,
	)
	return &Client{lg: lg, http: hc, baseURL: base, model: cfg.Model, timeout: cfg.Timeout, observe: cfg.Observe}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Resolve asks the model to map an unresolved request onto one of the
// registered identifiers. The reply goes through the two-stage parser;
// a transport or timeout failure surfaces as an error so the caller can
// apply its own fallback.
func (c *Client) Resolve(ctx context.Context, req Request) (Reply, error) {
	raw, err := c.generate(ctx, buildPrompt(req))
	if err != nil {
		return Reply{}, err
	}
	if r, ok := ExtractReply(raw); ok {
		return r, nil
	}
	c.lg.Warn("reasoner_json_extract_failed", "fallback", "keyword")
	return FallbackReply(raw), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.observe != nil {
		start := time.Now()
		defer func() { c.observe(time.Since(start)) }()
	}

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoner call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.CopyN(io.Discard, resp.Body, 256)
		return "", fmt.Errorf("reasoner status %d", resp.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode reasoner reply: %w", err)
	}
	return out.Response, nil
}

// BreakerState exposes the breaker for the metrics gauge.
func (c *Client) BreakerState() circuitbreaker.State { return c.http.State() }

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an environmental monitoring assistant. The user requested action: \"")
	b.WriteString(req.Unresolved)
	b.WriteString("\"\n\n")
	if req.Environment != nil {
		r := req.Environment
		b.WriteString("Current telemetry:\n")
		if r.HasTemperature {
			fmt.Fprintf(&b, "  temperature: %.1f F\n", r.TemperatureF)
		}
		if r.HasCO2 {
			fmt.Fprintf(&b, "  co2: %d\n", r.CO2)
		}
		if r.HasLight {
			fmt.Fprintf(&b, "  light: %d (%s)\n", r.LightRaw, r.Brightness)
		}
		fmt.Fprintf(&b, "  led: %v, fan: %v\n\n", r.LEDOn, r.FanOn)
	}
	b.WriteString("Available actions are:\n")
	for _, id := range req.Known {
		b.WriteString("  - ")
		b.WriteString(id)
		b.WriteString("\n")
	}
	b.WriteString("\nSuggest the most appropriate action from the available list, " +
		"or explain why the request cannot be performed.\n\n" +
		"Respond with JSON:\n" +
		"{\n" +
		"    \"suggested_action\": \"action_name\",\n" +
		"    \"explanation\": \"Why this action was chosen\",\n" +
		"    \"response\": \"Message to speak to user\"\n" +
		"}\n")
	return b.String()
}
