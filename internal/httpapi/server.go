// v1
// internal/httpapi/server.go
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Trylen22/iris-companion/internal/config"
	"github.com/Trylen22/iris-companion/internal/monitor"
	"github.com/Trylen22/iris-companion/internal/observability"
)

// Server exposes the read-only operational surface: health, the engine
// snapshot, the action registry, effective tunables, and metrics.
type Server struct {
	eng     *monitor.Engine
	cfg     *config.AppConfig
	metrics *observability.Metrics
	lg      *slog.Logger
}

func NewRouter(eng *monitor.Engine, cfg *config.AppConfig, m *observability.Metrics, lg *slog.Logger) *mux.Router {
	s := &Server{eng: eng, cfg: cfg, metrics: m, lg: lg}

	r := mux.NewRouter()
	r.Handle("/health", m.WrapHandler("/health", http.HandlerFunc(s.health))).Methods("GET")
	r.Handle("/status", m.WrapHandler("/status", http.HandlerFunc(s.status))).Methods("GET")
	r.Handle("/actions", m.WrapHandler("/actions", http.HandlerFunc(s.actions))).Methods("GET")
	r.Handle("/config", m.WrapHandler("/config", http.HandlerFunc(s.configView))).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Snapshot())
}

func (s *Server) actions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": s.eng.Snapshot().Actions})
}

// configView reports the effective tunables. They are fixed for the
// life of the process, so this endpoint is read-only.
func (s *Server) configView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pollIntervalMs":         s.cfg.PollIntervalMs,
		"changeThresholds":       s.cfg.Telemetry.ChangeThresholds,
		"emergencyBounds":        s.cfg.Telemetry.EmergencyBounds,
		"speechCooldownSeconds":  int(s.cfg.Telemetry.SpeechCooldown.Seconds()),
		"summaryIntervalSeconds": int(s.cfg.Telemetry.SummaryInterval.Seconds()),
		"comfortMinF":            s.cfg.Plan.ComfortMinF,
		"comfortMaxF":            s.cfg.Plan.ComfortMaxF,
		"co2Threshold":           s.cfg.Plan.CO2Threshold,
		"avgSessionMinutes":      s.cfg.Plan.AvgSessionMinutes,
		"cooldownSeconds":        int(s.cfg.Plan.Cooldown.Seconds()),
		"breakCooldownSeconds":   int(s.cfg.Plan.BreakCooldown.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
