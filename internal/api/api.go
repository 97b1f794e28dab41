// Package api exposes the session's metric state over a read-only JSON
// API: current snapshot, threshold alerts, and the gamified health score.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vitalscope/vitalscope/vitals"
)

// Handler serves all /api/v1/* endpoints for one tracker session.
type Handler struct {
	session    *vitals.Session
	thresholds func() vitals.Thresholds
	mux        *http.ServeMux
}

// New creates a Handler for the given session. thresholds supplies the
// current alert overrides on every evaluation so config hot-reloads take
// effect without restarting; nil means defaults only.
func New(session *vitals.Session, thresholds func() vitals.Thresholds) *Handler {
	if thresholds == nil {
		thresholds = func() vitals.Thresholds { return nil }
	}
	h := &Handler{session: session, thresholds: thresholds, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: the gamified score and feedback tier.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	score := h.session.Score()
	jsonResp(w, http.StatusOK, HealthResponse{
		Score:    score,
		Tier:     vitals.Feedback(score),
		Feedback: vitals.FeedbackMessage(score),
	})
}

// snapshot returns GET /api/v1/snapshot: the full metric snapshot, with
// null for metrics that have not resolved yet.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, toSnapshotResponse(h.session.Store().Snapshot()))
}

// alerts returns GET /api/v1/alerts: the threshold violations of the
// current snapshot, evaluated on demand.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	alerts := h.session.CheckAlerts(h.thresholds())
	if alerts == nil {
		alerts = []vitals.Alert{}
	}
	jsonResp(w, http.StatusOK, AlertsResponse{
		Alerts:      alerts,
		EvaluatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, map[string]string{"error": msg})
}
