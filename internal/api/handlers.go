package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ecell/certportal/internal/progress"
	"github.com/ecell/certportal/internal/render"
	"github.com/ecell/certportal/internal/service/certificate"
	"github.com/ecell/certportal/internal/service/event"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	events  *event.Service
	certs   *certificate.Service
	tracker *progress.Tracker
}

// NewHandlers creates a new Handlers instance. tracker may be nil when
// Redis is not configured; generation then runs without job progress.
func NewHandlers(events *event.Service, certs *certificate.Service, tracker *progress.Tracker) *Handlers {
	return &Handlers{
		events:  events,
		certs:   certs,
		tracker: tracker,
	}
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListTemplates returns the available certificate template IDs
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": render.TemplateIDs(),
		"default":   render.DefaultTemplate,
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
