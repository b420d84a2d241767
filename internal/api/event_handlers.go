package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecell/certportal/internal/service/event"
)

// ListEvents returns a page of events, newest first
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	events, total, err := h.events.List(r.Context(), event.ListFilter{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	})
}

// GetEvent returns a single event
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(r.Context(), chi.URLParam(r, "eventID"))
	if errors.Is(err, event.ErrNotFound) {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

// CreateEvent creates a new event
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input event.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ev, err := h.events.Create(r.Context(), input)
	if errors.Is(err, event.ErrUnknownTemplate) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, ev)
}

type updateEventRequest struct {
	Title     *string    `json:"title"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Organizer *string    `json:"organizer"`
	Template  *string    `json:"template"`
}

// UpdateEvent applies a partial update to an event
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	eventID := chi.URLParam(r, "eventID")
	err := h.events.Update(r.Context(), eventID, event.UpdateFields{
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Organizer: req.Organizer,
		Template:  req.Template,
	})
	if errors.Is(err, event.ErrNotFound) {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}
	if errors.Is(err, event.ErrUnknownTemplate) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	ev, err := h.events.Get(r.Context(), eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

// DeleteEvent deletes an event that has no issued certificates
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.events.Delete(r.Context(), chi.URLParam(r, "eventID"))
	if errors.Is(err, event.ErrNotFound) {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}
	if errors.Is(err, event.ErrHasCertificates) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
