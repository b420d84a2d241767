package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecell/certportal/internal/domain"
	"github.com/ecell/certportal/internal/importer"
	"github.com/ecell/certportal/internal/progress"
	"github.com/ecell/certportal/internal/service/certificate"
	"github.com/ecell/certportal/internal/service/event"
	"github.com/ecell/certportal/internal/storage"
)

// ImportParticipants validates an uploaded participant spreadsheet and
// returns the per-row validation results. Nothing is persisted; the
// client selects valid rows and posts them to the generate endpoint.
func (h *Handlers) ImportParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if _, err := h.events.Get(r.Context(), eventID); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			respondError(w, http.StatusNotFound, "event not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB cap for participant sheets
		respondError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	raw, err := importer.ParseFile(file, header.Filename)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse file: "+err.Error())
		return
	}

	existing, err := h.certs.ExistingNumbers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load existing certificate numbers")
		return
	}

	rows := importer.Validate(raw, existing)
	valid := 0
	for _, row := range rows {
		if row.IsValid {
			valid++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"total": len(rows),
		"valid": valid,
	})
}

type generateRequest struct {
	Rows        []certificate.RowInput `json:"rows"`
	JobID       string                 `json:"jobId,omitempty"`
	Chunk       int                    `json:"chunk,omitempty"`
	TotalChunks int                    `json:"totalChunks,omitempty"`
}

// GenerateCertificates issues certificates for one chunk of selected rows.
// Chunks above the per-call cap are rejected outright. When the request
// carries job fields the outcome is folded into the Redis progress job so
// the UI can poll across chunks.
func (h *Handlers) GenerateCertificates(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if h.tracker != nil && req.JobID != "" && req.Chunk == 1 {
		if err := h.tracker.Start(r.Context(), req.JobID, eventID, req.TotalChunks); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to start progress job")
			return
		}
	}

	res, err := h.certs.GenerateBatch(r.Context(), eventID, req.Rows)
	if err != nil {
		switch {
		case errors.Is(err, certificate.ErrTooManyRows):
			respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, certificate.ErrEventNotFound):
			respondError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, storage.ErrNotConfigured):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "certificate generation failed")
		}
		return
	}

	var job *progress.Job
	if h.tracker != nil && req.JobID != "" {
		job, err = h.tracker.Record(r.Context(), req.JobID, req.Chunk, res.Generated, res.Failed, res.Errors)
		if err != nil && !errors.Is(err, progress.ErrNotFound) {
			respondError(w, http.StatusInternalServerError, "failed to record progress")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result": res,
		"job":    job,
	})
}

// CreateCertificate issues a single certificate outside the batch flow
func (h *Handlers) CreateCertificate(w http.ResponseWriter, r *http.Request) {
	var data importer.RowData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cert, err := h.certs.Generate(r.Context(), chi.URLParam(r, "eventID"), data)
	if err != nil {
		switch {
		case errors.Is(err, certificate.ErrEventNotFound):
			respondError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, storage.ErrNotConfigured):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, certificate.ErrDuplicateNumber):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusCreated, cert)
}

// ListCertificates returns all certificates issued for an event
func (h *Handlers) ListCertificates(w http.ResponseWriter, r *http.Request) {
	certs, err := h.certs.ListByEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list certificates")
		return
	}
	if certs == nil {
		certs = []domain.Certificate{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"certificates": certs,
		"total":        len(certs),
	})
}

// GetCertificate returns a single certificate by record ID
func (h *Handlers) GetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.certs.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, certificate.ErrNotFound) {
		respondError(w, http.StatusNotFound, "certificate not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load certificate")
		return
	}
	respondJSON(w, http.StatusOK, cert)
}

// DeleteCertificate removes a certificate record and its stored PDF
func (h *Handlers) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	err := h.certs.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, certificate.ErrNotFound) {
		respondError(w, http.StatusNotFound, "certificate not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete certificate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// VerifyCertificate is the public lookup behind the QR code on each
// certificate. Unknown or malformed numbers return a negative result
// with 200, not an error status.
func (h *Handlers) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	res, err := h.certs.Verify(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "verification lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetProgress returns the state of a chunked generation job
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "progress tracking is not configured")
		return
	}
	job, err := h.tracker.Get(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, progress.ErrNotFound) {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	respondJSON(w, http.StatusOK, job)
}
