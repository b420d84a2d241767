package certificate

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecell/certportal/internal/certno"
	"github.com/ecell/certportal/internal/domain"
	"github.com/ecell/certportal/internal/importer"
	"github.com/ecell/certportal/internal/pkg/logger"
	"github.com/ecell/certportal/internal/qr"
	"github.com/ecell/certportal/internal/render"
	"github.com/ecell/certportal/internal/service/event"
	"github.com/ecell/certportal/internal/storage"
)

const (
	// MaxRowsPerCall is the hard cap on rows in one GenerateBatch call.
	// PDF rendering takes seconds per document; the cap bounds worst-case
	// call latency and keeps one call to one browser's worth of memory.
	// Callers split larger selections into chunks and call once per chunk.
	MaxRowsPerCall = 20

	// numberAttempts bounds random certificate-number allocation.
	numberAttempts = 10
)

// PDFRenderer renders one certificate document.
type PDFRenderer interface {
	Render(ctx context.Context, req render.Request) ([]byte, error)
}

// QREncoder produces a PNG QR image for a verification URL.
type QREncoder interface {
	Encode(content string, size int) ([]byte, error)
}

// RowInput is one pre-validated import row selected for generation.
type RowInput struct {
	Data    importer.RowData `json:"data"`
	IsValid bool             `json:"isValid"`
}

// BatchResult reports the outcome of one generation call.
type BatchResult struct {
	Generated int      `json:"generated"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// VerifyResult is the public lookup response for a certificate number.
type VerifyResult struct {
	Valid       bool                `json:"valid"`
	Message     string              `json:"message,omitempty"`
	Certificate *domain.Certificate `json:"certificate,omitempty"`
	Event       *domain.Event       `json:"event,omitempty"`
}

// Service implements certificate issuance, lookup, and deletion.
type Service struct {
	repo     Repository
	events   EventLookup
	renderer PDFRenderer
	store    storage.ArtifactStore
	qrenc    QREncoder
	baseURL  string
}

// NewService creates a certificate service. baseURL is the public origin
// verification links are built from, e.g. "https://certs.ecell.example".
func NewService(
	repo Repository,
	events EventLookup,
	renderer PDFRenderer,
	store storage.ArtifactStore,
	qrenc QREncoder,
	baseURL string,
) *Service {
	return &Service{
		repo:     repo,
		events:   events,
		renderer: renderer,
		store:    store,
		qrenc:    qrenc,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// GenerateBatch issues one certificate per row, strictly in order,
// tolerating individual row failures. Call-level failures (over-cap,
// unknown event, unconfigured storage) abort before any row is processed;
// after that, a row's failure only increments the failure counter and
// appends its reason.
func (s *Service) GenerateBatch(ctx context.Context, eventID string, rows []RowInput) (*BatchResult, error) {
	if len(rows) > MaxRowsPerCall {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyRows, len(rows), MaxRowsPerCall)
	}

	ev, err := s.prepare(ctx, eventID)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Errors: []string{}}
	for _, row := range rows {
		name := strings.TrimSpace(row.Data.ParticipantName)
		if _, err := s.generateRow(ctx, ev, row.Data); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %q: %v", name, err))
			logger.Warn("certificate generation failed",
				"event_id", eventID, "participant", name, "error", err.Error())
			continue
		}
		res.Generated++
	}

	logger.Info("generation batch finished",
		"event_id", eventID, "rows", len(rows), "generated", res.Generated, "failed", res.Failed)
	return res, nil
}

// Generate issues a single certificate, the batch pipeline applied to one
// row. Unlike GenerateBatch it surfaces the row's failure as an error.
func (s *Service) Generate(ctx context.Context, eventID string, data importer.RowData) (*domain.Certificate, error) {
	ev, err := s.prepare(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.generateRow(ctx, ev, data)
}

// prepare runs the call-level checks shared by both generation paths.
func (s *Service) prepare(ctx context.Context, eventID string) (*domain.Event, error) {
	if err := s.store.Ready(); err != nil {
		return nil, err
	}
	ev, err := s.events.Get(ctx, eventID)
	if errors.Is(err, event.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve event: %w", err)
	}
	return ev, nil
}

// generateRow runs the full per-row pipeline: number resolution, QR
// encoding, PDF render, artifact upload, record insert. Each step's output
// feeds the next, so the order is fixed.
func (s *Service) generateRow(ctx context.Context, ev *domain.Event, d importer.RowData) (*domain.Certificate, error) {
	name := strings.TrimSpace(d.ParticipantName)
	if name == "" || strings.TrimSpace(d.EventName) == "" {
		return nil, errors.New("participantName and eventName are required")
	}

	number, err := s.resolveNumber(ctx, d.CertificateNumber)
	if err != nil {
		return nil, err
	}

	png, err := s.qrenc.Encode(s.verifyURL(number), qr.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}

	pdf, err := s.renderer.Render(ctx, render.Request{
		TemplateID:        ev.Template,
		ParticipantName:   name,
		EventName:         ev.Title,
		StartDate:         formatDate(ev.StartDate),
		EndDate:           formatDate(ev.EndDate),
		DateRange:         dateRange(ev.StartDate, ev.EndDate),
		CertificateNumber: number,
		IssueDate:         formatDate(time.Now()),
		Organizer:         ev.Organizer,
		QRDataURI:         template.URL(qr.DataURI(png)),
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	obj, err := s.store.Upload(ctx, pdf, number+".pdf")
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	c := &domain.Certificate{
		ID:                uuid.New().String(),
		EventID:           ev.ID,
		CertificateNumber: number,
		ParticipantName:   name,
		ParticipantEmail:  strings.TrimSpace(d.ParticipantEmail),
		CertificateURL:    obj.URL,
		StoragePublicID:   obj.Key,
		VerificationHash:  certno.VerificationHash(number, ev.ID),
		IssuedAt:          time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		// The unique constraint is the authoritative guard; a violation
		// here means another process won the number between our check
		// and the insert. Same row-scoped failure as an explicit
		// collision.
		if errors.Is(err, ErrDuplicateNumber) {
			return nil, &duplicateNumberError{Number: number}
		}
		return nil, fmt.Errorf("persist: %w", err)
	}

	logger.Info("certificate issued", "number", number, "event_id", ev.ID)
	return c, nil
}

// resolveNumber returns the certificate number for one row: the supplied
// number after an existence re-check, or a freshly drawn one.
func (s *Service) resolveNumber(ctx context.Context, supplied string) (string, error) {
	if n := strings.ToUpper(strings.TrimSpace(supplied)); n != "" {
		exists, err := s.repo.ExistsByNumber(ctx, n)
		if err != nil {
			return "", fmt.Errorf("check number: %w", err)
		}
		if exists {
			// Time may have passed since import validation ran.
			return "", &duplicateNumberError{Number: n}
		}
		return n, nil
	}

	for i := 0; i < numberAttempts; i++ {
		cand := certno.Generate()
		exists, err := s.repo.ExistsByNumber(ctx, cand)
		if err != nil {
			return "", fmt.Errorf("check number: %w", err)
		}
		if !exists {
			return cand, nil
		}
	}
	return "", fmt.Errorf("no unique certificate number after %d attempts", numberAttempts)
}

// Verify looks up a certificate number for the public verification page.
// An unknown or malformed number is a negative result, not an error.
func (s *Service) Verify(ctx context.Context, number string) (*VerifyResult, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !certno.IsValid(number) {
		return &VerifyResult{Valid: false, Message: "malformed certificate number"}, nil
	}

	c, err := s.repo.GetByNumber(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return &VerifyResult{Valid: false, Message: "no certificate with this number"}, nil
	}
	if err != nil {
		return nil, err
	}

	ev, err := s.events.Get(ctx, c.EventID)
	if err != nil && !errors.Is(err, event.ErrNotFound) {
		return nil, err
	}
	return &VerifyResult{Valid: true, Certificate: c, Event: ev}, nil
}

// Get returns a certificate by record ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Certificate, error) {
	return s.repo.Get(ctx, id)
}

// ListByEvent returns all certificates of one event.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]domain.Certificate, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

// ExistingNumbers returns the set of issued certificate numbers, upper-
// cased, for seeding import validation.
func (s *Service) ExistingNumbers(ctx context.Context) (map[string]bool, error) {
	nums, err := s.repo.AllNumbers(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(nums))
	for _, n := range nums {
		set[strings.ToUpper(n)] = true
	}
	return set, nil
}

// Delete removes the stored artifact, then the record. An artifact that
// is already gone does not block record deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if c.StoragePublicID != "" {
		if err := s.store.Delete(ctx, c.StoragePublicID); err != nil &&
			!errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("delete artifact: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("certificate deleted", "number", c.CertificateNumber, "event_id", c.EventID)
	return nil
}

// VerifyURLFor exposes the public verification link for a number.
func (s *Service) VerifyURLFor(number string) string {
	return s.verifyURL(number)
}

func (s *Service) verifyURL(number string) string {
	return s.baseURL + "/verify/" + number
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func dateRange(start, end time.Time) string {
	if start.Format("2006-01-02") == end.Format("2006-01-02") {
		return formatDate(start)
	}
	if start.Year() == end.Year() {
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	}
	return formatDate(start) + " - " + formatDate(end)
}
