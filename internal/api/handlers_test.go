package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecell/certportal/internal/domain"
	"github.com/ecell/certportal/internal/render"
	"github.com/ecell/certportal/internal/service/certificate"
	"github.com/ecell/certportal/internal/service/event"
	"github.com/ecell/certportal/internal/storage"
)

// In-memory fakes shared by the handler tests.

type memEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	counts map[string]int
	nextID int
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: map[string]*domain.Event{}, counts: map[string]int{}}
}

func (r *memEventRepo) Get(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEventRepo) List(ctx context.Context, f event.ListFilter) ([]domain.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (r *memEventRepo) Create(ctx context.Context, e *domain.Event) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("ev-%d", r.nextID)
	cp := *e
	cp.ID = id
	r.events[id] = &cp
	return id, nil
}

func (r *memEventRepo) Update(ctx context.Context, id string, u event.UpdateFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return event.ErrNotFound
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Organizer != nil {
		e.Organizer = *u.Organizer
	}
	if u.Template != nil {
		e.Template = *u.Template
	}
	return nil
}

func (r *memEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *memEventRepo) CertificateCount(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[id], nil
}

type memCertRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Certificate
	byNumber map[string]*domain.Certificate
}

func newMemCertRepo() *memCertRepo {
	return &memCertRepo{byID: map[string]*domain.Certificate{}, byNumber: map[string]*domain.Certificate{}}
}

func (r *memCertRepo) Insert(ctx context.Context, c *domain.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNumber[c.CertificateNumber]; ok {
		return certificate.ErrDuplicateNumber
	}
	cp := *c
	r.byID[c.ID] = &cp
	r.byNumber[c.CertificateNumber] = &cp
	return nil
}

func (r *memCertRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byNumber[number]
	return ok, nil
}

func (r *memCertRepo) AllNumbers(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for n := range r.byNumber {
		out = append(out, n)
	}
	return out, nil
}

func (r *memCertRepo) Get(ctx context.Context, id string) (*domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, certificate.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCertRepo) GetByNumber(ctx context.Context, number string) (*domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byNumber[number]
	if !ok {
		return nil, certificate.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCertRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Certificate
	for _, c := range r.byID {
		if c.EventID == eventID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memCertRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return certificate.ErrNotFound
	}
	delete(r.byNumber, c.CertificateNumber)
	delete(r.byID, id)
	return nil
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, req render.Request) ([]byte, error) {
	return []byte("%PDF-1.4 " + req.CertificateNumber), nil
}

type stubStore struct{}

func (stubStore) Ready() error { return nil }

func (stubStore) Upload(ctx context.Context, data []byte, name string) (*storage.StoredObject, error) {
	return &storage.StoredObject{URL: "https://cdn.test/" + name, Key: "certificates/" + name}, nil
}

func (stubStore) Delete(ctx context.Context, key string) error { return nil }

type stubQR struct{}

func (stubQR) Encode(content string, size int) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type testEnv struct {
	handler   http.Handler
	eventRepo *memEventRepo
	certRepo  *memCertRepo
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	eventRepo := newMemEventRepo()
	certRepo := newMemCertRepo()
	events := event.NewService(eventRepo, render.TemplateIDs())
	certs := certificate.NewService(certRepo, events, stubRenderer{}, stubStore{}, stubQR{}, "https://certs.test")
	h := NewHandlers(events, certs, nil)
	return &testEnv{
		handler:   SetupRoutes(h, nil),
		eventRepo: eventRepo,
		certRepo:  certRepo,
	}
}

func (e *testEnv) seedEvent(t *testing.T) string {
	t.Helper()
	id, err := e.eventRepo.Create(context.Background(), &domain.Event{
		Title:     "Startup Bootcamp",
		StartDate: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Organizer: "E-Cell",
		Template:  "classic",
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	env := setupEnv(t)
	rec := env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestEventCRUD(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, "POST", "/api/events", map[string]interface{}{
		"title":      "Hackathon",
		"start_date": "2026-05-01T00:00:00Z",
		"end_date":   "2026-05-02T00:00:00Z",
		"organizer":  "E-Cell",
		"template":   "modern",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Hackathon", created.Title)

	rec = env.do(t, "GET", "/api/events/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "PUT", "/api/events/"+created.ID, map[string]string{"title": "Hackathon 2026"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hackathon 2026")

	rec = env.do(t, "DELETE", "/api/events/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/api/events/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEventUnknownTemplate(t *testing.T) {
	env := setupEnv(t)
	rec := env.do(t, "POST", "/api/events", map[string]interface{}{
		"title":      "Hackathon",
		"start_date": "2026-05-01T00:00:00Z",
		"end_date":   "2026-05-02T00:00:00Z",
		"template":   "comic-sans",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateOverCap(t *testing.T) {
	env := setupEnv(t)
	eventID := env.seedEvent(t)

	rows := make([]certificate.RowInput, certificate.MaxRowsPerCall+1)
	for i := range rows {
		rows[i] = certificate.RowInput{IsValid: true}
		rows[i].Data.ParticipantName = fmt.Sprintf("P%d", i)
		rows[i].Data.EventName = "Startup Bootcamp"
	}

	rec := env.do(t, "POST", "/api/events/"+eventID+"/certificates/generate",
		generateRequest{Rows: rows})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, env.certRepo.byID)
}

func TestGenerateUnknownEvent(t *testing.T) {
	env := setupEnv(t)
	rec := env.do(t, "POST", "/api/events/nope/certificates/generate",
		generateRequest{Rows: []certificate.RowInput{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateBatch(t *testing.T) {
	env := setupEnv(t)
	eventID := env.seedEvent(t)

	var rows []certificate.RowInput
	for _, name := range []string{"Jane Doe", "John Roe"} {
		r := certificate.RowInput{IsValid: true}
		r.Data.ParticipantName = name
		r.Data.EventName = "Startup Bootcamp"
		rows = append(rows, r)
	}

	rec := env.do(t, "POST", "/api/events/"+eventID+"/certificates/generate",
		generateRequest{Rows: rows})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result certificate.BatchResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Result.Generated)
	assert.Zero(t, resp.Result.Failed)
	assert.Len(t, env.certRepo.byID, 2)
}

func TestVerifyEndpoint(t *testing.T) {
	env := setupEnv(t)
	eventID := env.seedEvent(t)

	data := struct {
		ParticipantName string `json:"participantName"`
		EventName       string `json:"eventName"`
	}{"Jane Doe", "Startup Bootcamp"}
	rec := env.do(t, "POST", "/api/events/"+eventID+"/certificates", data)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cert domain.Certificate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cert))

	rec = env.do(t, "GET", "/verify/"+cert.CertificateNumber, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res certificate.VerifyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, "Jane Doe", res.Certificate.ParticipantName)

	// Malformed numbers are a negative result, still 200.
	rec = env.do(t, "GET", "/verify/not-a-number", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
}

func TestImportParticipants(t *testing.T) {
	env := setupEnv(t)
	eventID := env.seedEvent(t)

	csv := "Name,Email,Event,Start Date,End Date\nJane Doe,,Bootcamp,10-04-2026,12-04-2026\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "participants.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/events/"+eventID+"/certificates/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rows  []json.RawMessage `json:"rows"`
		Total int               `json:"total"`
		Valid int               `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Valid)
	assert.Contains(t, string(resp.Rows[0]), "2026-04-10")
}

func TestImportMalformedMultipart(t *testing.T) {
	env := setupEnv(t)
	eventID := env.seedEvent(t)

	req := httptest.NewRequest("POST", "/api/events/"+eventID+"/certificates/import",
		strings.NewReader("this is not a multipart payload"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=deadbeef")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid multipart body")
}

func TestImportUnknownEvent(t *testing.T) {
	env := setupEnv(t)
	req := httptest.NewRequest("POST", "/api/events/nope/certificates/import", strings.NewReader(""))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressWithoutTracker(t *testing.T) {
	env := setupEnv(t)
	rec := env.do(t, "GET", "/api/progress/job-1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListTemplates(t *testing.T) {
	env := setupEnv(t)
	rec := env.do(t, "GET", "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "classic")
	assert.Contains(t, rec.Body.String(), "modern")
}
