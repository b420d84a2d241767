// Package render produces certificate PDFs by executing an HTML template
// and printing it to PDF in a headless Chrome instance driven by rod.
//
// Rendering is slow and memory-heavy per document (seconds, not
// milliseconds). Callers are expected to render sequentially; the Renderer
// keeps a single shared browser process alive across calls.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTemplate is used when an event carries no template identifier or
// an identifier the renderer no longer knows.
const DefaultTemplate = "classic"

// ErrTimeout indicates the render exceeded its deadline. It is
// distinguishable from other rendering failures so callers can report it
// separately.
var ErrTimeout = errors.New("render timed out")

// Request carries the field substitutions for one certificate.
type Request struct {
	TemplateID        string
	ParticipantName   string
	EventName         string
	StartDate         string
	EndDate           string
	DateRange         string
	CertificateNumber string
	IssueDate         string
	Organizer         string
	QRDataURI         template.URL
}

// Renderer renders certificates through a lazily-launched headless
// browser. Safe for concurrent use, though renders are serialized by the
// callers by design.
type Renderer struct {
	timeout time.Duration
	binPath string
	tmpl    *template.Template

	mu      sync.Mutex
	browser *rod.Browser
}

// New creates a Renderer. binPath optionally points at a Chrome/Chromium
// binary; when empty, rod's launcher resolves one itself. timeout bounds a
// single document render.
func New(binPath string, timeout time.Duration) (*Renderer, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse certificate templates: %w", err)
	}
	return &Renderer{timeout: timeout, binPath: binPath, tmpl: tmpl}, nil
}

// TemplateIDs returns the identifiers of all embedded certificate
// templates, sorted.
func TemplateIDs() []string {
	entries, _ := fs.Glob(templateFS, "templates/*.html")
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e, "templates/"), ".html")
		ids = append(ids, name)
	}
	sort.Strings(ids)
	return ids
}

// Render executes the template for req and prints the page to PDF.
// Timeouts surface as ErrTimeout; other failures are wrapped.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	html, err := r.execTemplate(req)
	if err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(r.timeout)

	if err := page.SetDocumentContent(html); err != nil {
		return nil, r.wrap("set content", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, r.wrap("wait load", err)
	}

	landscape := true
	printBackground := true
	paperWidth := 11.69 // A4 landscape, inches
	paperHeight := 8.27

	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:       landscape,
		PrintBackground: printBackground,
		PaperWidth:      &paperWidth,
		PaperHeight:     &paperHeight,
	})
	if err != nil {
		return nil, r.wrap("print to pdf", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, r.wrap("read pdf stream", err)
	}
	return data, nil
}

// Close shuts down the browser process if one was launched.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}

func (r *Renderer) execTemplate(req Request) (string, error) {
	name := req.TemplateID + ".html"
	if req.TemplateID == "" || r.tmpl.Lookup(name) == nil {
		name = DefaultTemplate + ".html"
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, req); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	if r.binPath != "" {
		l = l.Bin(r.binPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch headless chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	r.browser = browser
	return browser, nil
}

func (r *Renderer) wrap(step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", step, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", step, err)
}
