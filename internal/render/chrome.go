package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFRenderer prints assembled document markup to PDF bytes. Implementations
// must return either a complete, well-formed PDF or an error — callers treat
// any error as a failed generation attempt and roll the session back.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// ChromeConfig configures the headless-Chrome renderer.
type ChromeConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	Logger *slog.Logger
}

func (c *ChromeConfig) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ChromeRenderer drives a single headless Chrome through Rod. The browser is
// connected lazily on first use and reconnected after a render error, so a
// Chrome crash costs one failed generation rather than a stuck service.
type ChromeRenderer struct {
	cfg ChromeConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewChromeRenderer creates a ChromeRenderer. Chrome is not started until
// the first RenderPDF call.
func NewChromeRenderer(cfg ChromeConfig) *ChromeRenderer {
	cfg.defaults()
	return &ChromeRenderer{cfg: cfg}
}

// RenderPDF writes the markup to a scratch file, prints it through Chrome
// with CSS page sizing, and validates the result with a full pdfcpu
// read-back before returning it.
func (r *ChromeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	b, err := r.acquire()
	if err != nil {
		return nil, err
	}

	pdf, err := r.print(ctx, b, html)
	if err != nil {
		// Assume the browser is in a bad state; the next render reconnects.
		r.discard()
		return nil, err
	}

	if err := ValidatePDF(pdf); err != nil {
		return nil, err
	}
	return pdf, nil
}

func (r *ChromeRenderer) print(ctx context.Context, b *rod.Browser, html string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "reportr-render-")
	if err != nil {
		return nil, fmt.Errorf("render: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	docPath := filepath.Join(dir, "document.html")
	if err := os.WriteFile(docPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("render: write document: %w", err)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(docPath)}
	page, err := b.Page(proto.TargetCreateTarget{URL: u.String()})
	if err != nil {
		return nil, fmt.Errorf("render: open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("render: wait load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("render: print to pdf: %w", err)
	}
	pdf, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("render: read pdf stream: %w", err)
	}
	return pdf, nil
}

// acquire returns a connected browser, launching or reconnecting as needed.
func (r *ChromeRenderer) acquire() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("render: renderer is closed")
	}
	if r.browser != nil {
		return r.browser, nil
	}

	log := r.cfg.Logger
	var wsURL string
	if r.cfg.RemoteURL != "" {
		wsURL = r.cfg.RemoteURL
		log.Info("render: connecting to remote chrome", "url", wsURL)
	} else {
		// The document references session images by file URI, which Chrome
		// refuses to load from a file page unless told otherwise.
		l := launcher.New().
			Headless(true).
			Set("allow-file-access-from-files")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("render: launch chrome: %w", err)
		}
		wsURL = u
		r.lnch = l
		log.Info("render: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		r.cleanupLocked()
		return nil, fmt.Errorf("render: connect chrome: %w", err)
	}
	r.browser = b
	return b, nil
}

// discard drops the current browser so the next render starts fresh.
func (r *ChromeRenderer) discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanupLocked()
}

// Close shuts down Chrome. Subsequent renders fail.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cleanupLocked()
	return nil
}

func (r *ChromeRenderer) cleanupLocked() {
	if r.browser != nil {
		r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
}

// ValidatePDF runs a full pdfcpu read, validate, and optimize pass over the
// bytes and rejects empty documents. Catching a truncated or malformed file
// here keeps it out of the artifact store entirely.
func ValidatePDF(data []byte) error {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("render: pdf validation: %w", err)
	}
	if pctx.PageCount < 1 {
		return fmt.Errorf("render: pdf validation: document has no pages")
	}
	return nil
}
