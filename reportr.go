// Package reportr is a session-scoped intake and document-assembly service
// for construction activity reports: clients create a session, save the
// report form, upload photos into fixed groups, and generate a deterministic
// PDF rendered through headless Chrome.
package reportr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sbstruc/reportr/internal/intake"
	"github.com/sbstruc/reportr/internal/render"
	"github.com/sbstruc/reportr/internal/report"
	"github.com/sbstruc/reportr/internal/store"
)

// Service wires the repository, upload checks, the render admission gate,
// and the PDF pipeline behind one API. The HTTP router is a thin shell over
// it; tests drive the Service directly.
type Service struct {
	cfg       *Config
	repo      store.Repository
	renderer  render.PDFRenderer
	assembler *render.Assembler
	gate      *render.Gate
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRepository overrides the default filesystem repository.
func WithRepository(repo store.Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithPDFRenderer overrides the default Chrome renderer.
func WithPDFRenderer(r render.PDFRenderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService builds a Service from cfg. Without overrides it opens the
// filesystem repository under the configured roots and renders through a
// lazily launched local Chrome.
func NewService(cfg *Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:  cfg,
		gate: render.NewGate(cfg.RenderSlots),
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	if s.repo == nil {
		repo, err := store.NewFS(cfg.SessionsRoot(), cfg.ReportsRoot(), cfg.MaxSessionBytes())
		if err != nil {
			return nil, err
		}
		s.repo = repo
	}
	if s.renderer == nil {
		s.renderer = render.NewChromeRenderer(render.ChromeConfig{
			RemoteURL: cfg.ChromeURL,
			Logger:    s.log,
		})
	}

	sessionsRoot := cfg.SessionsRoot()
	if fsRepo, ok := s.repo.(*store.FS); ok {
		sessionsRoot = fsRepo.SessionsRoot()
	}
	s.assembler = render.NewAssembler(sessionsRoot, cfg.LogoPath)

	return s, nil
}

// Repository exposes the backing repository, for boot-time recovery and the
// cleanup sweeper.
func (s *Service) Repository() store.Repository { return s.repo }

// Close releases the renderer. The repository has no resources to close.
func (s *Service) Close() error {
	return s.renderer.Close()
}

// CreateSession starts a fresh draft session.
func (s *Service) CreateSession(ctx context.Context) (*report.Session, error) {
	sess, err := s.repo.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("service: session created", "session_id", sess.ID)
	return sess, nil
}

// GetSession returns a session snapshot.
func (s *Service) GetSession(ctx context.Context, id string) (*report.Session, error) {
	return s.repo.GetSession(ctx, id)
}

// SaveFormFields validates field ceilings and formats, then replaces the
// session's form wholesale. Completeness is not checked here; generation
// enforces it.
func (s *Service) SaveFormFields(ctx context.Context, id string, fields *report.FormFields) (*report.Session, error) {
	if fieldErrs := fields.CheckCeilings(); len(fieldErrs) > 0 {
		return nil, &report.InvalidFieldsError{Fields: fieldErrs}
	}
	return s.repo.SaveFormFields(ctx, id, fields)
}

// UploadImage runs the acceptance checks in contract order — media type,
// file size, session byte budget, then the decode-based dimension backstop —
// and hands the accepted bytes to the repository, which re-applies the
// state-dependent checks atomically. An upload that violates both the budget
// and a decode ceiling reports the budget.
func (s *Service) UploadImage(ctx context.Context, id string, group report.GroupName, data []byte, contentType, originalFilename string) (*report.ImageMeta, error) {
	if _, ok := report.GroupByName(group); !ok {
		return nil, fmt.Errorf("%w: unknown photo group %q", report.ErrNotFound, group)
	}

	lim := intake.Limits{
		MaxFileBytes: s.cfg.MaxFileBytes(),
		MaxPixelSide: s.cfg.MaxImageSide,
	}
	if err := intake.Precheck(contentType, int64(len(data)), lim); err != nil {
		return nil, err
	}
	if err := s.repo.CheckQuota(ctx, id, int64(len(data))); err != nil {
		return nil, err
	}

	res, err := intake.Inspect(data, contentType, lim)
	if err != nil {
		return nil, err
	}

	meta, err := s.repo.SaveImage(ctx, id, store.SaveImage{
		Group:            group,
		Data:             data,
		Extension:        res.Extension,
		OriginalFilename: originalFilename,
		Width:            res.Width,
		Height:           res.Height,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("service: image stored",
		"session_id", id, "group", group, "image_id", meta.ID, "bytes", meta.SizeBytes)
	return meta, nil
}

// Generate runs the full pipeline for one session: guarded admission into
// generating, a slot from the render gate, HTML assembly, the Chrome print,
// and artifact persistence. Any failure after admission reverts the session
// to draft so the client can retry.
//
// A completed session with a live artifact is returned as-is unless force is
// set; regeneration is otherwise skipped.
func (s *Service) Generate(ctx context.Context, id string, force bool) (*report.Session, error) {
	sess, err := s.repo.BeginGeneration(ctx, id, force)
	if err != nil {
		if errors.Is(err, report.ErrAlreadyCompleted) {
			return s.repo.GetSession(ctx, id)
		}
		return nil, err
	}

	// Past admission the work runs to completion even if the client goes
	// away; the session must not be stranded in generating.
	rctx := context.WithoutCancel(ctx)

	if err := s.gate.Acquire(ctx); err != nil {
		s.revert(rctx, id)
		return nil, err
	}
	defer s.gate.Release()

	html, err := s.assembler.BuildHTML(sess)
	if err != nil {
		s.revert(rctx, id)
		return nil, &report.RenderError{SessionID: id, Err: err}
	}

	pdf, err := s.renderer.RenderPDF(rctx, html)
	if err != nil {
		s.revert(rctx, id)
		s.log.Error("service: render failed", "session_id", id, "error", err)
		return nil, &report.RenderError{SessionID: id, Err: err}
	}

	done, err := s.repo.CompleteGeneration(rctx, id, pdf)
	if err != nil {
		s.revert(rctx, id)
		return nil, err
	}
	s.log.Info("service: report generated", "session_id", id, "bytes", len(pdf))
	return done, nil
}

// revert rolls a generating session back to draft, logging rather than
// failing when the rollback itself cannot be applied.
func (s *Service) revert(ctx context.Context, id string) {
	if _, err := s.repo.FailGeneration(ctx, id); err != nil {
		s.log.Error("service: revert to draft failed", "session_id", id, "error", err)
	}
}

// Artifact resolves the generated PDF's on-disk path and its download
// filename, derived from the building name when one is saved.
func (s *Service) Artifact(ctx context.Context, id string) (path, filename string, err error) {
	path, err = s.repo.ArtifactPath(ctx, id)
	if err != nil {
		return "", "", err
	}
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return "", "", err
	}
	return path, downloadFilename(sess), nil
}

// DeleteSession removes a session and everything stored for it.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// downloadFilename builds a safe attachment name from the building name,
// falling back to a fixed one when the form never named the building.
func downloadFilename(sess *report.Session) string {
	name := ""
	if sess.Fields != nil {
		name = sess.Fields.BuildingDetails.BuildingName
	}
	slug := slugify(name)
	if slug == "" {
		return "activity-report.pdf"
	}
	return slug + "-activity-report.pdf"
}

// slugify keeps letters and digits, collapses everything else to single
// hyphens, and lowercases the result.
func slugify(name string) string {
	out := make([]rune, 0, len(name))
	lastHyphen := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
			lastHyphen = false
		default:
			if !lastHyphen {
				out = append(out, '-')
				lastHyphen = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}
