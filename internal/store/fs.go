package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sbstruc/reportr/internal/idgen"
	"github.com/sbstruc/reportr/internal/report"
)

const (
	sessionFile  = "session.json"
	imagesDir    = "images"
	artifactFile = "report.pdf"
)

// FS is the filesystem Repository: one directory per session under
// sessionsRoot holding session.json and the per-group image files, and one
// directory per session under reportsRoot holding the generated PDF.
// Every mutation is a read-modify-write under a per-session mutex, and
// every file lands via write-to-temp-then-rename.
type FS struct {
	sessionsRoot    string
	reportsRoot     string
	maxSessionBytes int64
	newID           idgen.Generator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// FSOption configures an FS repository.
type FSOption func(*FS)

// WithIDGenerator overrides the session/image ID strategy.
func WithIDGenerator(gen idgen.Generator) FSOption {
	return func(r *FS) { r.newID = gen }
}

// NewFS creates the roots if needed and returns a ready repository.
// maxSessionBytes bounds the total stored image bytes per session.
func NewFS(sessionsRoot, reportsRoot string, maxSessionBytes int64, opts ...FSOption) (*FS, error) {
	r := &FS{
		sessionsRoot:    sessionsRoot,
		reportsRoot:     reportsRoot,
		maxSessionBytes: maxSessionBytes,
		newID:           idgen.Default,
		locks:           make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(r)
	}
	if err := os.MkdirAll(sessionsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions root: %w", err)
	}
	if err := os.MkdirAll(reportsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create reports root: %w", err)
	}
	return r, nil
}

// SessionsRoot is where the renderer resolves image file locations.
func (r *FS) SessionsRoot() string { return r.sessionsRoot }

// lock returns the per-session mutex, creating it on first use.
func (r *FS) lock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.locks[id]
	if !ok {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	return m
}

// dropLock forgets a removed session's mutex so the map does not grow for
// the process lifetime. A goroutine still holding the old mutex only guards
// a session that no longer exists.
func (r *FS) dropLock(id string) {
	r.mu.Lock()
	delete(r.locks, id)
	r.mu.Unlock()
}

func (r *FS) sessionDir(id string) string  { return filepath.Join(r.sessionsRoot, id) }
func (r *FS) metadataPath(id string) string { return filepath.Join(r.sessionDir(id), sessionFile) }
func (r *FS) reportDir(id string) string   { return filepath.Join(r.reportsRoot, id) }

// ImagePath resolves the on-disk location of one stored image.
func (r *FS) ImagePath(id string, group report.GroupName, storedFilename string) string {
	return filepath.Join(r.sessionDir(id), imagesDir, string(group), storedFilename)
}

func (r *FS) CreateSession(ctx context.Context) (*report.Session, error) {
	s := &report.Session{
		ID:        r.newID(),
		CreatedAt: time.Now().UTC(),
		Status:    report.StatusDraft,
		Images:    make(map[report.GroupName][]report.ImageMeta),
	}
	if err := os.MkdirAll(filepath.Join(r.sessionDir(s.ID), imagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if err := r.writeSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *FS) GetSession(ctx context.Context, id string) (*report.Session, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return nil, report.ErrNotFound
	}
	return r.readSession(canonical)
}

func (r *FS) SaveFormFields(ctx context.Context, id string, fields *report.FormFields) (*report.Session, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return nil, report.ErrNotFound
	}
	mu := r.lock(canonical)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.readSession(canonical)
	if err != nil {
		return nil, err
	}
	if s.Status != report.StatusDraft {
		return nil, &report.InvalidStateError{SessionID: s.ID, Status: s.Status, Op: "save form fields for"}
	}
	s.Fields = fields
	if err := r.writeSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *FS) CheckQuota(ctx context.Context, id string, addBytes int64) error {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return report.ErrNotFound
	}
	s, err := r.readSession(canonical)
	if err != nil {
		return err
	}
	if s.TotalImageBytes()+addBytes > r.maxSessionBytes {
		return fmt.Errorf("%w (%d bytes budget)", report.ErrQuotaExceeded, r.maxSessionBytes)
	}
	return nil
}

func (r *FS) SaveImage(ctx context.Context, id string, img SaveImage) (*report.ImageMeta, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return nil, report.ErrNotFound
	}
	group, ok := report.GroupByName(img.Group)
	if !ok {
		return nil, fmt.Errorf("%w: unknown photo group %q", report.ErrNotFound, img.Group)
	}

	mu := r.lock(canonical)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.readSession(canonical)
	if err != nil {
		return nil, err
	}
	if s.Status != report.StatusDraft {
		return nil, &report.InvalidStateError{SessionID: s.ID, Status: s.Status, Op: "upload images to"}
	}
	if s.TotalImageBytes()+int64(len(img.Data)) > r.maxSessionBytes {
		return nil, fmt.Errorf("%w (%d bytes budget)", report.ErrQuotaExceeded, r.maxSessionBytes)
	}
	if s.GroupCount(group.Name) >= group.Max {
		return nil, fmt.Errorf("%w: %q holds its maximum of %d", report.ErrCapacityExceeded, group.Name, group.Max)
	}

	imageID := r.newID()
	stored := imageID + img.Extension
	dir := filepath.Join(r.sessionDir(canonical), imagesDir, string(group.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create group dir: %w", err)
	}

	// Bytes first, metadata second: a record only exists once its file is
	// durably in place.
	finalPath := filepath.Join(dir, stored)
	if err := writeFileAtomic(finalPath, img.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	meta := report.ImageMeta{
		ID:               imageID,
		Group:            group.Name,
		OriginalFilename: img.OriginalFilename,
		StoredFilename:   stored,
		SizeBytes:        int64(len(img.Data)),
		Width:            img.Width,
		Height:           img.Height,
	}
	s.Images[group.Name] = append(s.Images[group.Name], meta)
	if err := r.writeSession(s); err != nil {
		os.Remove(finalPath)
		return nil, err
	}
	return &meta, nil
}

func (r *FS) BeginGeneration(ctx context.Context, id string, force bool) (*report.Session, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return nil, report.ErrNotFound
	}
	mu := r.lock(canonical)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.readSession(canonical)
	if err != nil {
		return nil, err
	}

	switch s.Status {
	case report.StatusGenerating:
		return nil, &report.ConflictError{SessionID: s.ID}
	case report.StatusCompleted:
		if !force && r.artifactExists(canonical) {
			return nil, report.ErrAlreadyCompleted
		}
		// Forced regeneration (or the artifact vanished): re-enter the
		// guarded transition below.
	}

	if missing := report.MissingRequirements(s); missing != nil {
		return nil, &report.IncompleteError{Missing: missing}
	}

	s.Status = report.StatusGenerating
	if err := r.writeSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *FS) CompleteGeneration(ctx context.Context, id string, pdf []byte) (*report.Session, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return nil, report.ErrNotFound
	}
	mu := r.lock(canonical)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.readSession(canonical)
	if err != nil {
		return nil, err
	}
	if s.Status != report.StatusGenerating {
		return nil, &report.InvalidStateError{SessionID: s.ID, Status: s.Status, Op: "complete generation for"}
	}

	if err := os.MkdirAll(r.reportDir(canonical), 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(r.reportDir(canonical), artifactFile)
	if err := writeFileAtomic(path, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	s.PDFPath = path
	s.Status = report.StatusCompleted
	if err := r.writeSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *FS) FailGeneration(ctx context.Context, id string) (*report.Session, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return nil, report.ErrNotFound
	}
	mu := r.lock(canonical)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.readSession(canonical)
	if err != nil {
		return nil, err
	}
	if s.Status != report.StatusGenerating {
		return nil, &report.InvalidStateError{SessionID: s.ID, Status: s.Status, Op: "fail generation for"}
	}
	s.Status = report.StatusDraft
	if err := r.writeSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *FS) ArtifactPath(ctx context.Context, id string) (string, error) {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return "", report.ErrNotFound
	}
	s, err := r.readSession(canonical)
	if err != nil {
		return "", err
	}
	if s.PDFPath == "" {
		return "", report.ErrArtifactNotFound
	}
	if _, err := os.Stat(s.PDFPath); err != nil {
		return "", report.ErrArtifactNotFound
	}
	return s.PDFPath, nil
}

func (r *FS) DeleteSession(ctx context.Context, id string) error {
	canonical, err := idgen.Parse(id)
	if err != nil {
		return report.ErrNotFound
	}
	mu := r.lock(canonical)
	mu.Lock()
	defer mu.Unlock()

	if _, err := r.readSession(canonical); err != nil {
		return err
	}
	if err := os.RemoveAll(r.sessionDir(canonical)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	if err := os.RemoveAll(r.reportDir(canonical)); err != nil {
		return fmt.Errorf("remove report dir: %w", err)
	}
	r.dropLock(canonical)
	return nil
}

func (r *FS) RecoverStaleSessions(ctx context.Context) (int, error) {
	recovered := 0
	err := r.eachSession(func(s *report.Session) {
		if s.Status != report.StatusGenerating {
			return
		}
		mu := r.lock(s.ID)
		mu.Lock()
		defer mu.Unlock()
		s.Status = report.StatusDraft
		if err := r.writeSession(s); err == nil {
			recovered++
		}
	})
	return recovered, err
}

func (r *FS) CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	err := r.eachSession(func(s *report.Session) {
		if s.Status == report.StatusCompleted {
			return
		}
		if s.CreatedAt.After(cutoff) {
			return
		}
		mu := r.lock(s.ID)
		mu.Lock()
		defer mu.Unlock()
		if err := os.RemoveAll(r.sessionDir(s.ID)); err != nil {
			return
		}
		// A draft can hold a stale artifact (forced regeneration that then
		// failed); reclaim that too.
		os.RemoveAll(r.reportDir(s.ID))
		r.dropLock(s.ID)
		removed++
	})
	return removed, err
}

// eachSession walks the sessions root, skipping entries that are not
// readable sessions (half-deleted dirs, stray files).
func (r *FS) eachSession(fn func(*report.Session)) error {
	entries, err := os.ReadDir(r.sessionsRoot)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := r.readSession(e.Name())
		if err != nil {
			continue
		}
		fn(s)
	}
	return nil
}

func (r *FS) readSession(id string) (*report.Session, error) {
	data, err := os.ReadFile(r.metadataPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, report.ErrNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var s report.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Images == nil {
		s.Images = make(map[report.GroupName][]report.ImageMeta)
	}
	return &s, nil
}

func (r *FS) writeSession(s *report.Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := writeFileAtomic(r.metadataPath(s.ID), data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", s.ID, err)
	}
	return nil
}

func (r *FS) artifactExists(id string) bool {
	_, err := os.Stat(filepath.Join(r.reportDir(id), artifactFile))
	return err == nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
