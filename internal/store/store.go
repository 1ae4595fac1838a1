// Package store is the single source of truth for report sessions, their
// uploaded images, and generated PDF artifacts. No collaborator touches the
// persisted layout except through the Repository interface.
package store

import (
	"context"
	"time"

	"github.com/sbstruc/reportr/internal/report"
)

// SaveImage carries one validated image into the repository. The bytes have
// already passed intake checks; the repository adds the state-dependent
// checks (draft-only, group capacity, session byte budget) atomically.
type SaveImage struct {
	Group            report.GroupName
	Data             []byte
	Extension        string // normalized, dot included (".jpg")
	OriginalFilename string // display-only, untrusted
	Width            int
	Height           int
}

// Repository is the contract every backend must satisfy. All operations are
// atomic with respect to a single session: a crash mid-write never leaves
// partial visible state.
type Repository interface {
	// CreateSession persists a fresh draft session with a random ID.
	CreateSession(ctx context.Context) (*report.Session, error)

	// GetSession returns a session snapshot or report.ErrNotFound.
	GetSession(ctx context.Context, id string) (*report.Session, error)

	// SaveFormFields replaces the whole form-fields tree. Fails with
	// *report.InvalidStateError unless the session is draft.
	SaveFormFields(ctx context.Context, id string, fields *report.FormFields) (*report.Session, error)

	// CheckQuota reports whether adding addBytes would exceed the session's
	// byte budget, with report.ErrQuotaExceeded. Advisory only: SaveImage
	// re-checks under the session lock.
	CheckQuota(ctx context.Context, id string, addBytes int64) error

	// SaveImage durably writes the image bytes, then records its metadata.
	// No record exists for a partial or failed write. Fails with
	// report.ErrCapacityExceeded, report.ErrQuotaExceeded, or
	// *report.InvalidStateError.
	SaveImage(ctx context.Context, id string, img SaveImage) (*report.ImageMeta, error)

	// BeginGeneration atomically transitions draft→generating after the
	// completeness guard passes. Fails with *report.ConflictError when a
	// generation is already in flight, *report.IncompleteError when the
	// guard rejects, and report.ErrAlreadyCompleted when the session is
	// completed, force is false, and the artifact still exists.
	BeginGeneration(ctx context.Context, id string, force bool) (*report.Session, error)

	// CompleteGeneration persists the artifact and transitions to completed.
	CompleteGeneration(ctx context.Context, id string, pdf []byte) (*report.Session, error)

	// FailGeneration reverts generating→draft so the caller can retry.
	FailGeneration(ctx context.Context, id string) (*report.Session, error)

	// ArtifactPath resolves the generated PDF location, or
	// report.ErrArtifactNotFound.
	ArtifactPath(ctx context.Context, id string) (string, error)

	// DeleteSession removes the session and everything stored for it.
	DeleteSession(ctx context.Context, id string) error

	// RecoverStaleSessions reverts sessions stuck in generating (crash
	// leftovers) back to draft. Call once at boot before serving.
	RecoverStaleSessions(ctx context.Context) (int, error)

	// CleanupExpired removes sessions older than maxAge that never
	// produced an artifact. Returns the number removed.
	CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error)
}
