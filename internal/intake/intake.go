// Package intake performs the stateless acceptance checks on an uploaded
// image: media type allow-list, per-file byte ceiling, and a decode-based
// pixel-dimension backstop. State-dependent checks (group capacity, session
// byte budget) are enforced atomically by the repository.
package intake

import (
	"bytes"
	"fmt"
	"image"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/sbstruc/reportr/internal/report"
)

// allowedTypes maps each accepted content type to its normalized stored
// extension and the format name Go's image registry reports for it.
var allowedTypes = map[string]struct {
	extension string
	format    string
}{
	"image/jpeg": {".jpg", "jpeg"},
	"image/png":  {".png", "png"},
	"image/webp": {".webp", "webp"},
}

// Limits are the fixed ceilings applied to every upload.
type Limits struct {
	MaxFileBytes int64
	// MaxPixelSide caps the longest image dimension. It is deliberately
	// larger than the client-side pre-compression target; it exists as a
	// backstop against non-compliant clients.
	MaxPixelSide int
}

// Result describes an accepted upload, ready for the repository.
type Result struct {
	Extension string
	Width     int
	Height    int
}

// AllowedTypesList returns the accept list in stable order, for error
// messages and docs.
func AllowedTypesList() []string {
	out := make([]string, 0, len(allowedTypes))
	for t := range allowedTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Precheck runs the checks that need no image decode: the media-type
// allow-list and the per-file byte ceiling. Callers that must consult
// session state (the byte budget) before paying for a decode run this
// first; Inspect repeats both checks.
func Precheck(contentType string, size int64, lim Limits) error {
	if _, ok := allowedTypes[normalizeContentType(contentType)]; !ok {
		return fmt.Errorf("%w: %q (allowed: %s)",
			report.ErrUnsupportedMediaType, contentType, strings.Join(AllowedTypesList(), ", "))
	}
	if size > lim.MaxFileBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)",
			report.ErrPayloadTooLarge, size, lim.MaxFileBytes)
	}
	return nil
}

// Inspect runs the acceptance checks in declaration order and returns the
// normalized result, or the first rejection. A rejected upload leaves no
// trace — nothing is persisted here.
func Inspect(data []byte, contentType string, lim Limits) (*Result, error) {
	if err := Precheck(contentType, int64(len(data)), lim); err != nil {
		return nil, err
	}
	declared := allowedTypes[normalizeContentType(contentType)]

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a decodable image", report.ErrUnsupportedMediaType)
	}
	if format != declared.format {
		return nil, fmt.Errorf("%w: declared %q but content is %q",
			report.ErrUnsupportedMediaType, contentType, format)
	}

	if cfg.Width > lim.MaxPixelSide || cfg.Height > lim.MaxPixelSide {
		return nil, fmt.Errorf("%w: %dx%d px (longest side limit %d)",
			report.ErrImageTooLarge, cfg.Width, cfg.Height, lim.MaxPixelSide)
	}

	return &Result{
		Extension: declared.extension,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// normalizeContentType strips parameters ("image/jpeg; charset=x") and
// lowercases the media type.
func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
