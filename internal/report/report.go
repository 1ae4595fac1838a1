// Package report holds the domain model for a construction activity report
// session: lifecycle status, form fields, photo groups, and image metadata.
package report

import (
	"time"
)

// Status is the lifecycle state of a report session. It only ever advances
// forward; the single exception is the generating→draft rollback after a
// failed render.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
)

// ImageMeta describes one stored image. The stored filename is derived from
// the image ID and never collides, regardless of the original filename.
type ImageMeta struct {
	ID               string    `json:"id"`
	Group            GroupName `json:"group_name"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	SizeBytes        int64     `json:"size_bytes"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
}

// Session is the unit of work spanning one report's intake through its
// generated artifact. FormFields is nil until the first save; PDFPath is
// empty until a generation succeeds.
type Session struct {
	ID        string                     `json:"id"`
	CreatedAt time.Time                  `json:"created_at"`
	Status    Status                     `json:"status"`
	Fields    *FormFields                `json:"form_fields"`
	Images    map[GroupName][]ImageMeta  `json:"images"`
	PDFPath   string                     `json:"generated_pdf_path,omitempty"`
}

// GroupCount returns the number of images stored for a group.
func (s *Session) GroupCount(g GroupName) int {
	return len(s.Images[g])
}

// TotalImageBytes sums the stored byte sizes across all groups.
func (s *Session) TotalImageBytes() int64 {
	var total int64
	for _, images := range s.Images {
		for _, img := range images {
			total += img.SizeBytes
		}
	}
	return total
}

// Incomplete lists everything that still blocks generation: form fields that
// are absent or below their minimums, and photo groups under their required
// count. Both lists are exhaustive, never just the first deficiency.
type Incomplete struct {
	Fields []string `json:"fields,omitempty"`
	Groups []string `json:"photo_groups,omitempty"`
}

// MissingRequirements evaluates the draft→generating transition guard.
// Returns nil when the session satisfies every requirement.
func MissingRequirements(s *Session) *Incomplete {
	inc := &Incomplete{}

	if s.Fields == nil {
		inc.Fields = append(inc.Fields, "form_fields")
	} else {
		inc.Fields = append(inc.Fields, s.Fields.MissingFields()...)
	}

	for _, g := range Groups {
		if s.GroupCount(g.Name) < g.Min {
			inc.Groups = append(inc.Groups, string(g.Name))
		}
	}

	if len(inc.Fields) == 0 && len(inc.Groups) == 0 {
		return nil
	}
	return inc
}
