// Package render turns a complete session snapshot into the finished PDF:
// a pure HTML assembly step (fixed narrative plus slot substitution), a
// headless-Chrome print step, and a pdfcpu read-back check on the result.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sbstruc/reportr/internal/report"
)

// ErrNoFormFields rejects assembly of a session that never saved its form.
var ErrNoFormFields = errors.New("render: session has no form fields")

// Assembler builds the document HTML for a session. Given identical inputs
// and the same narrative template the output is byte-identical: no
// randomness, no clock reads — the only date in the document is the
// user-supplied testing date.
type Assembler struct {
	sessionsRoot string
	logoPath     string // optional; empty renders the text fallback
}

// NewAssembler creates an Assembler resolving images under sessionsRoot.
func NewAssembler(sessionsRoot, logoPath string) *Assembler {
	return &Assembler{sessionsRoot: sessionsRoot, logoPath: logoPath}
}

// BuildHTML assembles the full document markup. Image references resolve to
// local file URIs rather than inline-encoded data, so image bytes are never
// duplicated into the HTML.
func (a *Assembler) BuildHTML(s *report.Session) (string, error) {
	if s.Fields == nil {
		return "", ErrNoFormFields
	}
	f := s.Fields

	doc := &document{
		BuildingName:     f.BuildingDetails.BuildingName,
		BuildingLocation: f.BuildingDetails.BuildingLocation,
		TestingMonth:     FormatTestingMonth(f.BuildingDetails.TestingDate),
		StoreyWords:      NumberToWords(f.BuildingDetails.NumberOfStorey),

		RebarScanLocations:      WordsWithDigits(f.Superstructure.RebarScanning.NumberOfRebarScanLocations),
		ReboundTestLocations:    WordsWithDigits(f.Superstructure.ReboundHammerTest.NumberOfReboundHammerTestLocations),
		CoreExtractionLocations: WordsWithDigits(f.Superstructure.ConcreteCoreExtraction.NumberOfCoringLocations),
		RebarSamples:            WordsWithDigits(f.Superstructure.RebarExtraction.NumberOfRebarSamplesExtracted),
		FoundationLocations:     WordsWithDigits(f.Substructure.ConcreteCoreExtraction.NumberOfFoundationLocations),
		FoundationCores:         WordsWithDigits(f.Substructure.ConcreteCoreExtraction.NumberOfFoundationCoresExtracted),

		GroutProduct: f.Superstructure.RestorationWorks.NonShrinkGroutProductUsed,
		EpoxyProduct: f.Superstructure.RestorationWorks.EpoxyABUsed,

		PreparedBy:     f.Signature.PreparedBy,
		PreparedByRole: f.Signature.PreparedByRole,

		LogoURI: a.logoURI(),
	}

	buildingPhotos := a.imageInfo(s, report.GroupBuildingPhoto)
	if len(buildingPhotos) > 0 {
		doc.CoverImageURI = template.URL(buildingPhotos[0].uri)
	}

	doc.IntroFigure = buildFigure(f.BuildingDetails.BuildingName, buildingPhotos, figureOpts{contain: true, large: true})
	doc.RebarScanning = a.groupFigure(s, report.GroupRebarScanning)
	doc.ReboundHammer = a.groupFigure(s, report.GroupReboundHammerTest)
	doc.ConcreteCoring = a.groupFigure(s, report.GroupConcreteCoring)
	doc.CoreSamples = a.groupFigureOpts(s, report.GroupCoreSamplesFamily, figureOpts{contain: true})
	doc.RebarExtraction = a.groupFigure(s, report.GroupRebarExtraction)
	doc.RebarSamplesFigure = a.groupFigure(s, report.GroupRebarSamplesFamily)
	doc.Chipping = a.groupFigure(s, report.GroupChippingOfSlab)
	doc.Restoration = a.groupFigure(s, report.GroupRestoration)
	doc.FoundationCoring = a.groupFigure(s, report.GroupFoundationCoring)
	doc.FoundationRebarScan = a.groupFigure(s, report.GroupFoundationRebarScan)
	doc.FoundationRestoration = a.groupFigure(s, report.GroupFoundationRestoration)

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return buf.String(), nil
}

func (a *Assembler) groupFigure(s *report.Session, name report.GroupName) figure {
	return a.groupFigureOpts(s, name, figureOpts{})
}

func (a *Assembler) groupFigureOpts(s *report.Session, name report.GroupName, opts figureOpts) figure {
	g, _ := report.GroupByName(name)
	return buildFigure(g.Label, a.imageInfo(s, name), opts)
}

type imageInfo struct {
	uri       string
	landscape bool
}

// imageInfo resolves each recorded image of a group to a file URI, skipping
// records whose file is no longer on disk.
func (a *Assembler) imageInfo(s *report.Session, name report.GroupName) []imageInfo {
	var out []imageInfo
	for _, img := range s.Images[name] {
		path := filepath.Join(a.sessionsRoot, s.ID, "images", string(name), img.StoredFilename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		out = append(out, imageInfo{
			uri:       fileURI(path),
			landscape: img.Width >= img.Height,
		})
	}
	return out
}

func (a *Assembler) logoURI() template.URL {
	if a.logoPath == "" {
		return ""
	}
	if _, err := os.Stat(a.logoPath); err != nil {
		return ""
	}
	return template.URL(fileURI(a.logoPath))
}

func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

type figureOpts struct {
	contain bool
	large   bool
}

// buildFigure lays images out the way the report template expects:
// landscape and portrait images in separate grids, pair/three-up grid
// classes by count, and a single large grid for the introduction photo.
func buildFigure(caption string, images []imageInfo, opts figureOpts) figure {
	fig := figure{Caption: caption}
	if len(images) == 0 {
		fig.Missing = true
		return fig
	}

	if opts.large {
		fig.Grids = []grid{buildGrid(images, opts)}
		return fig
	}

	var landscape, portrait []imageInfo
	for _, img := range images {
		if img.landscape {
			landscape = append(landscape, img)
		} else {
			portrait = append(portrait, img)
		}
	}
	if len(landscape) > 0 {
		fig.Grids = append(fig.Grids, buildGrid(landscape, opts))
	}
	if len(portrait) > 0 {
		fig.Grids = append(fig.Grids, buildGrid(portrait, opts))
	}
	return fig
}

func buildGrid(images []imageInfo, opts figureOpts) grid {
	gridClasses := []string{"figure__grid"}
	baseClasses := []string{"figure__img"}

	allPortrait := true
	for _, img := range images {
		if img.landscape {
			allPortrait = false
			break
		}
	}

	switch {
	case opts.large:
		baseClasses = append(baseClasses, "figure__img--large")
		gridClasses = append(gridClasses, "figure__grid--single")
	case len(images) == 1:
		gridClasses = append(gridClasses, "figure__grid--single")
	case len(images) == 2 || len(images) == 4:
		if allPortrait {
			gridClasses = append(gridClasses, "figure__grid--portrait-pair")
		}
	default:
		gridClasses = append(gridClasses, "figure__grid--three")
	}

	if opts.contain {
		baseClasses = append(baseClasses, "figure__img--contain")
	}

	g := grid{Class: joinClasses(gridClasses)}
	for _, img := range images {
		orientation := "figure__img--portrait"
		if img.landscape {
			orientation = "figure__img--landscape"
		}
		g.Items = append(g.Items, gridItem{
			URI:   template.URL(img.uri),
			Class: joinClasses(append(append([]string{}, baseClasses...), orientation)),
		})
	}
	return g
}

func joinClasses(classes []string) string {
	out := classes[0]
	for _, c := range classes[1:] {
		out += " " + c
	}
	return out
}
