package render

import (
	"html/template"
	"strconv"
	"strings"
	"time"
)

// document is the fully resolved substitution model for one report. Every
// value is already formatted; the template only places it.
type document struct {
	BuildingName     string
	BuildingLocation string
	TestingMonth     string
	StoreyWords      string

	RebarScanLocations      string
	ReboundTestLocations    string
	CoreExtractionLocations string
	RebarSamples            string
	FoundationLocations     string
	FoundationCores         string

	GroutProduct string
	EpoxyProduct string

	PreparedBy     string
	PreparedByRole string

	LogoURI       template.URL
	CoverImageURI template.URL

	IntroFigure           figure
	RebarScanning         figure
	ReboundHammer         figure
	ConcreteCoring        figure
	CoreSamples           figure
	RebarExtraction       figure
	RebarSamplesFigure    figure
	Chipping              figure
	Restoration           figure
	FoundationCoring      figure
	FoundationRebarScan   figure
	FoundationRestoration figure
}

// figure is one figure slot: caption plus orientation-split image grids.
type figure struct {
	Caption string
	Missing bool
	Grids   []grid
}

type grid struct {
	Class string
	Items []gridItem
}

type gridItem struct {
	URI   template.URL
	Class string
}

// FormatTestingMonth renders "2026-02" as "FEBRUARY 2026". Inputs that do
// not match the expected shape pass through unchanged.
func FormatTestingMonth(testingDate string) string {
	parts := strings.SplitN(testingDate, "-", 2)
	if len(parts) != 2 {
		return testingDate
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return testingDate
	}
	return strings.ToUpper(time.Month(month).String()) + " " + parts[0]
}

var documentTemplate = template.Must(template.New("activity-report").Parse(documentMarkup))

// documentMarkup is the fixed narrative template: invariant prose and page
// structure with substitution anchors. The markup and stylesheet are the
// rendering backend's input and are treated as opaque by everything else.
const documentMarkup = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <style>
      @page { size: A4; margin: 16mm; }
      @page cover { margin: 16mm; }
      @page report {
        margin: 40mm 16mm 20mm;
        @top-center { content: element(report-header); width: 100%; }
      }
      @page report:first { counter-reset: page 1; }

      * { box-sizing: border-box; }
      body {
        margin: 0;
        color: #1b1b1b;
        font: 12px/1.6 "Times New Roman", Times, serif;
        background: #ffffff;
      }
      strong { font-weight: 700; }

      .cover {
        page: cover;
        height: 265mm;
        border: 1px solid #cbcbcb;
        background: #ffffff;
        padding: 10mm;
        display: flex;
        flex-direction: column;
        align-items: center;
        text-align: center;
        gap: 6mm;
      }
      .cover__title {
        margin: 0;
        font: 700 28pt/1.1 "Times New Roman", Times, serif;
        letter-spacing: 0.04em;
        text-transform: uppercase;
      }
      .cover__image-wrap {
        width: 100%;
        border: 1px solid #cbcbcb;
        background: #e9eef5;
        padding: 3.5mm;
        display: flex;
        justify-content: center;
      }
      .cover__image { width: 100%; max-height: 125mm; object-fit: contain; }
      .cover__building { margin: 0; font: 700 16pt/1.35 "Times New Roman", Times, serif; }
      .cover__date { margin: 0; font: 700 13pt/1.2 "Times New Roman", Times, serif; }
      .cover__spacer { flex: 1 1 auto; }
      .cover__logo-wrap { width: 120mm; display: flex; justify-content: center; }
      .cover__logo { width: 100%; height: auto; }
      .cover__logo-fallback { margin: 0; font-weight: 700; }

      .report { page: report; break-before: page; }
      .report-header {
        position: running(report-header);
        border-bottom: 1px solid #1f1f1f;
        padding-bottom: 2.5mm;
        font: 11px/1.2 "Times New Roman", Times, serif;
      }
      .report-header__logo-wrap { margin-bottom: 1.2mm; }
      .report-header__row + .report-header__row { margin-top: 0.4mm; }
      .report-header__row {
        display: grid;
        grid-template-columns: minmax(0, 1fr) auto;
        column-gap: 5mm;
        align-items: baseline;
      }
      .report-header__logo { width: 30mm; height: auto; }
      .report-header__logo-fallback { margin: 0; font-weight: 700; }
      .report-header__line { margin: 0; font-size: 11px; }
      .report-header__line--title,
      .report-header__line--report { font-weight: 700; }
      .report-header__line--building { white-space: normal; }
      .report-header__page-number::after { content: counter(page); }

      .section { margin: 0 0 3mm; }
      .chapter-heading {
        margin: 5mm 0 4mm;
        padding-left: 3mm;
        border-left: 1mm solid #f7550a;
        font: 700 18pt/1.2 "Times New Roman", Times, serif;
        text-transform: uppercase;
      }
      .chapter-heading--standalone { margin-top: 8mm; }
      .subsection-heading {
        margin: 4mm 0 3mm;
        font: 700 13.5pt/1.2 "Times New Roman", Times, serif;
        break-after: avoid;
        page-break-after: avoid;
      }
      .section__paragraph { margin: 0 0 3mm; text-align: justify; }

      .figure { margin: 2.4mm 0 3mm; break-inside: avoid; page-break-inside: avoid; }
      .figure__grid {
        display: grid;
        grid-template-columns: repeat(2, minmax(0, 1fr));
        gap: 2.4mm;
        align-items: start;
        break-inside: avoid;
        page-break-inside: avoid;
      }
      .figure__grid + .figure__grid { margin-top: 2.4mm; }
      .figure__grid--single { grid-template-columns: minmax(0, 1fr); }
      .figure__grid--three { grid-template-columns: repeat(3, minmax(0, 1fr)); }
      .figure__grid--portrait-pair {
        grid-template-columns: repeat(2, minmax(0, 60mm));
        justify-content: center;
        column-gap: 1.8mm;
      }
      .figure__item { break-inside: avoid; page-break-inside: avoid; }
      .figure__img { display: block; width: 100%; object-fit: contain; }
      .figure__img--landscape { height: 55mm; }
      .figure__img--portrait { height: 75mm; }
      .figure__grid--three .figure__img--landscape { height: 45mm; }
      .figure__grid--three .figure__img--portrait { height: 60mm; }
      .figure__img--contain { height: auto; max-height: 82mm; }
      .figure__img--large { width: 100%; max-height: 96mm; }
      .figure__caption {
        margin: 1.8mm 0 0;
        text-align: center;
        font: 700 10pt/1.2 "Times New Roman", Times, serif;
        break-inside: avoid;
        page-break-inside: avoid;
      }
      .figure__missing { margin: 0; text-align: center; font-style: italic; }

      .signature { margin-top: 12mm; border-top: 1px solid #1f1f1f; padding-top: 6mm; }
      .signature__label, .signature__role { margin: 0; }
      .signature__name { margin: 4mm 0 0; font-weight: 700; }
    </style>
  </head>
  <body>
    <section class="cover">
      <h1 class="cover__title">MATERIAL TESTING WORKS</h1>
      <div class="cover__image-wrap">{{if .CoverImageURI}}<img class="cover__image" src="{{.CoverImageURI}}" alt="Building photo" />{{else}}<p class="figure__missing">No building photo uploaded.</p>{{end}}</div>
      <h2 class="cover__building">{{.BuildingName}}<br />{{.BuildingLocation}}</h2>
      <h3 class="cover__date">{{.TestingMonth}}</h3>
      <div class="cover__spacer"></div>
      <div class="cover__logo-wrap">{{if .LogoURI}}<img class="cover__logo" src="{{.LogoURI}}" alt="Company logo" />{{else}}<p class="cover__logo-fallback">Company Logo</p>{{end}}</div>
    </section>

    <section class="report">
      <header class="report-header">
        <div class="report-header__logo-wrap">
          {{if .LogoURI}}<img class="report-header__logo" src="{{.LogoURI}}" alt="Company logo" />{{else}}<p class="report-header__logo-fallback">Company Logo</p>{{end}}
        </div>
        <div class="report-header__meta">
          <div class="report-header__row">
            <p class="report-header__line report-header__line--title">Material Testing Works</p>
            <p class="report-header__line report-header__line--report">Activity Report</p>
          </div>
          <div class="report-header__row">
            <p class="report-header__line report-header__line--building">{{.BuildingName}}</p>
            <p class="report-header__line report-header__line--page">
              Page <span class="report-header__page-number"></span>
            </p>
          </div>
        </div>
      </header>

      <section class="section">
        <h2 class="chapter-heading">A. INTRODUCTION</h2>
        <p class="section__paragraph">SBStruc Engineering conducted destructive testing, non-destructive testing, and foundation excavation on the existing <strong>{{.StoreyWords}}-storey building, {{.BuildingName}}</strong>, located in <strong>{{.BuildingLocation}}</strong>.</p>
        {{template "figure" .IntroFigure}}
        <p class="section__paragraph">This work was undertaken solely to gather data and information on the existing building. Concrete core extraction and rebar extraction were performed to obtain samples for the determination of concrete and reinforcing steel properties, respectively. Non-destructive testing, including rebar scanning and rebound hammer testing, was also carried out to collect additional data on concrete characteristics, identify rebar sizes, and document the probable quantity and layout of reinforcement within the building&#39;s structural components. Chipping of selected portions of the existing slab was conducted to verify the existing reinforcement. Excavation works were conducted to gather data on the existing foundation.</p>
      </section>

      <h2 class="chapter-heading chapter-heading--standalone">B. DATA GATHERING FOR SUPERSTRUCTURE</h2>

      <section class="section">
        <h3 class="subsection-heading">B.1. Rebar Scanning</h3>
        <p class="section__paragraph">Rebar scanning was performed using non-destructive testing methods to determine the quantity, spacing, and approximate diameter of reinforcing steel bars embedded within the concrete elements. This activity was carried out to verify reinforcement detailing and support the structural assessment without causing damage to the members. A total of <strong>{{.RebarScanLocations}} rebar scan locations</strong> were evaluated, and initial rebar data were recorded on site during the scanning process. The compiled results for the selected structural members are presented in <strong>Annex I</strong>.</p>
        {{template "figure" .RebarScanning}}
      </section>

      <section class="section">
        <h3 class="subsection-heading">B.2. Rebound Hammer Test</h3>
        <p class="section__paragraph">Non-destructive testing using the Rebound Hammer Test was conducted on selected structural members to assess the uniformity and relative quality of the in-situ concrete strength, as indicated by the measured Q-values. A total of <strong>{{.ReboundTestLocations}} test locations</strong> were evaluated and distributed across the structure. At each test location, ten (10) rebound hammer impacts were applied in accordance with standard testing procedures consistent with ASTM C805. The rebound numbers obtained were statistically analyzed, with mean values calculated for each structural member. A summary of the rebound number test results is presented in <strong>Annex II</strong>.</p>
        {{template "figure" .ReboundHammer}}
      </section>

      <section class="section">
        <h3 class="subsection-heading">B.3. Concrete Core Extraction</h3>
        <p class="section__paragraph">Concrete core extraction was conducted on selected structural members to obtain representative samples of the building&#39;s in-situ concrete. A total of <strong>{{.CoreExtractionLocations}} cores</strong> were extracted. The specimens were used to assess concrete quality, including compressive strength and overall material condition. Compressive strength testing was performed in accordance with ASTM C42/C42M, and the corresponding results are presented in <strong>Annex III</strong>.</p>
        {{template "figure" .ConcreteCoring}}
        {{template "figure" .CoreSamples}}
      </section>

      <section class="section">
        <h3 class="subsection-heading">B.4. Rebar Extraction</h3>
        <p class="section__paragraph">Rebar extraction was carried out on selected structural members to obtain representative reinforcement samples from the building&#39;s structural system. A total of <strong>{{.RebarSamples}} rebar samples</strong> were extracted.</p>
        {{template "figure" .RebarExtraction}}
        {{template "figure" .RebarSamplesFigure}}
        <p class="section__paragraph">The extracted rebars were evaluated to determine their material properties, including tensile strength. The tensile test results are presented in <strong>Annex IV</strong>.</p>
      </section>

      <section class="section">
        <h3 class="subsection-heading">B.5. Chipping of Existing Slab</h3>
        <p class="section__paragraph">Chipping of the existing slab at one selected location was conducted to verify the reinforcement size.</p>
        {{template "figure" .Chipping}}
      </section>

      <section class="section">
        <h3 class="subsection-heading">B.6. Restoration Works</h3>
        <p class="section__paragraph">Following the completion of concrete coring, rebar extraction, and chipping of slab, reinstatement works were carried out to restore the affected structural elements and ensure continuity of structural performance. Structural components from which samples were extracted were restored to their original condition. Removed reinforcement was replaced with new rebars of equivalent diameter and grade to maintain structural capacity. Concrete that was chipped or removed during the verification and extraction process was reinstated using <strong>{{.GroutProduct}}</strong> non-shrink grout, with proper bonding between existing and new concrete ensured through the application of <strong>{{.EpoxyProduct}}</strong> structural adhesive.</p>
        {{template "figure" .Restoration}}
      </section>

      <h2 class="chapter-heading chapter-heading--standalone">C. DATA GATHERING FOR SUBSTRUCTURE</h2>

      <section class="section">
        <h3 class="subsection-heading">C.1. Concrete Core Extraction</h3>
        <p class="section__paragraph">Concrete core extraction was conducted at <strong>{{.FoundationLocations}} selected foundation locations</strong> to obtain representative samples of the building&#39;s in-situ concrete. A total of <strong>{{.FoundationCores}} cores</strong> were extracted. The specimens were used to determine concrete properties, including compressive strength. Compressive strength testing was performed in accordance with ASTM C42/C42M, and the results are presented in <strong>Annex V</strong>.</p>
        {{template "figure" .FoundationCoring}}
      </section>

      <section class="section">
        <h3 class="subsection-heading">C.2. Rebar Scanning</h3>
        <p class="section__paragraph">Rebar scanning was performed using non-destructive testing methods to determine the quantity, spacing, and approximate diameter of reinforcing steel bars embedded within the concrete foundation. The initial rebar data were recorded on site during the scanning process. The compiled results for the foundation are presented in <strong>Annex VI</strong>.</p>
        {{template "figure" .FoundationRebarScan}}
      </section>

      <section class="section">
        <h3 class="subsection-heading">C.3. Restoration for Coring Works, Backfilling, and Compaction</h3>
        <p class="section__paragraph">Following the concrete core extraction, the excavated foundation areas were backfilled using the previously removed soils and compacted to restore the foundation to its original profile.</p>
        {{template "figure" .FoundationRestoration}}
      </section>

      <section class="signature">
        <p class="signature__label">Prepared by:</p>
        <p class="signature__name">{{.PreparedBy}}</p>
        <p class="signature__role">{{.PreparedByRole}}</p>
      </section>
    </section>
  </body>
</html>
{{define "figure"}}<section class="figure">
  {{if .Missing}}<p class="figure__missing">No images uploaded for this figure.</p>
  {{else}}{{range .Grids}}<div class="{{.Class}}">{{range .Items}}<div class="figure__item"><img class="{{.Class}}" src="{{.URI}}" alt="" /></div>{{end}}</div>
  {{end}}{{end}}<p class="figure__caption">{{.Caption}}</p>
</section>
{{end}}`
