package report

import (
	"fmt"
	"strconv"
	"strings"
)

// FormFields is the full nested form payload. Saving always replaces the
// whole tree; there is no field-level patching.
type FormFields struct {
	BuildingDetails BuildingDetails `json:"building_details"`
	Superstructure  Superstructure  `json:"superstructure"`
	Substructure    Substructure    `json:"substructure"`
	Signature       Signature       `json:"signature"`
}

// BuildingDetails covers the cover page and the introduction paragraph.
type BuildingDetails struct {
	TestingDate      string `json:"testing_date"` // "YYYY-MM"
	BuildingName     string `json:"building_name"`
	BuildingLocation string `json:"building_location"`
	NumberOfStorey   int    `json:"number_of_storey"`
}

type Superstructure struct {
	RebarScanning          RebarScanning          `json:"rebar_scanning"`
	ReboundHammerTest      ReboundHammerTest      `json:"rebound_hammer_test"`
	ConcreteCoreExtraction ConcreteCoreExtraction `json:"concrete_core_extraction"`
	RebarExtraction        RebarExtraction        `json:"rebar_extraction"`
	RestorationWorks       RestorationWorks       `json:"restoration_works"`
}

type RebarScanning struct {
	NumberOfRebarScanLocations int `json:"number_of_rebar_scan_locations"`
}

type ReboundHammerTest struct {
	NumberOfReboundHammerTestLocations int `json:"number_of_rebound_hammer_test_locations"`
}

type ConcreteCoreExtraction struct {
	NumberOfCoringLocations int `json:"number_of_coring_locations"`
}

type RebarExtraction struct {
	NumberOfRebarSamplesExtracted int `json:"number_of_rebar_samples_extracted"`
}

type RestorationWorks struct {
	NonShrinkGroutProductUsed string `json:"non_shrink_grout_product_used"`
	EpoxyABUsed               string `json:"epoxy_ab_used"`
}

type Substructure struct {
	ConcreteCoreExtraction FoundationCoreExtraction `json:"concrete_core_extraction"`
}

type FoundationCoreExtraction struct {
	NumberOfFoundationLocations      int `json:"number_of_foundation_locations"`
	NumberOfFoundationCoresExtracted int `json:"number_of_foundation_cores_extracted"`
}

type Signature struct {
	PreparedBy     string `json:"prepared_by"`
	PreparedByRole string `json:"prepared_by_role"`
}

// Declared length ceilings per field.
const (
	maxBuildingNameLen     = 200
	maxBuildingLocationLen = 500
	maxProductNameLen      = 200
	maxSignatureLen        = 100
)

// CheckCeilings validates everything that can be wrong with a *provided*
// value: length ceilings and the testing-date format. Absent values are not
// errors here — presence is the generation guard's concern (MissingFields).
// All violations are returned, not just the first.
func (f *FormFields) CheckCeilings() []FieldError {
	var errs []FieldError

	add := func(field, reason string) {
		errs = append(errs, FieldError{Field: field, Reason: reason})
	}

	if d := f.BuildingDetails.TestingDate; d != "" {
		if !validTestingDate(d) {
			add("building_details.testing_date", `must be "YYYY-MM"`)
		}
	}
	if len(f.BuildingDetails.BuildingName) > maxBuildingNameLen {
		add("building_details.building_name", fmt.Sprintf("exceeds %d characters", maxBuildingNameLen))
	}
	if len(f.BuildingDetails.BuildingLocation) > maxBuildingLocationLen {
		add("building_details.building_location", fmt.Sprintf("exceeds %d characters", maxBuildingLocationLen))
	}
	if len(f.Superstructure.RestorationWorks.NonShrinkGroutProductUsed) > maxProductNameLen {
		add("superstructure.restoration_works.non_shrink_grout_product_used", fmt.Sprintf("exceeds %d characters", maxProductNameLen))
	}
	if len(f.Superstructure.RestorationWorks.EpoxyABUsed) > maxProductNameLen {
		add("superstructure.restoration_works.epoxy_ab_used", fmt.Sprintf("exceeds %d characters", maxProductNameLen))
	}
	if len(f.Signature.PreparedBy) > maxSignatureLen {
		add("signature.prepared_by", fmt.Sprintf("exceeds %d characters", maxSignatureLen))
	}
	if len(f.Signature.PreparedByRole) > maxSignatureLen {
		add("signature.prepared_by_role", fmt.Sprintf("exceeds %d characters", maxSignatureLen))
	}

	return errs
}

// MissingFields returns the dotted paths of every required field that is
// absent or below its numeric minimum.
func (f *FormFields) MissingFields() []string {
	var missing []string

	req := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}

	req(f.BuildingDetails.TestingDate != "", "building_details.testing_date")
	req(strings.TrimSpace(f.BuildingDetails.BuildingName) != "", "building_details.building_name")
	req(strings.TrimSpace(f.BuildingDetails.BuildingLocation) != "", "building_details.building_location")
	req(f.BuildingDetails.NumberOfStorey >= 1, "building_details.number_of_storey")
	req(f.Superstructure.RebarScanning.NumberOfRebarScanLocations >= 1, "superstructure.rebar_scanning.number_of_rebar_scan_locations")
	req(f.Superstructure.ReboundHammerTest.NumberOfReboundHammerTestLocations >= 1, "superstructure.rebound_hammer_test.number_of_rebound_hammer_test_locations")
	req(f.Superstructure.ConcreteCoreExtraction.NumberOfCoringLocations >= 1, "superstructure.concrete_core_extraction.number_of_coring_locations")
	req(f.Superstructure.RebarExtraction.NumberOfRebarSamplesExtracted >= 1, "superstructure.rebar_extraction.number_of_rebar_samples_extracted")
	req(strings.TrimSpace(f.Superstructure.RestorationWorks.NonShrinkGroutProductUsed) != "", "superstructure.restoration_works.non_shrink_grout_product_used")
	req(strings.TrimSpace(f.Superstructure.RestorationWorks.EpoxyABUsed) != "", "superstructure.restoration_works.epoxy_ab_used")
	req(f.Substructure.ConcreteCoreExtraction.NumberOfFoundationLocations >= 1, "substructure.concrete_core_extraction.number_of_foundation_locations")
	req(f.Substructure.ConcreteCoreExtraction.NumberOfFoundationCoresExtracted >= 1, "substructure.concrete_core_extraction.number_of_foundation_cores_extracted")
	req(strings.TrimSpace(f.Signature.PreparedBy) != "", "signature.prepared_by")
	req(strings.TrimSpace(f.Signature.PreparedByRole) != "", "signature.prepared_by_role")

	return missing
}

// validTestingDate checks the exact "YYYY-MM" shape with a real month.
func validTestingDate(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1000 {
		return false
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	return true
}
