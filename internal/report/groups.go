package report

// GroupName identifies one of the twelve fixed photo groups. Each group maps
// to exactly one figure slot in the rendered document.
type GroupName string

const (
	GroupBuildingPhoto          GroupName = "building_details_building_photo"
	GroupRebarScanning          GroupName = "superstructure_rebar_scanning_photos"
	GroupReboundHammerTest      GroupName = "superstructure_rebound_hammer_test_photos"
	GroupConcreteCoring         GroupName = "superstructure_concrete_coring_photos"
	GroupCoreSamplesFamily      GroupName = "superstructure_core_samples_family_pic"
	GroupRebarExtraction        GroupName = "superstructure_rebar_extraction_photos"
	GroupRebarSamplesFamily     GroupName = "superstructure_rebar_samples_family_pic"
	GroupChippingOfSlab         GroupName = "superstructure_chipping_of_slab_photos"
	GroupRestoration            GroupName = "superstructure_restoration_photos"
	GroupFoundationCoring       GroupName = "substructure_coring_for_foundation_photos"
	GroupFoundationRebarScan    GroupName = "substructure_rebar_scanning_for_foundation_photos"
	GroupFoundationRestoration  GroupName = "substructure_restoration_backfilling_compaction_photos"
)

// Group is the static configuration of one photo group: its display label
// and the per-session cardinality enforced at upload (max) and generation
// (min) time.
type Group struct {
	Name  GroupName
	Label string
	Min   int
	Max   int
}

// Groups enumerates all twelve photo groups in document order.
var Groups = []Group{
	{GroupBuildingPhoto, "Building Photo", 1, 1},
	{GroupRebarScanning, "Figure B.1. REBAR SCANNING", 1, 5},
	{GroupReboundHammerTest, "Figure B.2. REBOUND HAMMER TESTS", 1, 5},
	{GroupConcreteCoring, "Figure B.3.1 Concrete Core Extraction", 1, 5},
	{GroupCoreSamplesFamily, "Figure B.3.2 Extracted Core Samples", 1, 2},
	{GroupRebarExtraction, "Figure B.4.1 Rebar Extraction", 1, 5},
	{GroupRebarSamplesFamily, "Figure B.4.2 Extracted Rebar Samples", 1, 2},
	{GroupChippingOfSlab, "Figure B.5. Chipping of Existing Slab", 1, 2},
	{GroupRestoration, "Figure B.6. Restoration Works", 1, 5},
	{GroupFoundationCoring, "Figure C.1. Concrete Core Extraction for Foundation", 1, 3},
	{GroupFoundationRebarScan, "Figure C.2. Rebar Scanning for Foundation", 1, 3},
	{GroupFoundationRestoration, "Figure C.3. Restoration for Coring Works, Backfilling, and Compaction", 1, 5},
}

var groupIndex = func() map[GroupName]Group {
	m := make(map[GroupName]Group, len(Groups))
	for _, g := range Groups {
		m[g.Name] = g
	}
	return m
}()

// GroupByName resolves a group name against the closed enumeration.
func GroupByName(name GroupName) (Group, bool) {
	g, ok := groupIndex[name]
	return g, ok
}
