package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sbstruc/reportr/internal/report"
)

func newRepo(t *testing.T, maxSessionBytes int64) *FS {
	t.Helper()
	r, err := NewFS(t.TempDir(), t.TempDir(), maxSessionBytes)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return r
}

func testFields() *report.FormFields {
	return &report.FormFields{
		BuildingDetails: report.BuildingDetails{
			TestingDate:      "2026-02",
			BuildingName:     "Acacia Residences",
			BuildingLocation: "Quezon City",
			NumberOfStorey:   3,
		},
		Superstructure: report.Superstructure{
			RebarScanning:          report.RebarScanning{NumberOfRebarScanLocations: 10},
			ReboundHammerTest:      report.ReboundHammerTest{NumberOfReboundHammerTestLocations: 8},
			ConcreteCoreExtraction: report.ConcreteCoreExtraction{NumberOfCoringLocations: 4},
			RebarExtraction:        report.RebarExtraction{NumberOfRebarSamplesExtracted: 2},
			RestorationWorks: report.RestorationWorks{
				NonShrinkGroutProductUsed: "Sika Grout 214-11",
				EpoxyABUsed:               "Sikadur-31",
			},
		},
		Substructure: report.Substructure{
			ConcreteCoreExtraction: report.FoundationCoreExtraction{
				NumberOfFoundationLocations:      2,
				NumberOfFoundationCoresExtracted: 2,
			},
		},
		Signature: report.Signature{
			PreparedBy:     "Juan Dela Cruz",
			PreparedByRole: "Civil Engineer",
		},
	}
}

func uploadTo(t *testing.T, r *FS, id string, group report.GroupName, data []byte) *report.ImageMeta {
	t.Helper()
	meta, err := r.SaveImage(context.Background(), id, SaveImage{
		Group:            group,
		Data:             data,
		Extension:        ".jpg",
		OriginalFilename: "photo.jpg",
		Width:            800,
		Height:           600,
	})
	if err != nil {
		t.Fatalf("SaveImage(%s): %v", group, err)
	}
	return meta
}

// completeSession builds a session that satisfies the generation guard.
func completeSession(t *testing.T, r *FS) *report.Session {
	t.Helper()
	ctx := context.Background()
	s, err := r.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := r.SaveFormFields(ctx, s.ID, testFields()); err != nil {
		t.Fatalf("SaveFormFields: %v", err)
	}
	for _, g := range report.Groups {
		for i := 0; i < g.Min; i++ {
			uploadTo(t, r, s.ID, g.Name, []byte("jpegdata"))
		}
	}
	s, err = r.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	r := newRepo(t, 1<<20)
	ctx := context.Background()

	s, err := r.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Status != report.StatusDraft {
		t.Fatalf("new session status = %q, want draft", s.Status)
	}

	got, err := r.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != s.ID || got.Status != report.StatusDraft {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestGetSessionRejectsMalformedID(t *testing.T) {
	r := newRepo(t, 1<<20)
	for _, id := range []string{"", "nope", "../../etc/passwd", "a/b"} {
		if _, err := r.GetSession(context.Background(), id); !errors.Is(err, report.ErrNotFound) {
			t.Errorf("GetSession(%q) = %v, want ErrNotFound", id, err)
		}
	}
}

func TestSaveImageGroupCapacity(t *testing.T) {
	r := newRepo(t, 1<<20)
	s, _ := r.CreateSession(context.Background())

	// building photo allows exactly one
	uploadTo(t, r, s.ID, report.GroupBuildingPhoto, []byte("one"))
	_, err := r.SaveImage(context.Background(), s.ID, SaveImage{
		Group: report.GroupBuildingPhoto, Data: []byte("two"), Extension: ".jpg",
	})
	if !errors.Is(err, report.ErrCapacityExceeded) {
		t.Fatalf("second building photo: %v, want ErrCapacityExceeded", err)
	}

	got, _ := r.GetSession(context.Background(), s.ID)
	if got.GroupCount(report.GroupBuildingPhoto) != 1 {
		t.Fatalf("group count = %d after rejection, want 1", got.GroupCount(report.GroupBuildingPhoto))
	}
}

func TestSaveImageSessionQuota(t *testing.T) {
	r := newRepo(t, 10)
	s, _ := r.CreateSession(context.Background())

	uploadTo(t, r, s.ID, report.GroupRebarScanning, []byte("12345678"))
	_, err := r.SaveImage(context.Background(), s.ID, SaveImage{
		Group: report.GroupRebarScanning, Data: []byte("12345678"), Extension: ".jpg",
	})
	if !errors.Is(err, report.ErrQuotaExceeded) {
		t.Fatalf("over-budget upload: %v, want ErrQuotaExceeded", err)
	}
}

func TestCheckQuota(t *testing.T) {
	r := newRepo(t, 10)
	s, _ := r.CreateSession(context.Background())
	ctx := context.Background()

	if err := r.CheckQuota(ctx, s.ID, 8); err != nil {
		t.Fatalf("CheckQuota under budget: %v", err)
	}
	if err := r.CheckQuota(ctx, s.ID, 11); !errors.Is(err, report.ErrQuotaExceeded) {
		t.Fatalf("CheckQuota over budget: %v, want ErrQuotaExceeded", err)
	}

	uploadTo(t, r, s.ID, report.GroupRebarScanning, []byte("12345678"))
	if err := r.CheckQuota(ctx, s.ID, 3); !errors.Is(err, report.ErrQuotaExceeded) {
		t.Fatalf("CheckQuota with stored bytes counted: %v, want ErrQuotaExceeded", err)
	}
	if err := r.CheckQuota(ctx, "not-a-uuid", 1); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("CheckQuota on bad id: %v, want ErrNotFound", err)
	}
}

func TestSaveImageUnknownGroup(t *testing.T) {
	r := newRepo(t, 1<<20)
	s, _ := r.CreateSession(context.Background())
	_, err := r.SaveImage(context.Background(), s.ID, SaveImage{
		Group: "basement_photos", Data: []byte("x"), Extension: ".jpg",
	})
	if !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("unknown group: %v, want ErrNotFound", err)
	}
}

func TestSaveImageBytesOnDisk(t *testing.T) {
	r := newRepo(t, 1<<20)
	s, _ := r.CreateSession(context.Background())
	data := []byte("jpeg-bytes-here")

	meta := uploadTo(t, r, s.ID, report.GroupRebarScanning, data)
	stored, err := os.ReadFile(r.ImagePath(s.ID, report.GroupRebarScanning, meta.StoredFilename))
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Fatal("stored bytes differ from upload")
	}
	if meta.SizeBytes != int64(len(data)) {
		t.Fatalf("meta size = %d, want %d", meta.SizeBytes, len(data))
	}
}

func TestMutationsRequireDraft(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)
	ctx := context.Background()

	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}

	var stateErr *report.InvalidStateError
	if _, err := r.SaveFormFields(ctx, s.ID, testFields()); !errors.As(err, &stateErr) {
		t.Fatalf("SaveFormFields while generating: %v, want InvalidStateError", err)
	}
	_, err := r.SaveImage(ctx, s.ID, SaveImage{Group: report.GroupRestoration, Data: []byte("x"), Extension: ".jpg"})
	if !errors.As(err, &stateErr) {
		t.Fatalf("SaveImage while generating: %v, want InvalidStateError", err)
	}
}

func TestBeginGenerationIncomplete(t *testing.T) {
	r := newRepo(t, 1<<20)
	s, _ := r.CreateSession(context.Background())

	var incErr *report.IncompleteError
	_, err := r.BeginGeneration(context.Background(), s.ID, false)
	if !errors.As(err, &incErr) {
		t.Fatalf("BeginGeneration on empty session: %v, want IncompleteError", err)
	}
	if len(incErr.Missing.Groups) != len(report.Groups) {
		t.Fatalf("missing groups = %d, want %d", len(incErr.Missing.Groups), len(report.Groups))
	}

	// the rejection must not move the session out of draft
	got, _ := r.GetSession(context.Background(), s.ID)
	if got.Status != report.StatusDraft {
		t.Fatalf("status after rejected admission = %q, want draft", got.Status)
	}
}

func TestBeginGenerationConflict(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)
	ctx := context.Background()

	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("first BeginGeneration: %v", err)
	}
	var conflict *report.ConflictError
	if _, err := r.BeginGeneration(ctx, s.ID, false); !errors.As(err, &conflict) {
		t.Fatalf("second BeginGeneration: %v, want ConflictError", err)
	}
}

func TestBeginGenerationConcurrentExactlyOne(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.BeginGeneration(context.Background(), s.ID, false)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		var conflict *report.ConflictError
		switch {
		case err == nil:
			wins++
		case errors.As(err, &conflict):
		default:
			t.Fatalf("unexpected race outcome: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("admissions = %d, want exactly 1", wins)
	}
}

func TestGenerationLifecycle(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)
	ctx := context.Background()
	pdf := []byte("%PDF-1.7 fake")

	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	done, err := r.CompleteGeneration(ctx, s.ID, pdf)
	if err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}
	if done.Status != report.StatusCompleted || done.PDFPath == "" {
		t.Fatalf("completed session: %+v", done)
	}

	path, err := r.ArtifactPath(ctx, s.ID)
	if err != nil {
		t.Fatalf("ArtifactPath: %v", err)
	}
	stored, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(stored, pdf) {
		t.Fatalf("artifact mismatch: %v", err)
	}

	// completed without force: no regeneration
	if _, err := r.BeginGeneration(ctx, s.ID, false); !errors.Is(err, report.ErrAlreadyCompleted) {
		t.Fatalf("regenerate without force: %v, want ErrAlreadyCompleted", err)
	}
	// force re-enters generating
	again, err := r.BeginGeneration(ctx, s.ID, true)
	if err != nil {
		t.Fatalf("forced BeginGeneration: %v", err)
	}
	if again.Status != report.StatusGenerating {
		t.Fatalf("forced status = %q, want generating", again.Status)
	}
}

func TestFailGenerationRevertsToDraft(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)
	ctx := context.Background()

	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	reverted, err := r.FailGeneration(ctx, s.ID)
	if err != nil {
		t.Fatalf("FailGeneration: %v", err)
	}
	if reverted.Status != report.StatusDraft {
		t.Fatalf("status after revert = %q, want draft", reverted.Status)
	}
	// images survive the failed attempt
	if reverted.GroupCount(report.GroupRebarScanning) == 0 {
		t.Fatal("images lost across failed generation")
	}
}

func TestRecoverStaleSessions(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)
	ctx := context.Background()

	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}

	n, err := r.RecoverStaleSessions(ctx)
	if err != nil {
		t.Fatalf("RecoverStaleSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("recovered = %d, want 1", n)
	}
	got, _ := r.GetSession(ctx, s.ID)
	if got.Status != report.StatusDraft {
		t.Fatalf("status after recovery = %q, want draft", got.Status)
	}
}

func TestCleanupExpiredKeepsCompleted(t *testing.T) {
	r := newRepo(t, 1<<20)
	ctx := context.Background()

	draft, _ := r.CreateSession(ctx)

	done := completeSession(t, r)
	if _, err := r.BeginGeneration(ctx, done.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if _, err := r.CompleteGeneration(ctx, done.ID, []byte("%PDF-1.7")); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	removed, err := r.CleanupExpired(ctx, time.Nanosecond)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := r.GetSession(ctx, draft.ID); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("expired draft still readable: %v", err)
	}
	if _, err := r.GetSession(ctx, done.ID); err != nil {
		t.Fatalf("completed session swept: %v", err)
	}
}

func TestCleanupExpiredReclaimsStaleArtifacts(t *testing.T) {
	r := newRepo(t, 1<<20)
	ctx := context.Background()

	// completed session whose forced regeneration failed: back in draft
	// with the earlier artifact still on disk
	s := completeSession(t, r)
	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if _, err := r.CompleteGeneration(ctx, s.ID, []byte("%PDF-1.7")); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}
	if _, err := r.BeginGeneration(ctx, s.ID, true); err != nil {
		t.Fatalf("forced BeginGeneration: %v", err)
	}
	if _, err := r.FailGeneration(ctx, s.ID); err != nil {
		t.Fatalf("FailGeneration: %v", err)
	}
	path, err := r.ArtifactPath(ctx, s.ID)
	if err != nil {
		t.Fatalf("ArtifactPath: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	removed, err := r.CleanupExpired(ctx, time.Nanosecond)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale artifact survived the sweep: %v", err)
	}
	r.mu.Lock()
	_, held := r.locks[s.ID]
	r.mu.Unlock()
	if held {
		t.Fatal("swept session still holds a lock map entry")
	}
}

func TestDeleteSessionRemovesEverything(t *testing.T) {
	r := newRepo(t, 1<<20)
	s := completeSession(t, r)
	ctx := context.Background()

	if _, err := r.BeginGeneration(ctx, s.ID, false); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if _, err := r.CompleteGeneration(ctx, s.ID, []byte("%PDF-1.7")); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}
	path, _ := r.ArtifactPath(ctx, s.ID)

	if err := r.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := r.GetSession(ctx, s.ID); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("session still readable after delete: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("artifact still on disk after delete: %v", err)
	}
	r.mu.Lock()
	_, held := r.locks[s.ID]
	r.mu.Unlock()
	if held {
		t.Fatal("deleted session still holds a lock map entry")
	}
}
