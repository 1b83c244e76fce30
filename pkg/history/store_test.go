package history

import (
	"testing"
	"time"
)

func sampleRecord(id, policy string, at time.Time) *RunRecord {
	return &RunRecord{
		ID:                      id,
		Timestamp:               at,
		Policy:                  policy,
		Grade:                   "B",
		ApprovalRatePct:         70,
		TotalRecords:            100,
		Approved:                70,
		Rejected:                30,
		Overrides:               4,
		MeanRiskScore:           76.5,
		EstimatedDefaultRatePct: 3.2,
		RiskAdjustedReturnPct:   2.4,
		Version:                 "test",
		Tags:                    []string{"nightly"},
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	want := sampleRecord("run-1", "strict", time.Now())
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get("run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Policy != "strict" || got.Approved != 70 {
		t.Errorf("Get = %+v, want saved record", got)
	}

	// Returned record is a copy; mutating it must not touch the store.
	got.Tags[0] = "mutated"
	again, _ := store.Get("run-1")
	if again.Tags[0] != "nightly" {
		t.Error("Get must return a deep copy")
	}

	if _, err := store.Get("missing"); err != ErrRunNotFound {
		t.Errorf("Get(missing) = %v, want ErrRunNotFound", err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(sampleRecord("run-1", "strict", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore(reopen): %v", err)
	}
	if _, err := reopened.Get("run-1"); err != nil {
		t.Errorf("record lost across reopen: %v", err)
	}
}

func TestStoreListFiltersAndSorts(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Save(sampleRecord("run-1", "strict", base))
	store.Save(sampleRecord("run-2", "relaxed", base.Add(time.Hour)))
	store.Save(sampleRecord("run-3", "strict", base.Add(2*time.Hour)))

	records, err := store.List("strict", base.Add(-time.Hour), base.Add(3*time.Hour), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List(strict) = %d records, want 2", len(records))
	}
	if records[0].ID != "run-3" {
		t.Errorf("List must sort newest first, got %s", records[0].ID)
	}

	limited, _ := store.List("", base.Add(-time.Hour), base.Add(3*time.Hour), 1)
	if len(limited) != 1 {
		t.Errorf("List limit = %d records, want 1", len(limited))
	}
}

func TestStoreTrendOldestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Save(sampleRecord("run-1", "strict", base.Add(time.Hour)))
	store.Save(sampleRecord("run-2", "strict", base))

	points, err := store.GetTrend("strict", base.Add(-time.Hour), 0)
	if err != nil {
		t.Fatalf("GetTrend: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("GetTrend = %d points, want 2", len(points))
	}
	if !points[0].Timestamp.Before(points[1].Timestamp) {
		t.Error("trend points must be oldest first")
	}
}

func TestStoreCompare(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	base := sampleRecord("run-1", "strict", time.Now())
	compare := sampleRecord("run-2", "relaxed", time.Now().Add(time.Hour))
	compare.ApprovalRatePct = 80
	compare.EstimatedDefaultRatePct = 2.5 // dropped
	compare.RiskAdjustedReturnPct = 2.6   // held
	store.Save(base)
	store.Save(compare)

	result, err := store.Compare("run-1", "run-2")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.ApprovalRateDelta != 10 {
		t.Errorf("ApprovalRateDelta = %v, want 10", result.ApprovalRateDelta)
	}
	if !result.Improved {
		t.Error("lower default rate with a held return must count as improved")
	}
}

func TestStoreDeleteAndStats(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	store.Save(sampleRecord("run-1", "strict", time.Now()))
	store.Save(sampleRecord("run-2", "relaxed", time.Now()))

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRuns != 2 || stats.UniquePolicies != 2 {
		t.Errorf("Stats = %+v, want 2 runs across 2 policies", stats)
	}

	if err := store.Delete("run-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete("run-1"); err != ErrRunNotFound {
		t.Errorf("second Delete = %v, want ErrRunNotFound", err)
	}
}
