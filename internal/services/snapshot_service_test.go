package services

import (
	"context"
	"testing"
	"time"

	"dealdesk/internal/core"
	"dealdesk/internal/records/memory"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
}

func newTestSnapshotService(store *memory.Store) *SnapshotService {
	svc := NewSnapshotService(store, store, store, store)
	svc.now = fixedNow
	return svc
}

func TestComputeAndStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	seed := []core.Deal{
		{Title: "Paid deal", Value: core.Money{Cents: 100000}, Stage: core.StagePaid},
		{Title: "Open deal", Value: core.Money{Cents: 250000}, Stage: core.StageProposal},
		{Title: "Done deal", Value: core.Money{Cents: 50000}, Stage: core.StageDoneCompleted},
	}
	for _, d := range seed {
		if _, err := store.CreateDeal(ctx, d); err != nil {
			t.Fatalf("CreateDeal: %v", err)
		}
	}

	svc := newTestSnapshotService(store)
	snap, err := svc.ComputeAndStore(ctx)
	if err != nil {
		t.Fatalf("ComputeAndStore: %v", err)
	}

	if snap.Period != "2025-03" {
		t.Errorf("period = %q, want 2025-03", snap.Period)
	}
	if snap.TotalRevenue.Cents != 150000 {
		t.Errorf("total revenue = %d, want 150000", snap.TotalRevenue.Cents)
	}
	if snap.PipelineValue.Cents != 250000 {
		t.Errorf("pipeline = %d, want 250000", snap.PipelineValue.Cents)
	}

	got, err := store.GetSnapshot(ctx, "2025-03")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got.TotalRevenue != snap.TotalRevenue {
		t.Errorf("stored revenue = %d, want %d", got.TotalRevenue.Cents, snap.TotalRevenue.Cents)
	}
}

func TestComputeAndStoreOverwritesSamePeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestSnapshotService(store)

	if _, err := svc.ComputeAndStore(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	if _, err := store.CreateDeal(ctx, core.Deal{Title: "Late deal", Value: core.Money{Cents: 9900}, Stage: core.StagePaid}); err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if _, err := svc.ComputeAndStore(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	got, err := store.GetSnapshot(ctx, "2025-03")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got.TotalRevenue.Cents != 9900 {
		t.Errorf("revenue = %d, want 9900 after overwrite", got.TotalRevenue.Cents)
	}
}

func TestPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestSnapshotService(store)

	// No snapshot recorded yet: nil, no error.
	prior, err := svc.PriorSnapshot(ctx)
	if err != nil {
		t.Fatalf("PriorSnapshot: %v", err)
	}
	if prior != nil {
		t.Fatalf("expected nil prior, got %+v", prior)
	}

	want := core.StatsSnapshot{
		Period:       "2025-02",
		TotalRevenue: core.Money{Cents: 42000},
		TakenAt:      time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC),
	}
	if err := store.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	prior, err = svc.PriorSnapshot(ctx)
	if err != nil {
		t.Fatalf("PriorSnapshot: %v", err)
	}
	if prior == nil || prior.TotalRevenue.Cents != 42000 {
		t.Errorf("prior = %+v, want revenue 42000", prior)
	}
}
