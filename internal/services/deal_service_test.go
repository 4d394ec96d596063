package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
	"dealdesk/internal/storage"
)

func newTestDealService(t *testing.T) (*DealService, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "dealdesk.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	// nil AMQP client: sync messages are best-effort and skipped.
	return NewDealService(repo, nil), repo
}

func TestDealServiceCreateWithoutAMQP(t *testing.T) {
	svc, repo := newTestDealService(t)
	ctx := context.Background()

	id, err := svc.CreateDeal(ctx, core.Deal{
		Title: "Acme renewal",
		Value: core.Money{Cents: 100000},
		Stage: core.StageLead,
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if id == "" {
		t.Fatal("CreateDeal returned empty id")
	}

	deal, err := repo.GetDeal(ctx, id)
	if err != nil {
		t.Fatalf("GetDeal: %v", err)
	}
	if deal.Title != "Acme renewal" || deal.Stage != core.StageLead {
		t.Errorf("deal = %+v", deal)
	}
}

func TestDealServiceUpdateStage(t *testing.T) {
	svc, repo := newTestDealService(t)
	ctx := context.Background()

	id, err := svc.CreateDeal(ctx, core.Deal{
		Title: "Pilot",
		Value: core.Money{Cents: 5000},
		Stage: core.StageLead,
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	if err := svc.UpdateStage(ctx, id, core.StagePaid); err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	deal, err := repo.GetDeal(ctx, id)
	if err != nil {
		t.Fatalf("GetDeal: %v", err)
	}
	if deal.Stage != core.StagePaid {
		t.Errorf("stage = %s, want paid", deal.Stage)
	}
}

func TestDealServiceDelete(t *testing.T) {
	svc, repo := newTestDealService(t)
	ctx := context.Background()

	id, err := svc.CreateDeal(ctx, core.Deal{
		Title: "Gone soon",
		Value: core.Money{Cents: 1},
		Stage: core.StageLead,
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	if err := svc.DeleteDeal(ctx, id); err != nil {
		t.Fatalf("DeleteDeal: %v", err)
	}
	if _, err := repo.GetDeal(ctx, id); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("GetDeal after delete = %v, want ErrNotFound", err)
	}
}

func TestDealServiceCloseNilComponents(t *testing.T) {
	svc := NewDealService(nil, nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close with nil components: %v", err)
	}
}
