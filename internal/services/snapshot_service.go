package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
)

// SnapshotService persists end-of-period aggregates so the dashboard can
// show month-over-month change metrics.
type SnapshotService struct {
	deals     records.DealStore
	tasks     records.TaskStore
	contacts  records.ContactStore
	snapshots records.SnapshotStore
	now       func() time.Time
}

func NewSnapshotService(deals records.DealStore, tasks records.TaskStore, contacts records.ContactStore, snapshots records.SnapshotStore) *SnapshotService {
	return &SnapshotService{
		deals:     deals,
		tasks:     tasks,
		contacts:  contacts,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// ComputeAndStore aggregates the current data set and upserts the snapshot
// for the current period. Safe to run repeatedly; later runs within the
// same period overwrite earlier ones.
func (s *SnapshotService) ComputeAndStore(ctx context.Context) (core.StatsSnapshot, error) {
	deals, err := s.deals.ListDeals(ctx)
	if err != nil {
		return core.StatsSnapshot{}, fmt.Errorf("list deals: %w", err)
	}
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return core.StatsSnapshot{}, fmt.Errorf("list tasks: %w", err)
	}
	contacts, err := s.contacts.ListContacts(ctx)
	if err != nil {
		return core.StatsSnapshot{}, fmt.Errorf("list contacts: %w", err)
	}

	now := s.now()
	stats := core.ComputeStats(deals, tasks, contacts, nil)
	snap := stats.Snapshot(core.PeriodKey(now), now)

	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		return core.StatsSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// PriorSnapshot returns the previous period's snapshot, or nil when none
// has been recorded yet.
func (s *SnapshotService) PriorSnapshot(ctx context.Context) (*core.StatsSnapshot, error) {
	snap, err := s.snapshots.GetSnapshot(ctx, core.PriorPeriodKey(s.now()))
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snap, nil
}
