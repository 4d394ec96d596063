// Package records defines the ports through which the application talks to
// its record store. Adapters (sqlite, memory) implement these interfaces;
// handlers and services depend only on the ports.
package records

import (
	"context"
	"errors"

	"dealdesk/internal/core"
)

// ErrNotFound is returned by any store when the requested row is absent.
var ErrNotFound = errors.New("record not found")

type (
	ContactStore interface {
		CreateContact(ctx context.Context, c core.Contact) (string, error)
		UpdateContact(ctx context.Context, c core.Contact) error
		DeleteContact(ctx context.Context, id string) error
		GetContact(ctx context.Context, id string) (core.Contact, error)
		ListContacts(ctx context.Context) ([]core.Contact, error)
	}

	DealStore interface {
		CreateDeal(ctx context.Context, d core.Deal) (string, error)
		UpdateDeal(ctx context.Context, d core.Deal) error
		// UpdateDealStage moves a deal through the pipeline without touching
		// the rest of the row.
		UpdateDealStage(ctx context.Context, id string, stage core.DealStage) error
		DeleteDeal(ctx context.Context, id string) error
		GetDeal(ctx context.Context, id string) (core.Deal, error)
		ListDeals(ctx context.Context) ([]core.Deal, error)
	}

	TaskStore interface {
		CreateTask(ctx context.Context, t core.Task) (string, error)
		UpdateTask(ctx context.Context, t core.Task) error
		UpdateTaskStatus(ctx context.Context, id string, status core.TaskStatus) error
		DeleteTask(ctx context.Context, id string) error
		GetTask(ctx context.Context, id string) (core.Task, error)
		ListTasks(ctx context.Context) ([]core.Task, error)
	}

	// ProfileStore covers the settings page: the signed-in profile plus the
	// assignable-user list rendered into deal and task forms.
	ProfileStore interface {
		CurrentProfile(ctx context.Context) (core.Profile, error)
		UpdateProfile(ctx context.Context, p core.Profile) error
		ListProfiles(ctx context.Context) ([]core.Profile, error)
	}

	// SnapshotStore persists month-end aggregates for month-over-month
	// comparisons. GetSnapshot returns ErrNotFound when no snapshot exists
	// for the period, which the dashboard treats as "no comparison".
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, s core.StatsSnapshot) error
		GetSnapshot(ctx context.Context, period string) (core.StatsSnapshot, error)
	}
)
