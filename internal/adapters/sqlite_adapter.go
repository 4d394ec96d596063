package adapters

import (
	"context"

	"dealdesk/internal/core"
	"dealdesk/internal/services"
	"dealdesk/internal/storage"
)

// SQLiteAdapter adapts Repository and DealService to the records.* port
// interfaces. Deal mutations route through the service so every write
// enqueues an export sync message; everything else hits storage directly.
type SQLiteAdapter struct {
	storage *storage.Repository
	deals   *services.DealService
}

func NewSQLiteAdapter(storage *storage.Repository, deals *services.DealService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		deals:   deals,
	}
}

// Contacts

func (a *SQLiteAdapter) CreateContact(ctx context.Context, c core.Contact) (string, error) {
	return a.storage.CreateContact(ctx, c)
}

func (a *SQLiteAdapter) UpdateContact(ctx context.Context, c core.Contact) error {
	return a.storage.UpdateContact(ctx, c)
}

func (a *SQLiteAdapter) DeleteContact(ctx context.Context, id string) error {
	return a.storage.DeleteContact(ctx, id)
}

func (a *SQLiteAdapter) GetContact(ctx context.Context, id string) (core.Contact, error) {
	return a.storage.GetContact(ctx, id)
}

func (a *SQLiteAdapter) ListContacts(ctx context.Context) ([]core.Contact, error) {
	return a.storage.ListContacts(ctx)
}

// Deals route through DealService so writes publish sync messages.

func (a *SQLiteAdapter) CreateDeal(ctx context.Context, d core.Deal) (string, error) {
	return a.deals.CreateDeal(ctx, d)
}

func (a *SQLiteAdapter) UpdateDeal(ctx context.Context, d core.Deal) error {
	return a.deals.UpdateDeal(ctx, d)
}

func (a *SQLiteAdapter) UpdateDealStage(ctx context.Context, id string, stage core.DealStage) error {
	return a.deals.UpdateStage(ctx, id, stage)
}

func (a *SQLiteAdapter) DeleteDeal(ctx context.Context, id string) error {
	return a.deals.DeleteDeal(ctx, id)
}

func (a *SQLiteAdapter) GetDeal(ctx context.Context, id string) (core.Deal, error) {
	return a.storage.GetDeal(ctx, id)
}

func (a *SQLiteAdapter) ListDeals(ctx context.Context) ([]core.Deal, error) {
	return a.storage.ListDeals(ctx)
}

// Tasks

func (a *SQLiteAdapter) CreateTask(ctx context.Context, t core.Task) (string, error) {
	return a.storage.CreateTask(ctx, t)
}

func (a *SQLiteAdapter) UpdateTask(ctx context.Context, t core.Task) error {
	return a.storage.UpdateTask(ctx, t)
}

func (a *SQLiteAdapter) UpdateTaskStatus(ctx context.Context, id string, status core.TaskStatus) error {
	return a.storage.UpdateTaskStatus(ctx, id, status)
}

func (a *SQLiteAdapter) DeleteTask(ctx context.Context, id string) error {
	return a.storage.DeleteTask(ctx, id)
}

func (a *SQLiteAdapter) GetTask(ctx context.Context, id string) (core.Task, error) {
	return a.storage.GetTask(ctx, id)
}

func (a *SQLiteAdapter) ListTasks(ctx context.Context) ([]core.Task, error) {
	return a.storage.ListTasks(ctx)
}

// Profiles

func (a *SQLiteAdapter) CurrentProfile(ctx context.Context) (core.Profile, error) {
	return a.storage.CurrentProfile(ctx)
}

func (a *SQLiteAdapter) UpdateProfile(ctx context.Context, p core.Profile) error {
	return a.storage.UpdateProfile(ctx, p)
}

func (a *SQLiteAdapter) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	return a.storage.ListProfiles(ctx)
}

// Snapshots

func (a *SQLiteAdapter) SaveSnapshot(ctx context.Context, s core.StatsSnapshot) error {
	return a.storage.SaveSnapshot(ctx, s)
}

func (a *SQLiteAdapter) GetSnapshot(ctx context.Context, period string) (core.StatsSnapshot, error) {
	return a.storage.GetSnapshot(ctx, period)
}
