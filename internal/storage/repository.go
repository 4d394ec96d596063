// Package storage implements the record store ports on a local SQLite
// database. It also keeps the sync queue state used by the export worker.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
)

// Sync queue states for deals awaiting export.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type Repository struct {
	db *sql.DB
}

// PendingSyncDeal is the minimal row needed for a sync queue message.
type PendingSyncDeal struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateContact implements records.ContactStore.
func (r *Repository) CreateContact(ctx context.Context, c core.Contact) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, phone, company, position, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Company, c.Position, c.Notes)
	if err != nil {
		return "", fmt.Errorf("insert contact: %w", err)
	}
	slog.InfoContext(ctx, "Contact saved", "id", c.ID, "name", c.Name)
	return c.ID, nil
}

func (r *Repository) UpdateContact(ctx context.Context, c core.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET name = ?, email = ?, phone = ?, company = ?, position = ?, notes = ?
		WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Company, c.Position, c.Notes, c.ID)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) DeleteContact(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) GetContact(ctx context.Context, id string) (core.Contact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, company, position, notes, created_at
		FROM contacts WHERE id = ?`, id)
	return scanContact(row)
}

func (r *Repository) ListContacts(ctx context.Context) ([]core.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, company, position, notes, created_at
		FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []core.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateDeal implements records.DealStore. New deals enter the sync queue
// as pending so the export worker picks them up.
func (r *Repository) CreateDeal(ctx context.Context, d core.Deal) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deals (id, title, description, value_cents, stage, tier, contact_id, assigned_to, expected_close)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Description, d.Value.Cents, string(d.Stage),
		nullTier(d.Tier), nullStr(d.ContactID), nullStr(d.AssignedTo), nullTime(d.ExpectedClose))
	if err != nil {
		return "", fmt.Errorf("insert deal: %w", err)
	}
	slog.InfoContext(ctx, "Deal saved", "id", d.ID, "title", d.Title,
		"stage", string(d.Stage), "value_cents", d.Value.Cents)
	return d.ID, nil
}

func (r *Repository) UpdateDeal(ctx context.Context, d core.Deal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE deals SET title = ?, description = ?, value_cents = ?, stage = ?, tier = ?,
			contact_id = ?, assigned_to = ?, expected_close = ?,
			version = version + 1, sync_status = ?
		WHERE id = ?`,
		d.Title, d.Description, d.Value.Cents, string(d.Stage), nullTier(d.Tier),
		nullStr(d.ContactID), nullStr(d.AssignedTo), nullTime(d.ExpectedClose),
		SyncPending, d.ID)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) UpdateDealStage(ctx context.Context, id string, stage core.DealStage) error {
	if !stage.IsValid() {
		return core.ErrInvalidStage
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE deals SET stage = ?, version = version + 1, sync_status = ? WHERE id = ?`,
		string(stage), SyncPending, id)
	if err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) DeleteDeal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) GetDeal(ctx context.Context, id string) (core.Deal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, value_cents, stage, tier, contact_id, assigned_to, expected_close, created_at
		FROM deals WHERE id = ?`, id)
	return scanDeal(row)
}

func (r *Repository) ListDeals(ctx context.Context) ([]core.Deal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, value_cents, stage, tier, contact_id, assigned_to, expected_close, created_at
		FROM deals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var out []core.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateTask implements records.TaskStore.
func (r *Repository) CreateTask(ctx context.Context, t core.Task) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, assigned_to, contact_id, deal_id, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nullStr(t.AssignedTo), nullStr(t.ContactID), nullStr(t.DealID), nullTime(t.DueDate))
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return t.ID, nil
}

func (r *Repository) UpdateTask(ctx context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
			assigned_to = ?, contact_id = ?, deal_id = ?, due_date = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Status), string(t.Priority),
		nullStr(t.AssignedTo), nullStr(t.ContactID), nullStr(t.DealID), nullTime(t.DueDate), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status core.TaskStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidStatus
	}
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) GetTask(ctx context.Context, id string) (core.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, assigned_to, contact_id, deal_id, due_date, created_at
		FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *Repository) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, assigned_to, contact_id, deal_id, due_date, created_at
		FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CurrentProfile implements records.ProfileStore.
func (r *Repository) CurrentProfile(ctx context.Context) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, avatar_url, role
		FROM profiles WHERE is_current = 1 LIMIT 1`)
	return scanProfile(row)
}

func (r *Repository) UpdateProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET first_name = ?, last_name = ?, email = ?, avatar_url = ?, role = ?
		WHERE id = ?`,
		p.FirstName, p.LastName, p.Email, p.AvatarURL, string(p.Role), p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, avatar_url, role
		FROM profiles ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveSnapshot implements records.SnapshotStore. Saving the same period
// twice overwrites, so the snapshot worker can safely re-run.
func (r *Repository) SaveSnapshot(ctx context.Context, s core.StatsSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stats_snapshots (period, total_revenue_cents, paid_cents, completed_cents, cancelled_cents, pipeline_cents, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET
			total_revenue_cents = excluded.total_revenue_cents,
			paid_cents = excluded.paid_cents,
			completed_cents = excluded.completed_cents,
			cancelled_cents = excluded.cancelled_cents,
			pipeline_cents = excluded.pipeline_cents,
			taken_at = excluded.taken_at`,
		s.Period, s.TotalRevenue.Cents, s.PaidDealsValue.Cents, s.CompletedDealsValue.Cents,
		s.CancelledDealsValue.Cents, s.PipelineValue.Cents, s.TakenAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Stats snapshot saved", "period", s.Period,
		"revenue_cents", s.TotalRevenue.Cents)
	return nil
}

func (r *Repository) GetSnapshot(ctx context.Context, period string) (core.StatsSnapshot, error) {
	var s core.StatsSnapshot
	err := r.db.QueryRowContext(ctx, `
		SELECT period, total_revenue_cents, paid_cents, completed_cents, cancelled_cents, pipeline_cents, taken_at
		FROM stats_snapshots WHERE period = ?`, period).Scan(
		&s.Period, &s.TotalRevenue.Cents, &s.PaidDealsValue.Cents, &s.CompletedDealsValue.Cents,
		&s.CancelledDealsValue.Cents, &s.PipelineValue.Cents, &s.TakenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StatsSnapshot{}, records.ErrNotFound
	}
	if err != nil {
		return core.StatsSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

// GetPendingSyncDeals returns deals awaiting export, oldest first.
func (r *Repository) GetPendingSyncDeals(ctx context.Context, limit int) ([]PendingSyncDeal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM deals
		WHERE sync_status = ? ORDER BY created_at LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync deals: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncDeal
	for rows.Next() {
		var p PendingSyncDeal
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync deal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a deal as successfully exported.
func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE deals SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark deal synced: %w", err)
	}
	return nil
}

// MarkSyncError marks a deal as having failed export.
func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE deals SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark deal sync error: %w", err)
	}
	slog.WarnContext(ctx, "Deal marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (core.Contact, error) {
	var c core.Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Position, &c.Notes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contact{}, records.ErrNotFound
	}
	if err != nil {
		return core.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}

func scanDeal(row rowScanner) (core.Deal, error) {
	var (
		d        core.Deal
		tier     sql.NullString
		contact  sql.NullString
		assigned sql.NullString
		closes   sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Value.Cents, &d.Stage,
		&tier, &contact, &assigned, &closes, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Deal{}, records.ErrNotFound
	}
	if err != nil {
		return core.Deal{}, fmt.Errorf("scan deal: %w", err)
	}
	if tier.Valid {
		d.Tier = core.DealTier(tier.String)
	}
	d.ContactID = strPtr(contact)
	d.AssignedTo = strPtr(assigned)
	d.ExpectedClose = timePtr(closes)
	return d, nil
}

func scanTask(row rowScanner) (core.Task, error) {
	var (
		t        core.Task
		assigned sql.NullString
		contact  sql.NullString
		deal     sql.NullString
		due      sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&assigned, &contact, &deal, &due, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Task{}, records.ErrNotFound
	}
	if err != nil {
		return core.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.AssignedTo = strPtr(assigned)
	t.ContactID = strPtr(contact)
	t.DealID = strPtr(deal)
	t.DueDate = timePtr(due)
	return t, nil
}

func scanProfile(row rowScanner) (core.Profile, error) {
	var p core.Profile
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.AvatarURL, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, records.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func nullTier(t core.DealTier) any {
	if t == "" {
		return nil
	}
	return string(t)
}

func nullStr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
