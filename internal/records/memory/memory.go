// Package memory provides an in-memory record store used for local
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
)

type Store struct {
	mu        sync.Mutex
	contacts  map[string]core.Contact
	deals     map[string]core.Deal
	tasks     map[string]core.Task
	profiles  map[string]core.Profile
	snapshots map[string]core.StatsSnapshot
	current   string // id of the signed-in profile
}

func New() *Store {
	return &Store{
		contacts:  make(map[string]core.Contact),
		deals:     make(map[string]core.Deal),
		tasks:     make(map[string]core.Task),
		profiles:  make(map[string]core.Profile),
		snapshots: make(map[string]core.StatsSnapshot),
	}
}

// NewSeeded returns a store with a default admin profile so the settings
// page has something to render before any data is created.
func NewSeeded() *Store {
	s := New()
	p := core.Profile{
		ID:        uuid.NewString(),
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@example.com",
		Role:      core.RoleAdmin,
	}
	s.profiles[p.ID] = p
	s.current = p.ID
	return s
}

func (s *Store) CreateContact(_ context.Context, c core.Contact) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.contacts[c.ID] = c
	return c.ID, nil
}

func (s *Store) UpdateContact(_ context.Context, c core.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.contacts[c.ID]
	if !ok {
		return records.ErrNotFound
	}
	c.CreatedAt = prev.CreatedAt
	s.contacts[c.ID] = c
	return nil
}

func (s *Store) DeleteContact(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return records.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *Store) GetContact(_ context.Context, id string) (core.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return core.Contact{}, records.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListContacts(_ context.Context) ([]core.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	sortByCreated(out, func(c core.Contact) time.Time { return c.CreatedAt })
	return out, nil
}

func (s *Store) CreateDeal(_ context.Context, d core.Deal) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	s.deals[d.ID] = d
	return d.ID, nil
}

func (s *Store) UpdateDeal(_ context.Context, d core.Deal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.deals[d.ID]
	if !ok {
		return records.ErrNotFound
	}
	d.CreatedAt = prev.CreatedAt
	s.deals[d.ID] = d
	return nil
}

func (s *Store) UpdateDealStage(_ context.Context, id string, stage core.DealStage) error {
	if !stage.IsValid() {
		return core.ErrInvalidStage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	if !ok {
		return records.ErrNotFound
	}
	d.Stage = stage
	s.deals[id] = d
	return nil
}

func (s *Store) DeleteDeal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[id]; !ok {
		return records.ErrNotFound
	}
	delete(s.deals, id)
	return nil
}

func (s *Store) GetDeal(_ context.Context, id string) (core.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	if !ok {
		return core.Deal{}, records.ErrNotFound
	}
	return d, nil
}

func (s *Store) ListDeals(_ context.Context) ([]core.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		out = append(out, d)
	}
	sortByCreated(out, func(d core.Deal) time.Time { return d.CreatedAt })
	return out, nil
}

func (s *Store) CreateTask(_ context.Context, t core.Task) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.tasks[t.ID] = t
	return t.ID, nil
}

func (s *Store) UpdateTask(_ context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.tasks[t.ID]
	if !ok {
		return records.ErrNotFound
	}
	t.CreatedAt = prev.CreatedAt
	s.tasks[t.ID] = t
	return nil
}

func (s *Store) UpdateTaskStatus(_ context.Context, id string, status core.TaskStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return records.ErrNotFound
	}
	t.Status = status
	s.tasks[id] = t
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return records.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) GetTask(_ context.Context, id string) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return core.Task{}, records.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTasks(_ context.Context) ([]core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sortByCreated(out, func(t core.Task) time.Time { return t.CreatedAt })
	return out, nil
}

func (s *Store) CurrentProfile(_ context.Context) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[s.current]
	if !ok {
		return core.Profile{}, records.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		return records.ErrNotFound
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap core.StatsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Period] = snap
	return nil
}

func (s *Store) GetSnapshot(_ context.Context, period string) (core.StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[period]
	if !ok {
		return core.StatsSnapshot{}, records.ErrNotFound
	}
	return snap, nil
}

// sortByCreated orders newest first, matching the hosted store's default
// created_at descending ordering.
func sortByCreated[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
