package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"dealdesk/internal/core"
	"dealdesk/internal/records/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewSeeded()
	srv := NewServer(":0", store)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	return srv, store
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestPagesAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/", "/contacts", "/deals", "/tasks", "/settings", "/healthz", "/readyz"} {
		rr := get(srv, path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}

	if body := get(srv, "/").Body.String(); !strings.Contains(body, "Dashboard") {
		t.Error("index body missing Dashboard heading")
	}

	// The root handler owns only "/" exactly.
	if rr := get(srv, "/no-such-page"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rr.Code)
	}
}

func TestCreateContactValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer(t)

	// Wrong method
	if rr := get(srv, "/contacts/create"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Missing name
	rr := postForm(srv, "/contacts/create", url.Values{"email": {"a@b.com"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Bad email
	rr = postForm(srv, "/contacts/create", url.Values{"name": {"Ada"}, "email": {"not-an-email"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Success
	rr = postForm(srv, "/contacts/create", url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"ada@example.com"},
		"company": {"Analytical Engines"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "contact:changed") {
		t.Errorf("HX-Trigger missing contact:changed: %s", trigger)
	}

	// The list partial should now show the contact.
	body := get(srv, "/ui/contacts/list").Body.String()
	if !strings.Contains(body, "Ada Lovelace") {
		t.Errorf("contact list missing created contact: %s", body)
	}
}

func TestContactListSearch(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	for _, c := range []core.Contact{
		{Name: "Grace Hopper", Email: "grace@navy.mil", Company: "Navy"},
		{Name: "Alan Kay", Email: "alan@parc.com", Company: "PARC"},
	} {
		if _, err := store.CreateContact(ctx, c); err != nil {
			t.Fatalf("seed contact: %v", err)
		}
	}

	body := get(srv, "/ui/contacts/list?q=parc").Body.String()
	if !strings.Contains(body, "Alan Kay") {
		t.Errorf("search result missing match: %s", body)
	}
	if strings.Contains(body, "Grace Hopper") {
		t.Errorf("search result contains non-match: %s", body)
	}
}

func TestCreateDealAndDashboard(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := postForm(srv, "/deals/create", url.Values{
		"title": {"Enterprise rollout"},
		"value": {"1500.00"},
		"stage": {"paid"},
		"tier":  {"enterprise"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("deal create status = %d: %s", rr.Code, rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "deal:changed") {
		t.Errorf("HX-Trigger missing deal:changed: %s", trigger)
	}

	// Paid deals count toward total revenue on the dashboard.
	body := get(srv, "/ui/dashboard/summary").Body.String()
	if !strings.Contains(body, "$1500.00") {
		t.Errorf("summary missing paid revenue: %s", body)
	}

	// And the revenue chart should carry a paid segment.
	chart := get(srv, "/ui/dashboard/revenue").Body.String()
	if !strings.Contains(chart, "conic-gradient") {
		t.Errorf("revenue chart missing gradient: %s", chart)
	}
	if !strings.Contains(chart, "100.0%") {
		t.Errorf("single paid deal should be 100.0%% of revenue: %s", chart)
	}
}

func TestDashboardCacheInvalidatedOnWrite(t *testing.T) {
	srv, _ := newTestServer(t)

	// Prime the stats cache.
	before := get(srv, "/ui/dashboard/summary").Body.String()
	if !strings.Contains(before, "$0.00") {
		t.Fatalf("expected empty dashboard, got: %s", before)
	}

	rr := postForm(srv, "/deals/create", url.Values{
		"title": {"Cache buster"},
		"value": {"42.00"},
		"stage": {"paid"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("deal create status = %d", rr.Code)
	}

	after := get(srv, "/ui/dashboard/summary").Body.String()
	if !strings.Contains(after, "$42.00") {
		t.Errorf("dashboard served stale cached stats: %s", after)
	}
}

func TestMoveDealStage(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	id, err := store.CreateDeal(ctx, core.Deal{
		Title: "Pilot project",
		Value: core.Money{Cents: 50000},
		Stage: core.StageLead,
	})
	if err != nil {
		t.Fatalf("seed deal: %v", err)
	}

	// Unknown stage is rejected.
	rr := postForm(srv, "/deals/stage", url.Values{"id": {id}, "stage": {"bogus"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad stage, got %d", rr.Code)
	}

	// Unknown deal is a 404.
	rr = postForm(srv, "/deals/stage", url.Values{"id": {"nope"}, "stage": {"paid"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown deal, got %d", rr.Code)
	}

	rr = postForm(srv, "/deals/stage", url.Values{"id": {id}, "stage": {"proposal"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("stage move status = %d: %s", rr.Code, rr.Body.String())
	}

	moved, err := store.GetDeal(ctx, id)
	if err != nil {
		t.Fatalf("reload deal: %v", err)
	}
	if moved.Stage != core.StageProposal {
		t.Errorf("stage = %s, want proposal", moved.Stage)
	}
}

func TestTaskStatusToggle(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	id, err := store.CreateTask(ctx, core.Task{
		Title:    "Follow up call",
		Status:   core.TaskPending,
		Priority: core.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	rr := postForm(srv, "/tasks/status", url.Values{"id": {id}, "status": {"completed"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status toggle = %d: %s", rr.Code, rr.Body.String())
	}

	task, err := store.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if task.Status != core.TaskCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}

	body := get(srv, "/ui/tasks/list?status=completed").Body.String()
	if !strings.Contains(body, "Follow up call") {
		t.Errorf("completed filter missing task: %s", body)
	}
	if other := get(srv, "/ui/tasks/list?status=pending").Body.String(); strings.Contains(other, "Follow up call") {
		t.Errorf("pending filter should not list completed task: %s", other)
	}
}

func TestUpdateProfile(t *testing.T) {
	srv, store := newTestServer(t)

	rr := postForm(srv, "/settings/profile", url.Values{
		"first_name": {"Margaret"},
		"last_name":  {"Hamilton"},
		"email":      {"margaret@example.com"},
		"role":       {"editor"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("profile update = %d: %s", rr.Code, rr.Body.String())
	}

	p, err := store.CurrentProfile(context.Background())
	if err != nil {
		t.Fatalf("current profile: %v", err)
	}
	if p.FirstName != "Margaret" || p.Role != core.RoleEditor {
		t.Errorf("profile = %+v", p)
	}
}

type flakyStore struct {
	*memory.Store
	fail bool
}

func (f *flakyStore) ListDeals(ctx context.Context) ([]core.Deal, error) {
	if f.fail {
		return nil, errors.New("store down")
	}
	return f.Store.ListDeals(ctx)
}

func TestDashboardServesStaleStatsWhenStoreDown(t *testing.T) {
	store := &flakyStore{Store: memory.NewSeeded()}
	srv := NewServer(":0", store)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	if _, err := store.CreateDeal(context.Background(), core.Deal{
		Title: "Durable",
		Value: core.Money{Cents: 7700},
		Stage: core.StagePaid,
	}); err != nil {
		t.Fatalf("seed deal: %v", err)
	}

	before := get(srv, "/ui/dashboard/summary").Body.String()
	if !strings.Contains(before, "$77.00") {
		t.Fatalf("expected seeded revenue, got: %s", before)
	}

	// Store goes down and the cache is emptied. The dashboard should keep
	// rendering the last good numbers.
	store.fail = true
	srv.invalidateDerived()

	after := get(srv, "/ui/dashboard/summary").Body.String()
	if !strings.Contains(after, "$77.00") {
		t.Errorf("expected stale stats during outage, got: %s", after)
	}
}

func TestDeleteContactNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := postForm(srv, "/contacts/delete", url.Values{"id": {"missing"}})
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
