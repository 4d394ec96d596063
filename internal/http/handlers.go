package http

import (
	"log/slog"
	"net/http"
	"time"

	"dealdesk/internal/core"
	applog "dealdesk/internal/log"
)

// renderPage executes a full-page template with shared error handling.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.NewStructuredLogger(logger).LogError(r.Context(),
			"Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithPath(name))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct {
		Active string
		Period string
	}{
		Active: "dashboard",
		Period: core.PeriodKey(time.Now()),
	}
	s.renderPage(w, r, "index.html", data)
}

func (s *Server) handleContactsPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Active string
	}{Active: "contacts"}
	s.renderPage(w, r, "contacts.html", data)
}

func (s *Server) handleDealsPage(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.ListContacts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Contact list error", "error", err)
	}

	data := struct {
		Active   string
		Stages   []core.DealStage
		Tiers    []core.DealTier
		Contacts []core.Contact
	}{
		Active:   "deals",
		Stages:   core.Stages(),
		Tiers:    core.Tiers(),
		Contacts: contacts,
	}
	s.renderPage(w, r, "deals.html", data)
}

func (s *Server) handleTasksPage(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.ListContacts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Contact list error", "error", err)
	}
	deals, err := s.getDeals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Deal list error", "error", err)
	}

	data := struct {
		Active     string
		Statuses   []core.TaskStatus
		Priorities []core.TaskPriority
		Contacts   []core.Contact
		Deals      []core.Deal
	}{
		Active:     "tasks",
		Statuses:   core.TaskStatuses(),
		Priorities: core.TaskPriorities(),
		Contacts:   contacts,
		Deals:      deals,
	}
	s.renderPage(w, r, "tasks.html", data)
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.CurrentProfile(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Current profile error", "error", err)
	}

	data := struct {
		Active  string
		Profile core.Profile
		Roles   []core.Role
	}{
		Active:  "settings",
		Profile: profile,
		Roles:   core.Roles(),
	}
	s.renderPage(w, r, "settings.html", data)
}
