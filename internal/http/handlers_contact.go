package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
)

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	contact := core.Contact{
		Name:     sanitizeInput(r.Form.Get("name")),
		Email:    sanitizeInput(r.Form.Get("email")),
		Phone:    sanitizeInput(r.Form.Get("phone")),
		Company:  sanitizeInput(r.Form.Get("company")),
		Position: sanitizeInput(r.Form.Get("position")),
		Notes:    sanitizeInput(r.Form.Get("notes")),
	}

	if err := contact.Validate(); err != nil {
		UnprocessableEntityError("Invalid contact: " + err.Error()).Write(w)
		return
	}

	id, err := s.store.CreateContact(r.Context(), contact)
	if err != nil {
		slog.ErrorContext(r.Context(), "Contact create error", "error", err, "name", contact.Name)
		InternalServerError("Failed to save contact").Write(w)
		return
	}

	s.invalidateDerived()
	slog.InfoContext(r.Context(), "Contact created", "id", id, "name", contact.Name)

	NewHTMXResponse().
		TriggerContactChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Contact created").
		Write(w)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		BadRequestError("Missing contact id").Write(w)
		return
	}

	contact := core.Contact{
		ID:       id,
		Name:     sanitizeInput(r.Form.Get("name")),
		Email:    sanitizeInput(r.Form.Get("email")),
		Phone:    sanitizeInput(r.Form.Get("phone")),
		Company:  sanitizeInput(r.Form.Get("company")),
		Position: sanitizeInput(r.Form.Get("position")),
		Notes:    sanitizeInput(r.Form.Get("notes")),
	}

	if err := contact.Validate(); err != nil {
		UnprocessableEntityError("Invalid contact: " + err.Error()).Write(w)
		return
	}

	if err := s.store.UpdateContact(r.Context(), contact); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Contact not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Contact update error", "error", err, "id", id)
		InternalServerError("Failed to update contact").Write(w)
		return
	}

	s.invalidateDerived()

	NewHTMXResponse().
		TriggerContactChanged().
		TriggerSuccessNotification("Contact updated").
		Write(w)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		id = sanitizeInput(r.URL.Query().Get("id"))
	}
	if id == "" {
		BadRequestError("Missing contact id").Write(w)
		return
	}

	if err := s.store.DeleteContact(r.Context(), id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Contact not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Contact delete error", "error", err, "id", id)
		InternalServerError("Failed to delete contact").Write(w)
		return
	}

	s.invalidateDerived()

	NewHTMXResponse().
		TriggerContactChanged().
		TriggerSuccessNotification("Contact deleted").
		Write(w)
}

// handleContactList renders the contact table partial.
func (s *Server) handleContactList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	contacts, err := s.store.ListContacts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Contact list error", "error", err)
		_, _ = w.Write([]byte(`<div class="placeholder">Failed to load contacts</div>`))
		return
	}

	q := sanitizeInput(r.URL.Query().Get("q"))
	if q != "" {
		contacts = filterContacts(contacts, q)
	}

	data := struct {
		Contacts []core.Contact
		Query    string
	}{Contacts: contacts, Query: q}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">Contacts loaded</div>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "contact_list.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "contact_list.html")
		_, _ = w.Write([]byte(`<div class="placeholder">Failed rendering contacts</div>`))
	}
}

// filterContacts keeps contacts whose name, email, or company contains
// the query, case-insensitively, preserving order.
func filterContacts(contacts []core.Contact, q string) []core.Contact {
	match := func(c core.Contact) bool {
		return containsFold(c.Name, q) || containsFold(c.Email, q) || containsFold(c.Company, q)
	}

	var out []core.Contact
	for _, c := range contacts {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
