package http

import (
	"errors"
	"log/slog"
	"net/http"

	"dealdesk/internal/core"
	applog "dealdesk/internal/log"
	"dealdesk/internal/records"
)

// parseDealForm builds a deal from form values. The value field accepts
// decimal input with comma or dot separators; a missing value means zero.
func parseDealForm(r *http.Request) (core.Deal, *HTMXResponseBuilder) {
	cents, err := core.ParseDecimalToCents(r.Form.Get("value"))
	if err != nil {
		return core.Deal{}, UnprocessableEntityError("Invalid deal value")
	}

	stage := core.DealStage(sanitizeInput(r.Form.Get("stage")))
	if stage == "" {
		stage = core.StageLead
	}

	deal := core.Deal{
		Title:         sanitizeInput(r.Form.Get("title")),
		Description:   sanitizeInput(r.Form.Get("description")),
		Value:         core.Money{Cents: cents},
		Stage:         stage,
		Tier:          core.DealTier(sanitizeInput(r.Form.Get("tier"))),
		ContactID:     optionalRef(r.Form.Get("contact_id")),
		AssignedTo:    optionalRef(r.Form.Get("assigned_to")),
		ExpectedClose: parseOptionalDate(r.Form.Get("expected_close")),
	}

	if err := deal.Validate(); err != nil {
		return core.Deal{}, UnprocessableEntityError("Invalid deal: " + err.Error())
	}
	return deal, nil
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	deal, failure := parseDealForm(r)
	if failure != nil {
		failure.Write(w)
		return
	}

	id, err := s.store.CreateDeal(r.Context(), deal)
	if err != nil {
		slog.ErrorContext(r.Context(), "Deal create error", "error", err,
			"title", deal.Title, "value_cents", deal.Value.Cents)
		InternalServerError("Failed to save deal").Write(w)
		return
	}

	s.invalidateDerived()
	sl := applog.NewStructuredLogger(applog.FromContext(r.Context()).With("id", id))
	sl.LogDealCreated(r.Context(), deal.Title, deal.Value.Cents, string(deal.Stage), string(deal.Tier))

	NewHTMXResponse().
		TriggerDealChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Deal created").
		Write(w)
}

func (s *Server) handleUpdateDeal(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing deal id").Write(w)
		return
	}

	deal, failure := parseDealForm(r)
	if failure != nil {
		failure.Write(w)
		return
	}
	deal.ID = id

	if err := s.store.UpdateDeal(r.Context(), deal); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Deal not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Deal update error", "error", err, "id", id)
		InternalServerError("Failed to update deal").Write(w)
		return
	}

	s.invalidateDerived()

	NewHTMXResponse().
		TriggerDealChanged().
		TriggerSuccessNotification("Deal updated").
		Write(w)
}

// handleMoveDealStage moves a deal through the pipeline without touching
// its other fields.
func (s *Server) handleMoveDealStage(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	stage := core.DealStage(sanitizeInput(r.Form.Get("stage")))

	if id == "" {
		BadRequestError("Missing deal id").Write(w)
		return
	}
	if !stage.IsValid() {
		UnprocessableEntityError("Invalid stage").Write(w)
		return
	}

	if err := s.store.UpdateDealStage(r.Context(), id, stage); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Deal not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Deal stage move error", "error", err,
			"id", id, "stage", string(stage))
		InternalServerError("Failed to move deal").Write(w)
		return
	}

	s.invalidateDerived()
	slog.InfoContext(r.Context(), "Deal stage moved", "id", id, "stage", string(stage))

	NewHTMXResponse().
		TriggerDealChanged().
		TriggerSuccessNotification("Deal moved to " + stage.Label()).
		Write(w)
}

func (s *Server) handleDeleteDeal(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing deal id").Write(w)
		return
	}

	if err := s.store.DeleteDeal(r.Context(), id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Deal not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Deal delete error", "error", err, "id", id)
		InternalServerError("Failed to delete deal").Write(w)
		return
	}

	s.invalidateDerived()

	NewHTMXResponse().
		TriggerDealChanged().
		TriggerSuccessNotification("Deal deleted").
		Write(w)
}

// handleDealList renders the pipeline board partial: one column per
// stage, deals grouped into their column.
func (s *Server) handleDealList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	deals, err := s.getDeals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Deal list error", "error", err)
		_, _ = w.Write([]byte(`<div class="placeholder">Failed to load deals</div>`))
		return
	}

	contacts, err := s.store.ListContacts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Contact list error", "error", err)
	}

	type dealView struct {
		ID            string
		Title         string
		Value         string
		Stage         core.DealStage
		TierLabel     string
		ContactName   string
		ExpectedClose string
	}
	type stageColumn struct {
		Stage core.DealStage
		Label string
		Total string
		Deals []dealView
	}

	columns := make([]stageColumn, 0, len(core.Stages()))
	for _, stage := range core.Stages() {
		col := stageColumn{Stage: stage, Label: stage.Label()}
		var total core.Money
		for _, d := range deals {
			if d.Stage != stage {
				continue
			}
			total = total.Add(d.Value)
			view := dealView{
				ID:          d.ID,
				Title:       d.Title,
				Value:       d.Value.Format(),
				Stage:       d.Stage,
				ContactName: contactName(contacts, d.ContactID),
			}
			if d.Tier != "" {
				view.TierLabel = d.Tier.Label()
			}
			if d.ExpectedClose != nil {
				view.ExpectedClose = d.ExpectedClose.Format("Jan 2, 2006")
			}
			col.Deals = append(col.Deals, view)
		}
		col.Total = total.Format()
		columns = append(columns, col)
	}

	data := struct {
		Columns []stageColumn
		Stages  []core.DealStage
	}{Columns: columns, Stages: core.Stages()}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">Deals loaded</div>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "deal_list.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "deal_list.html")
		_, _ = w.Write([]byte(`<div class="placeholder">Failed rendering deals</div>`))
	}
}
