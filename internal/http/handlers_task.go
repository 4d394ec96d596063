package http

import (
	"errors"
	"log/slog"
	"net/http"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
)

func parseTaskForm(r *http.Request) (core.Task, *HTMXResponseBuilder) {
	status := core.TaskStatus(sanitizeInput(r.Form.Get("status")))
	if status == "" {
		status = core.TaskPending
	}
	priority := core.TaskPriority(sanitizeInput(r.Form.Get("priority")))
	if priority == "" {
		priority = core.PriorityMedium
	}

	task := core.Task{
		Title:       sanitizeInput(r.Form.Get("title")),
		Description: sanitizeInput(r.Form.Get("description")),
		Status:      status,
		Priority:    priority,
		AssignedTo:  optionalRef(r.Form.Get("assigned_to")),
		ContactID:   optionalRef(r.Form.Get("contact_id")),
		DealID:      optionalRef(r.Form.Get("deal_id")),
		DueDate:     parseOptionalDate(r.Form.Get("due_date")),
	}

	if err := task.Validate(); err != nil {
		return core.Task{}, UnprocessableEntityError("Invalid task: " + err.Error())
	}
	return task, nil
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	task, failure := parseTaskForm(r)
	if failure != nil {
		failure.Write(w)
		return
	}

	id, err := s.store.CreateTask(r.Context(), task)
	if err != nil {
		slog.ErrorContext(r.Context(), "Task create error", "error", err, "title", task.Title)
		InternalServerError("Failed to save task").Write(w)
		return
	}

	s.invalidateDerived()
	slog.InfoContext(r.Context(), "Task created", "id", id, "title", task.Title)

	NewHTMXResponse().
		TriggerTaskChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Task created").
		Write(w)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing task id").Write(w)
		return
	}

	task, failure := parseTaskForm(r)
	if failure != nil {
		failure.Write(w)
		return
	}
	task.ID = id

	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Task not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Task update error", "error", err, "id", id)
		InternalServerError("Failed to update task").Write(w)
		return
	}

	s.invalidateDerived()

	NewHTMXResponse().
		TriggerTaskChanged().
		TriggerSuccessNotification("Task updated").
		Write(w)
}

// handleUpdateTaskStatus flips a task's status, the targeted operation
// behind the checkbox toggles on the task board.
func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	status := core.TaskStatus(sanitizeInput(r.Form.Get("status")))

	if id == "" {
		BadRequestError("Missing task id").Write(w)
		return
	}
	if !status.IsValid() {
		UnprocessableEntityError("Invalid status").Write(w)
		return
	}

	if err := s.store.UpdateTaskStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Task not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Task status error", "error", err, "id", id, "status", string(status))
		InternalServerError("Failed to update task status").Write(w)
		return
	}

	s.invalidateDerived()
	slog.InfoContext(r.Context(), "Task status updated", "id", id, "status", string(status))

	NewHTMXResponse().
		TriggerTaskChanged().
		TriggerSuccessNotification("Task marked " + status.Label()).
		Write(w)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing task id").Write(w)
		return
	}

	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Task not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Task delete error", "error", err, "id", id)
		InternalServerError("Failed to delete task").Write(w)
		return
	}

	s.invalidateDerived()

	NewHTMXResponse().
		TriggerTaskChanged().
		TriggerSuccessNotification("Task deleted").
		Write(w)
}

// handleTaskList renders the task table partial, optionally filtered by
// status via the ?status= query parameter.
func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Task list error", "error", err)
		_, _ = w.Write([]byte(`<div class="placeholder">Failed to load tasks</div>`))
		return
	}

	filter := core.TaskStatus(sanitizeInput(r.URL.Query().Get("status")))
	if filter != "" && filter.IsValid() {
		filtered := tasks[:0:0]
		for _, t := range tasks {
			if t.Status == filter {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	contacts, err := s.store.ListContacts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Contact list error", "error", err)
	}

	type taskView struct {
		ID            string
		Title         string
		Description   string
		Status        core.TaskStatus
		StatusLabel   string
		Priority      core.TaskPriority
		PriorityLabel string
		ContactName   string
		DueDate       string
		Overdue       bool
		Done          bool
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		v := taskView{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			Status:        t.Status,
			StatusLabel:   t.Status.Label(),
			Priority:      t.Priority,
			PriorityLabel: t.Priority.Label(),
			ContactName:   contactName(contacts, t.ContactID),
			Done:          t.Status == core.TaskCompleted,
		}
		if t.DueDate != nil {
			v.DueDate = t.DueDate.Format("Jan 2, 2006")
			v.Overdue = t.DueDate.Before(timeNow()) && !v.Done && t.Status != core.TaskCancelled
		}
		views = append(views, v)
	}

	data := struct {
		Tasks    []taskView
		Statuses []core.TaskStatus
		Filter   core.TaskStatus
	}{Tasks: views, Statuses: core.TaskStatuses(), Filter: filter}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">Tasks loaded</div>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "task_list.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "task_list.html")
		_, _ = w.Write([]byte(`<div class="placeholder">Failed rendering tasks</div>`))
	}
}
