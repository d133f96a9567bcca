package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"todo/internal/logging"
	"todo/internal/service"
)

var errInvalidFilter = errors.New("invalid filter")

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"max=500"`
	Description string `json:"description" validate:"max=10000"`
}

// UpdateTaskRequest is the body of PUT /tasks/{id}. Omitted fields keep
// their current value.
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=500"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Completed   *bool   `json:"completed"`
}

// TasksResponse is the body of task listings.
type TasksResponse struct {
	Tasks []service.Task `json:"tasks"`
}

// TaskHandler serves the task endpoints from a DataSource.
type TaskHandler struct {
	svc       service.DataSource
	validator *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc service.DataSource) *TaskHandler {
	return &TaskHandler{
		svc:       svc,
		validator: validator.New(),
	}
}

// respondLoadError reports a failure to read the task list.
func respondLoadError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), nil).WithError(err).Error("could not load tasks")
	RespondWithError(w, r, http.StatusBadGateway, "Could not load tasks")
}

// ListTasks handles GET /tasks?filter=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := service.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		RespondWithErrorAndLog(w, r, fmt.Errorf("%w: %w", errInvalidFilter, err))
		return
	}
	h.respondWithTasks(w, r, filter)
}

// RefreshTasks handles POST /tasks/refresh
func (h *TaskHandler) RefreshTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RefreshTasks(r.Context()); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	h.respondWithTasks(w, r, service.FilterAll)
}

func (h *TaskHandler) respondWithTasks(w http.ResponseWriter, r *http.Request, filter service.FilterType) {
	tasks, err := h.svc.GetTasks(r.Context())
	if err != nil {
		respondLoadError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, TasksResponse{Tasks: service.Filter(tasks, filter)})
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}

	task := service.NewTask(req.Title, req.Description)
	if task.IsEmpty() {
		RespondWithErrorAndLog(w, r, service.ErrEmptyTask)
		return
	}

	if err := h.svc.SaveTask(r.Context(), task); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if task.IsEmpty() {
		RespondWithErrorAndLog(w, r, service.ErrEmptyTask)
		return
	}

	if err := h.svc.SaveTask(r.Context(), task); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, task)
}

// CompleteTask handles POST /tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if err := h.svc.CompleteTask(r.Context(), task); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, task.WithCompleted(true))
}

// ActivateTask handles POST /tasks/{id}/activate
func (h *TaskHandler) ActivateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if err := h.svc.ActivateTask(r.Context(), task); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, task.WithCompleted(false))
}

// DeleteTask handles DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCompletedTasks handles POST /tasks/clear-completed
func (h *TaskHandler) ClearCompletedTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCompletedTasks(r.Context()); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllTasks handles DELETE /tasks
func (h *TaskHandler) DeleteAllTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAllTasks(r.Context()); err != nil {
		RespondWithErrorAndLog(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statistics handles GET /statistics
func (h *TaskHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.GetTasks(r.Context())
	if err != nil {
		respondLoadError(w, r, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, service.ComputeStatistics(tasks))
}

// loadTask fetches the task named by the id path parameter. It writes an
// error response and returns false when that fails.
func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request) (service.Task, bool) {
	task, err := h.svc.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondWithErrorAndLog(w, r, err)
		return service.Task{}, false
	}
	return task, true
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
