package http

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/usecase"
	"github.com/omniores3/pythonGroupTools/pkg/httputil"
)

// TaskHandler handles task CRUD and run-control HTTP requests
type TaskHandler struct {
	runner *usecase.TaskRunner
	logger zerolog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(runner *usecase.TaskRunner, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		runner: runner,
		logger: logger.With().Str("handler", "task").Logger(),
	}
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	var task domain.Task
	if err := json.Unmarshal(ctx.PostBody(), &task); err != nil {
		httputil.WriteErrorResponse(ctx, "invalid request body", fasthttp.StatusBadRequest)
		return
	}

	if err := h.runner.CreateTask(ctx, &task); err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponseWithStatus(ctx, task, fasthttp.StatusCreated)
}

// List handles GET /api/tasks
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	page, pageSize := pagination(ctx)

	tasks, total, err := h.runner.ListTasks(ctx, page, pageSize)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WritePage(ctx, tasks, total, page, pageSize)
}

// Get handles GET /api/tasks/{id}
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	task, err := h.runner.GetTask(ctx, id)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, task)
}

// Update handles PUT /api/tasks/{id}, rejected while the task is running
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	var task domain.Task
	if err := json.Unmarshal(ctx.PostBody(), &task); err != nil {
		httputil.WriteErrorResponse(ctx, "invalid request body", fasthttp.StatusBadRequest)
		return
	}
	task.ID = id

	if err := h.runner.UpdateTask(ctx, &task); err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, task)
}

// Delete handles DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	if err := h.runner.DeleteTask(ctx, id); err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

// Start handles POST /api/tasks/{id}/start
func (h *TaskHandler) Start(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	if err := h.runner.Start(ctx, id); err != nil {
		h.logger.Warn().Err(err).Uint("task_id", id).Msg("failed to start task")
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponseWithStatus(ctx, domain.TaskRunState{
		TaskID:    id,
		Status:    domain.TaskStatusRunning,
		IsRunning: true,
	}, fasthttp.StatusAccepted)
}

// Stop handles POST /api/tasks/{id}/stop
func (h *TaskHandler) Stop(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	if err := h.runner.Stop(ctx, id); err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, domain.TaskRunState{
		TaskID: id,
		Status: domain.TaskStatusStopped,
	})
}

// Status handles GET /api/tasks/{id}/status
func (h *TaskHandler) Status(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	state, err := h.runner.Status(ctx, id)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, state)
}

// handleError maps domain errors to HTTP status codes
func (h *TaskHandler) handleError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		httputil.WriteErrorResponse(ctx, "task not found", fasthttp.StatusNotFound)
	case errors.Is(err, domain.ErrTaskAlreadyRunning):
		httputil.WriteErrorResponse(ctx, "task is already running", fasthttp.StatusConflict)
	case errors.Is(err, domain.ErrTaskNotRunning):
		httputil.WriteErrorResponse(ctx, "task is not running", fasthttp.StatusConflict)
	case errors.Is(err, domain.ErrTaskRunning):
		httputil.WriteErrorResponse(ctx, "task cannot be modified while running", fasthttp.StatusConflict)
	case errors.Is(err, domain.ErrNoActiveAccount):
		httputil.WriteErrorResponse(ctx, "no active account configured", fasthttp.StatusConflict)
	case isValidationError(err):
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
	default:
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidTask)
}
