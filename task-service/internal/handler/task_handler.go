package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/platform/shared/cqrs"
	"github.com/taskflow/platform/shared/middleware"
	"github.com/taskflow/platform/shared/models"
)

// TaskCommander defines the write-side operations used by TaskHandler.
type TaskCommander interface {
	CreateTask(context.Context, cqrs.CreateTaskCommand) (*models.Task, error)
	UpdateTaskStatus(context.Context, cqrs.UpdateTaskStatusCommand) (*models.Task, error)
	DeleteTask(context.Context, cqrs.DeleteTaskCommand) error
}

// TaskQuerier defines the read-side operations used by TaskHandler.
type TaskQuerier interface {
	GetTask(context.Context, cqrs.GetTaskQuery) (*models.Task, error)
	ListTasks(context.Context, cqrs.ListTasksQuery) ([]*models.Task, error)
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	commands TaskCommander
	queries  TaskQuerier
	logger   *slog.Logger
}

type CreateTaskRequest struct {
	Title   string    `json:"title" validate:"required,max=1000"`
	UserID  int64     `json:"user_id" validate:"required,gt=0"`
	DueDate time.Time `json:"due_date" validate:"required"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

func NewTaskHandler(commands TaskCommander, queries TaskQuerier, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{commands: commands, queries: queries, logger: logger}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	task, err := h.commands.CreateTask(c.Request.Context(), cqrs.CreateTaskCommand{
		Title:   req.Title,
		UserID:  req.UserID,
		DueDate: req.DueDate,
	})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	task, err := h.commands.UpdateTaskStatus(c.Request.Context(), cqrs.UpdateTaskStatusCommand{
		TaskID: taskID,
		Status: req.Status,
	})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.commands.DeleteTask(c.Request.Context(), cqrs.DeleteTaskCommand{TaskID: taskID}); err != nil {
		h.respondWithServiceError(c, err, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.queries.GetTask(c.Request.Context(), cqrs.GetTaskQuery{TaskID: taskID})
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to fetch task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListTasks accepts ?status= and ?due_before= (RFC 3339). Both are optional.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var q cqrs.ListTasksQuery
	if status := c.Query("status"); status != "" {
		q.Status = &status
	}
	if raw := c.Query("due_before"); raw != "" {
		dueBefore, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid due_before, expected RFC 3339")
			return
		}
		q.DueBefore = &dueBefore
	}

	tasks, err := h.queries.ListTasks(c.Request.Context(), q)
	if err != nil {
		h.respondWithServiceError(c, err, "Failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) respondWithServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrUnknownOwner):
		middleware.RespondWithError(c, http.StatusBadRequest, "Unknown user")
	case errors.Is(err, models.ErrInvalidInput):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Task not found")
	default:
		h.logger.Error(fallback, slog.String("path", c.FullPath()), slog.Any("error", err))
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
