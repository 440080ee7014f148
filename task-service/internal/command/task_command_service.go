package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskflow/platform/shared/cqrs"
	"github.com/taskflow/platform/shared/events"
	"github.com/taskflow/platform/shared/models"
	"github.com/taskflow/platform/shared/redis"
)

// TaskStore is the slice of the task repository the write side needs.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
}

// UserValidator confirms that a task owner exists.
type UserValidator interface {
	ValidateUser(ctx context.Context, userID int64) (bool, error)
}

// TaskCommandService writes tasks to the store and keeps the status cache warm.
// The store is authoritative; cache failures are logged and never returned.
type TaskCommandService struct {
	store     TaskStore
	validator UserValidator
	cache     redis.Cache
	logger    *slog.Logger
}

func NewTaskCommandService(
	store TaskStore,
	validator UserValidator,
	cache redis.Cache,
	logger *slog.Logger,
) *TaskCommandService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskCommandService{
		store:     store,
		validator: validator,
		cache:     cache,
		logger:    logger,
	}
}

// CreateTask validates the owner before touching the store. A rejected owner
// fails with models.ErrUnknownOwner and nothing is written.
func (s *TaskCommandService) CreateTask(ctx context.Context, cmd cqrs.CreateTaskCommand) (*models.Task, error) {
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	}
	ctx = context.WithoutCancel(ctx)

	ok, err := s.validator.ValidateUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate user %d: %w", cmd.UserID, err)
	}
	if !ok {
		return nil, fmt.Errorf("user %d: %w", cmd.UserID, models.ErrUnknownOwner)
	}

	task := &models.Task{
		Title:   cmd.Title,
		Status:  models.TaskStatusPending,
		DueDate: cmd.DueDate,
		UserID:  cmd.UserID,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, task)
	return task, nil
}

func (s *TaskCommandService) UpdateTaskStatus(ctx context.Context, cmd cqrs.UpdateTaskStatusCommand) (*models.Task, error) {
	if strings.TrimSpace(cmd.Status) == "" {
		return nil, fmt.Errorf("status is required: %w", models.ErrInvalidInput)
	}
	ctx = context.WithoutCancel(ctx)

	task, err := s.store.GetByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	task.Status = cmd.Status
	if err := s.store.Update(ctx, task); err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, task)
	return task, nil
}

func (s *TaskCommandService) DeleteTask(ctx context.Context, cmd cqrs.DeleteTaskCommand) error {
	ctx = context.WithoutCancel(ctx)

	if _, err := s.store.GetByID(ctx, cmd.TaskID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, cmd.TaskID); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, models.TaskCacheKey(cmd.TaskID)); err != nil {
		s.logger.Error("failed to invalidate cached task status",
			slog.Int64("task_id", cmd.TaskID), slog.Any("error", err))
	}
	return nil
}

// HandleUserEvent logs registrations announced by the user service. Owner
// validation still goes to the user service on every create.
func (s *TaskCommandService) HandleUserEvent(_ context.Context, event events.Event) error {
	if event.Type != events.UserCreated {
		return nil
	}
	var data events.UserCreatedEvent
	if err := event.Decode(&data); err != nil {
		return err
	}
	s.logger.Info("user registered", slog.Int64("user_id", data.UserID))
	return nil
}

func (s *TaskCommandService) cacheStatus(ctx context.Context, task *models.Task) {
	err := s.cache.SetWithExpiry(ctx, models.TaskCacheKey(task.ID), models.TaskCacheTTL, task.Status)
	if err != nil {
		s.logger.Error("failed to cache task status",
			slog.Int64("task_id", task.ID), slog.Any("error", err))
	}
}
