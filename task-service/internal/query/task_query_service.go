package query

import (
	"context"

	"github.com/taskflow/platform/shared/cqrs"
	"github.com/taskflow/platform/shared/models"
)

// TaskReader is the read side of the task repository.
type TaskReader interface {
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
}

// TaskQueryService reads tasks straight from the store. The status cache is
// write-only from this service's point of view and never consulted here.
type TaskQueryService struct {
	store TaskReader
}

func NewTaskQueryService(store TaskReader) *TaskQueryService {
	return &TaskQueryService{store: store}
}

func (s *TaskQueryService) GetTask(ctx context.Context, q cqrs.GetTaskQuery) (*models.Task, error) {
	return s.store.GetByID(ctx, q.TaskID)
}

// ListTasks applies the optional filters conjunctively and returns tasks in
// store order. No filters means every task.
func (s *TaskQueryService) ListTasks(ctx context.Context, q cqrs.ListTasksQuery) ([]*models.Task, error) {
	return s.store.List(ctx, models.TaskFilter{
		Status:    q.Status,
		DueBefore: q.DueBefore,
	})
}
