package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskflow/platform/shared/models"
)

// MemoryTaskRepository keeps tasks in process memory with the same contract
// as TaskRepository. IDs start at 1 and List returns insertion order.
type MemoryTaskRepository struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{nextID: 1, tasks: make(map[int64]models.Task)}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	r.tasks[task.ID] = *task
	return nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return &task, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[task.ID]
	if !ok {
		return fmt.Errorf("task %d: %w", task.ID, models.ErrNotFound)
	}
	stored.Title = task.Title
	stored.Status = task.Status
	stored.DueDate = task.DueDate
	r.tasks[task.ID] = stored
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) List(_ context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]*models.Task, 0, len(r.tasks))
	// IDs are handed out in increasing order, so walking them ascending
	// reproduces insertion order.
	for id := int64(1); id < r.nextID; id++ {
		task, ok := r.tasks[id]
		if !ok {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.DueBefore != nil && task.DueDate.After(*filter.DueBefore) {
			continue
		}
		tasks = append(tasks, &task)
	}
	return tasks, nil
}
