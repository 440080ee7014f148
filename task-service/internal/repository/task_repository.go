package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/taskflow/platform/shared/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id       BIGSERIAL PRIMARY KEY,
	title    TEXT        NOT NULL,
	status   TEXT        NOT NULL DEFAULT 'pending',
	due_date TIMESTAMPTZ NOT NULL,
	user_id  BIGINT      NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id);
`

var taskColumns = []string{"id", "title", "status", "due_date", "user_id"}

// TaskRepository persists tasks in PostgreSQL, the source of truth. Every call
// commits on its own and is bounded by the configured query timeout.
type TaskRepository struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	timeout time.Duration
}

func NewTaskRepository(db *sql.DB, timeout time.Duration) *TaskRepository {
	return &TaskRepository{
		db:      db,
		sb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		timeout: timeout,
	}
}

// EnsureSchema creates the tasks table when it does not exist yet.
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tasks schema: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query, args, err := r.sb.Insert("tasks").
		Columns("title", "status", "due_date", "user_id").
		Values(task.Title, task.Status, task.DueDate, task.UserID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&task.ID); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query, args, err := r.sb.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var task models.Task
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&task.ID, &task.Title, &task.Status, &task.DueDate, &task.UserID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query, args, err := r.sb.Update("tasks").
		Set("title", task.Title).
		Set("status", task.Status).
		Set("due_date", task.DueDate).
		Where(sq.Eq{"id": task.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}
	return r.execOne(ctx, "update", task.ID, query, args)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	return r.execOne(ctx, "delete", id, query, args)
}

// List returns tasks in insertion order, applying every set filter.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	builder := r.sb.Select(taskColumns...).From("tasks")
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.DueBefore != nil {
		builder = builder.Where(sq.LtOrEq{"due_date": *filter.DueBefore})
	}
	query, args, err := builder.OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Status, &task.DueDate, &task.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) execOne(ctx context.Context, op string, id int64, query string, args []any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s task: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return nil
}
