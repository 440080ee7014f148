package models

import (
	"strconv"
	"time"
)

// TaskStatusPending is the status every task starts in.
const TaskStatusPending = "pending"

// TaskCacheTTL bounds how long a cached task status hint lives.
const TaskCacheTTL = 300 * time.Second

type Task struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Status  string    `json:"status"`
	DueDate time.Time `json:"due_date"`
	UserID  int64     `json:"user_id"`
}

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// TaskFilter narrows ListTasks. Nil fields are not applied; set fields are
// combined with AND.
type TaskFilter struct {
	Status    *string
	DueBefore *time.Time
}

// TaskCacheKey returns the cache key under which a task's status is kept.
func TaskCacheKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}
