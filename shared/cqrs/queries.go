package cqrs

import "time"

// ---------- Task queries ----------

// GetTaskQuery fetches a single task by ID.
type GetTaskQuery struct {
	TaskID int64
}

// ListTasksQuery fetches tasks matching every set filter.
type ListTasksQuery struct {
	Status    *string
	DueBefore *time.Time
}

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID.
type GetUserQuery struct {
	UserID int64
}

// AuthenticateQuery looks a user up by credentials.
type AuthenticateQuery struct {
	Email    string
	Password string
}
