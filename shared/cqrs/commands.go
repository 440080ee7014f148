package cqrs

import "time"

type CreateTaskCommand struct {
	Title   string
	UserID  int64
	DueDate time.Time
}

type UpdateTaskStatusCommand struct {
	TaskID int64
	Status string
}

type DeleteTaskCommand struct {
	TaskID int64
}

type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
}

type UpdateUserProfileCommand struct {
	UserID int64
	Name   string
}
