package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskflow/platform/shared/models"
)

// MemoryUserRepository keeps users in process memory. Emails are unique, like
// the UNIQUE constraint on the Postgres table.
type MemoryUserRepository struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]models.User
	byEmail map[string]int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		nextID:  1,
		users:   make(map[int64]models.User),
		byEmail: make(map[string]int64),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return fmt.Errorf("%s: %w", user.Email, models.ErrDuplicateEmail)
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	user := r.users[id]
	return &user, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user %d: %w", user.ID, models.ErrNotFound)
	}
	stored.Name = user.Name
	r.users[user.ID] = stored
	return nil
}
