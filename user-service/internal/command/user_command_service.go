package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskflow/platform/shared/auth"
	"github.com/taskflow/platform/shared/cqrs"
	"github.com/taskflow/platform/shared/events"
	"github.com/taskflow/platform/shared/models"
)

// UserStore is the slice of the user repository the write side needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// UserCommandService registers users and edits profiles. Registration events
// go out best effort through the publisher.
type UserCommandService struct {
	store     UserStore
	hasher    auth.PasswordHasher
	publisher events.Publisher
	logger    *slog.Logger
}

func NewUserCommandService(
	store UserStore,
	hasher auth.PasswordHasher,
	publisher events.Publisher,
	logger *slog.Logger,
) *UserCommandService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserCommandService{
		store:     store,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterUser fails with models.ErrDuplicateEmail when the address is taken,
// whether the pre-check sees it or a concurrent insert wins the race and the
// store's uniqueness constraint rejects ours.
func (s *UserCommandService) RegisterUser(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	if strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", models.ErrInvalidInput)
	}
	ctx = context.WithoutCancel(ctx)

	existing, err := s.store.GetByEmail(ctx, cmd.Email)
	switch {
	case err == nil && existing != nil:
		return nil, fmt.Errorf("%s: %w", cmd.Email, models.ErrDuplicateEmail)
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
	})
	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserCommandService) UpdateUserProfile(ctx context.Context, cmd cqrs.UpdateUserProfileCommand) (*models.User, error) {
	ctx = context.WithoutCancel(ctx)

	user, err := s.store.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	user.Name = cmd.Name
	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
