package query

import (
	"context"
	"errors"

	"github.com/taskflow/platform/shared/auth"
	"github.com/taskflow/platform/shared/cqrs"
	"github.com/taskflow/platform/shared/models"
)

// UserReader is the read side of the user repository.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type UserQueryService struct {
	store  UserReader
	hasher auth.PasswordHasher
}

func NewUserQueryService(store UserReader, hasher auth.PasswordHasher) *UserQueryService {
	return &UserQueryService{store: store, hasher: hasher}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	return s.store.GetByID(ctx, q.UserID)
}

// AuthenticateUser returns (nil, nil) when the email is unknown or the
// password is wrong; callers cannot tell the two apart. Only store failures
// produce an error.
func (s *UserQueryService) AuthenticateUser(ctx context.Context, q cqrs.AuthenticateQuery) (*models.User, error) {
	user, err := s.store.GetByEmail(ctx, q.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(q.Password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}
