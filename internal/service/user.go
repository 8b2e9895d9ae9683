package service

import (
	"context"
	"log/slog"

	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

// UserService exposes the user directory. Users are created by the seeder
// only; there is no registration.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// List returns every user. Password hashes are loaded but model.User never
// serialises them.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "list users", err)
	}
	return users, nil
}

// Get returns one user, or apperror.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, "get user", err)
	}
	return user, nil
}
