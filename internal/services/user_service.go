package services

import (
	"context"

	"marketplace/internal/apperror"
	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/rs/zerolog/log"
)

// UserService handles account administration.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// CreateUser creates an account with any role.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	return createUser(ctx, s.repo, in)
}

// DeleteUser removes targetID on behalf of actorID. Admins cannot delete
// the account they are logged in with.
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return apperror.Invalid("", "cannot delete own account")
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	log.Info().Uint("actor_id", actorID).Uint("user_id", targetID).Msg("user deleted")
	return nil
}

// UpdateRole changes the role of a user. Only promotion to admin is allowed.
func (s *UserService) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	if role != models.RoleAdmin {
		return apperror.Invalid("role", "can only update to admin role")
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	log.Info().Uint("user_id", id).Str("role", string(role)).Msg("user role updated")
	return nil
}
