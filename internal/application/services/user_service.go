package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo ports.UserRepository
	authRepo ports.AuthRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, authRepo ports.AuthRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		authRepo: authRepo,
		logger:   logger.WithComponent("users"),
	}
}

// CreateUser creates a new active user without issuing tokens
func (s *UserService) CreateUser(ctx context.Context, req ports.SignupRequest) (*entities.User, error) {
	user, err := newUser(req)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User created successfully", "user_id", user.ID, "email", user.Email)

	// Remove password hash from response
	user.PasswordHash = ""

	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// DeactivateUser soft-disables a user and revokes every refresh token they hold.
func (s *UserService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SetActive(ctx, id, false); err != nil {
		return err
	}

	if err := s.authRepo.RevokeAllUserTokens(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	s.logger.LogUserAction(id.String(), "deactivate", nil)
	return nil
}

// DeactivateByEmail looks the user up by email and deactivates them
func (s *UserService) DeactivateByEmail(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	return s.DeactivateUser(ctx, user.ID)
}
