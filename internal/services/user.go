package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// User provides business logic for user operations
type User struct {
	repo *repos.UserRepository
}

// User service errors
var (
	ErrUserNotFound       = fmt.Errorf("user %w", workflow.ErrNotFound)
	ErrUserCreateFailed   = errors.New("failed to create user")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// NewUserService creates a new user service instance
func NewUserService(repo *repos.UserRepository) *User {
	return &User{
		repo: repo,
	}
}

// CreateUser hashes the password and stores a new account
func (s User) CreateUser(ctx context.Context, req types.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Name:     req.Name,
		Role:     req.Role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.Join(ErrUserCreateFailed, err)
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repos.ErrUsernameTaken) {
			return nil, workflow.NewValidationError("username", "already exists")
		}
		return nil, errors.Join(ErrUserCreateFailed, storeError(err))
	}
	return user, nil
}

// Authenticate checks a username and password against the stored hash
func (s User) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(storeError(err), workflow.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (s User) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id
func (s User) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// GetAllUsers retrieves all users
func (s User) GetAllUsers(ctx context.Context, opts *models.ListOptions) ([]models.User, error) {
	users, err := s.repo.GetUsers(ctx, opts)
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

// DeleteUser deletes a user
func (s User) DeleteUser(ctx context.Context, userID uint) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return userError(err)
	}
	return nil
}

func userError(err error) error {
	mapped := storeError(err)
	if errors.Is(mapped, workflow.ErrNotFound) {
		return errors.Join(ErrUserNotFound, err)
	}
	return mapped
}
