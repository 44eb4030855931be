package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/db"
	"github.com/prefect-field/jobtrack/internal/db/models"
)

// ErrUsernameTaken is returned when creating a user whose username already exists
var ErrUsernameTaken = errors.New("username already exists")

// UserRepository stores jobtrack accounts
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository over db
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser validates and stores user. The username check and the insert share a transaction.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	if err := user.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.User{}).
			Where("username = ?", user.Username).
			Count(&count).Error; err != nil {
			return fmt.Errorf("error checking username existence: %w", err)
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if db.IsDuplicateKeyError(err) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// GetUserByUsername looks a user up by login name. Missing users wrap gorm.ErrRecordNotFound.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", strings.TrimSpace(username))
}

// GetUserByID looks a user up by primary key. Missing users wrap gorm.ErrRecordNotFound.
func (r *UserRepository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return r.first(ctx, "id = ?", userID)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("user not found: %w", err)
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUsers pages through accounts in id order
func (r *UserRepository) GetUsers(ctx context.Context, opts *models.ListOptions) ([]models.User, error) {
	opts = normalizeListOptions(opts)

	query := r.db.WithContext(ctx)
	if opts.IncludeDeleted {
		query = query.Unscoped()
	}

	users := []models.User{}
	if err := query.Limit(opts.Limit).Offset(opts.Offset).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser soft deletes an account. Jobs keep the assignment ids they already carry.
func (r *UserRepository) DeleteUser(ctx context.Context, userID uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, userID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
