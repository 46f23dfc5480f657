package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/internal/models"
)

// UserStore is the gorm-backed implementation of auth.UserStore.
// Lookups match username and email exactly as stored.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) (*UserStore, error) {
	if db == nil {
		return nil, errors.New("user store: db is required")
	}
	return &UserStore{db: db}, nil
}

// Insert persists a new user, translating uniqueness violations.
func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return auth.ErrDuplicate
		}
		return fmt.Errorf("user store: insert: %w", err)
	}
	return nil
}

// FindByID loads a user by identifier.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user store: find by id: %w", err)
	}
	return &user, nil
}

// FindByUsername loads a user by exact username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user store: find by username: %w", err)
	}
	return &user, nil
}

// FindByUsernameOrEmail returns any user holding either identifier.
func (s *UserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user store: find by username or email: %w", err)
	}
	return &user, nil
}
