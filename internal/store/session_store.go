package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/internal/models"
)

// SessionStore is the gorm-backed implementation of auth.SessionStore.
//
// Revocation and extension are single UPDATE statements conditioned on
// the session still being active, so concurrent logout/extend calls on
// the same session resolve by database commit order.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(db *gorm.DB) (*SessionStore, error) {
	if db == nil {
		return nil, errors.New("session store: db is required")
	}
	return &SessionStore{db: db}, nil
}

// Insert persists a new session. The primary-key constraint on the
// session ID is the backstop against token collisions.
func (s *SessionStore) Insert(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		if isUniqueConstraintError(err) {
			return auth.ErrDuplicate
		}
		return fmt.Errorf("session store: insert: %w", err)
	}
	return nil
}

// FindByID loads a session regardless of its expiry state.
func (s *SessionStore) FindByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Take(&session, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session store: find by id: %w", err)
	}
	return &session, nil
}

// Expire marks a still-active session expired at the supplied instant.
func (s *SessionStore) Expire(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ? AND expired_at > ?", sessionID, at).
		Update("expired_at", at)
	if result.Error != nil {
		return false, fmt.Errorf("session store: expire: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Extend slides the expiry window forward for a still-active session,
// resetting the issue time as well.
func (s *SessionStore) Extend(ctx context.Context, sessionID string, now, until time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ? AND expired_at > ?", sessionID, now).
		Updates(map[string]any{
			"created_at": now,
			"expired_at": until,
		})
	if result.Error != nil {
		return false, fmt.Errorf("session store: extend: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindActiveByUser lists the sessions of a user that are valid at the
// supplied instant.
func (s *SessionStore) FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expired_at > ?", userID, now).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("session store: find active by user: %w", err)
	}
	return sessions, nil
}

// ExpireAllForUser expires every active session of the user except
// excludeSessionID in one statement and reports how many were affected.
func (s *SessionStore) ExpireAllForUser(ctx context.Context, userID, excludeSessionID string, at time.Time) (int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ? AND expired_at > ?", userID, at)
	if excludeSessionID != "" {
		query = query.Where("session_id <> ?", excludeSessionID)
	}

	result := query.Update("expired_at", at)
	if result.Error != nil {
		return 0, fmt.Errorf("session store: expire all for user: %w", result.Error)
	}
	return result.RowsAffected, nil
}
