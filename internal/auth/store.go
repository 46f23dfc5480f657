package auth

import (
	"context"
	"errors"
	"time"

	"github.com/authgard/authgard/internal/models"
)

var (
	// ErrNotFound is returned by stores when no record matches.
	ErrNotFound = errors.New("auth: record not found")
	// ErrDuplicate is returned by stores on a uniqueness violation.
	ErrDuplicate = errors.New("auth: duplicate record")
)

// UserStore persists user identity records.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
}

// SessionStore persists session records. Mutations are single-row
// conditional updates so that a logout racing with an extension resolves
// at the database, not in process memory.
type SessionStore interface {
	Insert(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID string) (*models.Session, error)

	// Expire marks the session expired at the supplied instant if it is
	// still active, reporting whether a row changed.
	Expire(ctx context.Context, sessionID string, at time.Time) (bool, error)

	// Extend slides the expiry window forward for a still-active session,
	// reporting whether a row changed.
	Extend(ctx context.Context, sessionID string, now, until time.Time) (bool, error)

	FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.Session, error)

	// ExpireAllForUser expires every active session of the user except
	// excludeSessionID (ignored when empty) and returns the number of
	// sessions affected.
	ExpireAllForUser(ctx context.Context, userID, excludeSessionID string, at time.Time) (int64, error)
}

// SessionCache is an optional read-through cache for session lookups,
// keyed by session ID. The relational store stays authoritative; cache
// failures are treated as misses.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*models.Session, bool, error)
	Set(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, sessionIDs ...string) error
}
