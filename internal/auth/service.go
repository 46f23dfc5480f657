package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/authgard/authgard/internal/models"
	"github.com/authgard/authgard/pkg/crypto"
	apperrors "github.com/authgard/authgard/pkg/errors"
	"github.com/authgard/authgard/pkg/logger"
	"github.com/authgard/authgard/pkg/metrics"
)

// DefaultSessionTTL is the fallback session lifetime.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Config describes tunable behaviour for the auth service.
type Config struct {
	SessionTTL time.Duration
	Clock      func() time.Time
	Cache      SessionCache
}

// RegisterInput captures the details required to register a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput contains the credentials and client metadata for a login attempt.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// Service orchestrates registration, login, and the session lifecycle.
// It holds no session state itself; every call reads and writes through
// the stores, so concurrent calls need no in-process coordination.
type Service struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
	cache    SessionCache
	log      *zap.Logger
}

// NewService constructs an auth service backed by the provided stores.
func NewService(users UserStore, sessions SessionStore, cfg Config) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth service: user store is required")
	}
	if sessions == nil {
		return nil, errors.New("auth service: session store is required")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		now:      clock,
		cache:    cfg.Cache,
		log:      logger.WithModule("auth"),
	}, nil
}

// Register provisions a new user with a bcrypt-hashed password. It fails
// with ErrDuplicateUser when the username or email is already taken.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" {
		return nil, apperrors.NewBadRequest("username is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	_, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		metrics.Registrations.WithLabelValues("duplicate").Inc()
		return nil, apperrors.ErrDuplicateUser
	case !errors.Is(err, ErrNotFound):
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, apperrors.ErrStorageFailure.WithInternal(err)
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		// The unique index is the backstop for registrations racing past
		// the pre-check.
		if errors.Is(err, ErrDuplicate) {
			metrics.Registrations.WithLabelValues("duplicate").Inc()
			return nil, apperrors.ErrDuplicateUser
		}
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, apperrors.ErrStorageFailure.WithInternal(err)
	}

	metrics.Registrations.WithLabelValues("success").Inc()
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	out := *user
	out.Password = ""
	return &out, nil
}

// Login verifies the supplied credentials and creates a fresh session.
// Unknown usernames and wrong passwords both fail with the identical
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, input LoginInput) (*models.Session, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.ErrStorageFailure.WithInternal(err)
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	sessionID, err := crypto.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("auth service: generate session token: %w", err)
	}
	refreshToken, err := crypto.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("auth service: generate refresh token: %w", err)
	}

	now := s.now()

	session := &models.Session{
		SessionID:    sessionID,
		UserID:       user.ID,
		RefreshToken: refreshToken,
		IPAddress:    strings.TrimSpace(input.IPAddress),
		UserAgent:    strings.TrimSpace(input.UserAgent),
		CreatedAt:    now,
		ExpiredAt:    now.Add(s.ttl),
	}

	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, apperrors.ErrStorageFailure.WithInternal(err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	metrics.ActiveSessions.Inc()
	s.log.Info("session created",
		zap.String("user_id", user.ID),
		zap.String("ip", session.IPAddress),
	)

	if s.cache != nil {
		_ = s.cache.Set(ctx, session, s.ttl)
	}

	return session, nil
}

// Logout expires the session immediately. Unknown and already-expired
// session IDs are a no-op, so repeated logouts never fail.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}

	changed, err := s.sessions.Expire(ctx, sessionID, s.now())
	if err != nil {
		return apperrors.ErrStorageFailure.WithInternal(err)
	}

	if changed {
		metrics.ActiveSessions.Dec()
		s.log.Info("session revoked", zap.String("session_id", sessionID))
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, sessionID)
	}

	return nil
}

// GetValidSession returns the session only while it is active. Expired
// and unknown sessions both surface as ErrSessionNotFound; a raw expired
// record is never handed to the caller.
func (s *Service) GetValidSession(ctx context.Context, sessionID string) (*models.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	now := s.now()

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, sessionID); err == nil && ok {
			if cached.Active(now) {
				return cached, nil
			}
			_ = s.cache.Delete(ctx, sessionID)
		}
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.ErrStorageFailure.WithInternal(err)
	}

	if !session.Active(now) {
		return nil, apperrors.ErrSessionNotFound
	}

	if s.cache != nil {
		if remaining := session.ExpiredAt.Sub(now); remaining > 0 {
			_ = s.cache.Set(ctx, session, remaining)
		}
	}

	return session, nil
}

// ExtendSession slides the expiry window forward for a still-valid
// session and reports whether it did. Missing or expired sessions return
// false without mutating anything.
func (s *Service) ExtendSession(ctx context.Context, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	now := s.now()
	extended, err := s.sessions.Extend(ctx, sessionID, now, now.Add(s.ttl))
	if err != nil {
		return false, apperrors.ErrStorageFailure.WithInternal(err)
	}

	if extended && s.cache != nil {
		// Drop rather than rewrite; the next read repopulates from the store.
		_ = s.cache.Delete(ctx, sessionID)
	}

	return extended, nil
}

// TerminateAllUserSessions expires every active session of the user
// except excludeSessionID. The snapshot is best-effort: sessions created
// concurrently with the call may survive it.
func (s *Service) TerminateAllUserSessions(ctx context.Context, userID, excludeSessionID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.NewBadRequest("user id is required")
	}

	now := s.now()

	var staleIDs []string
	if s.cache != nil {
		if active, err := s.sessions.FindActiveByUser(ctx, userID, now); err == nil {
			for _, session := range active {
				if session.SessionID != excludeSessionID {
					staleIDs = append(staleIDs, session.SessionID)
				}
			}
		}
	}

	revoked, err := s.sessions.ExpireAllForUser(ctx, userID, excludeSessionID, now)
	if err != nil {
		return apperrors.ErrStorageFailure.WithInternal(err)
	}

	if revoked > 0 {
		metrics.ActiveSessions.Sub(float64(revoked))
		s.log.Info("user sessions revoked",
			zap.String("user_id", userID),
			zap.Int64("count", revoked),
		)
	}

	if s.cache != nil && len(staleIDs) > 0 {
		_ = s.cache.Delete(ctx, staleIDs...)
	}

	return nil
}

// GetUser loads the owning user for an authenticated session.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.ErrStorageFailure.WithInternal(err)
	}

	out := *user
	out.Password = ""
	return &out, nil
}
