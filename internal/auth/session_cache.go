package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/authgard/authgard/internal/cache"
	"github.com/authgard/authgard/internal/models"
)

const sessionCacheKeyPrefix = "auth:sessions:"

// NewSessionCache wraps a byte-oriented cache store inside a SessionCache
// implementation keyed by session ID.
func NewSessionCache(store cache.Store) SessionCache {
	if store == nil {
		return nil
	}
	return &sessionStoreCache{store: store}
}

type sessionStoreCache struct {
	store cache.Store
}

func (c *sessionStoreCache) Get(ctx context.Context, sessionID string) (*models.Session, bool, error) {
	key := sessionCacheKey(sessionID)
	if key == "" {
		return nil, false, nil
	}

	data, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false, fmt.Errorf("session cache: decode: %w", err)
	}
	return &session, true, nil
}

func (c *sessionStoreCache) Set(ctx context.Context, session *models.Session, ttl time.Duration) error {
	if session == nil {
		return errors.New("session cache: session is nil")
	}
	key := sessionCacheKey(session.SessionID)
	if key == "" {
		return errors.New("session cache: session id missing")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session cache: marshal: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	return c.store.Set(ctx, key, payload, ttl)
}

func (c *sessionStoreCache) Delete(ctx context.Context, sessionIDs ...string) error {
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		if key := sessionCacheKey(id); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.Delete(ctx, keys...)
}

func sessionCacheKey(sessionID string) string {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ""
	}
	return sessionCacheKeyPrefix + id
}
