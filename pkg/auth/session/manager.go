package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/wovenlane/wovenlane-backend/pkg/config"
	redisclient "github.com/wovenlane/wovenlane-backend/pkg/redis"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(jti string) string
}

// Manager tracks active login sessions in Redis keyed by the JWT jti. A token
// whose jti has no session entry is treated as logged out even if the JWT
// itself is still within its validity window.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, jti string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl < accessTTL {
		return nil, fmt.Errorf("session ttl (%s) must cover access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Start records a session for the provided jti, mapping it to the user.
func (m *Manager) Start(ctx context.Context, jti, userID string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.Set(ctx, m.keyer.SessionKey(jti), userID, m.ttl)
}

// Revoke deletes the session tied to the jti.
func (m *Manager) Revoke(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(jti))
}

// HasSession reports whether the provided jti still has an active session.
func (m *Manager) HasSession(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, fmt.Errorf("jti is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.SessionKey(jti)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSessionID produces a stable identifier used as the JWT jti/Redis key.
func NewSessionID() string {
	return uuid.NewString()
}
