package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	redisclient "github.com/angelmondragon/venueops-backend/pkg/redis"
)

// ErrNoAccessID is returned for blank token identifiers.
var ErrNoAccessID = errors.New("session: access id is required")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keeps one record per issued access token (keyed by jti, valued by
// the user id) that lives exactly as long as the token. Logout deletes it.
type Manager struct {
	store store
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("session: redis client is required")
	}
	return newManager(client, cfg.TTL())
}

func newManager(s store, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session: ttl must be positive, got %s", ttl)
	}
	return &Manager{store: s, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrNoAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

func (m *Manager) Create(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, userID.String(), m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Owner returns the user a live session belongs to. ok is false once the
// session expired or was revoked.
func (m *Manager) Owner(ctx context.Context, accessID string) (userID uuid.UUID, ok bool, err error) {
	key, err := m.key(accessID)
	if err != nil {
		return uuid.Nil, false, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return uuid.Nil, false, nil
	case err != nil:
		return uuid.Nil, false, err
	}
	userID, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("session: corrupt record for %s: %w", key, err)
	}
	return userID, true, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := m.Owner(ctx, accessID)
	return ok, err
}

// NewAccessID mints the jti shared by the token and its session record.
func NewAccessID() string {
	return uuid.NewString()
}
