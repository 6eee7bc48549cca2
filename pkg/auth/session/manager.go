// Package session stores the server-side state tied to one browser
// session: the refresh token used for rotation and the backend token
// pair the storefront uses on the user's behalf.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peykantravel/peykan-storefront/pkg/config"
	redisclient "github.com/peykantravel/peykan-storefront/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNoUpstreamTokens    = errors.New("no backend tokens for session")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	UpstreamTokensKey(sessionID string) string
}

// UpstreamTokens is the backend-issued pair held server-side for a
// session, alongside the user's currency preference.
type UpstreamTokens struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Currency string `json:"currency,omitempty"`
}

// Manager handles refresh token creation, storage, and rotation, plus
// the backend token pair tied to each session.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Generate creates a refresh token for the provided access ID and stores it in Redis.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the provided refresh token, invalidates the prior
// session, and issues a new access/refresh pair. The backend token
// pair is re-keyed to the new session id.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(newAccessID), newToken, m.ttl); err != nil {
		return "", "", err
	}

	if err := m.moveUpstreamTokens(ctx, oldAccessID, newAccessID); err != nil {
		return "", "", err
	}

	if err := m.store.Del(ctx, key); err != nil {
		return "", "", err
	}

	return newAccessID, newToken, nil
}

// Revoke deletes the session mappings tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx,
		m.keyer.AccessSessionKey(accessID),
		m.keyer.UpstreamTokensKey(accessID),
	)
}

// StoreUpstreamTokens persists the backend token pair for a session.
func (m *Manager) StoreUpstreamTokens(ctx context.Context, accessID string, tokens UpstreamTokens) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	payload, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal upstream tokens: %w", err)
	}
	return m.store.Set(ctx, m.keyer.UpstreamTokensKey(accessID), string(payload), m.ttl)
}

// UpstreamTokensFor loads the backend token pair for a session.
func (m *Manager) UpstreamTokensFor(ctx context.Context, accessID string) (*UpstreamTokens, error) {
	if strings.TrimSpace(accessID) == "" {
		return nil, fmt.Errorf("access id is required")
	}
	raw, err := m.store.Get(ctx, m.keyer.UpstreamTokensKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrNoUpstreamTokens
		}
		return nil, err
	}
	var tokens UpstreamTokens
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal upstream tokens: %w", err)
	}
	return &tokens, nil
}

// HasSession reports whether the provided access ID still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	key := m.keyer.AccessSessionKey(accessID)
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) moveUpstreamTokens(ctx context.Context, oldID, newID string) error {
	raw, err := m.store.Get(ctx, m.keyer.UpstreamTokensKey(oldID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil
		}
		return err
	}
	if err := m.store.Set(ctx, m.keyer.UpstreamTokensKey(newID), raw, m.ttl); err != nil {
		return err
	}
	return m.store.Del(ctx, m.keyer.UpstreamTokensKey(oldID))
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
