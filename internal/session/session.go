// Package session maps opaque session tokens to the acting user.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blog/internal/models"
)

// DefaultTTL is how long a session stays valid after it is started.
const DefaultTTL = 24 * time.Hour

type Store interface {
	CreateSession(ctx context.Context, sess models.Session) error
	Session(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Manager starts, resolves and ends sessions. Session state lives in the
// store, so a Manager is safe for concurrent use.
type Manager struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration, log *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session for user and returns its token and expiry.
func (m *Manager) Start(ctx context.Context, user *models.User) (string, time.Time, error) {
	now := m.now()
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return "", time.Time{}, err
	}
	m.log.Debug("session started", zap.Int64("user_id", user.ID))
	return sess.ID, sess.ExpiresAt, nil
}

// Resolve returns the actor behind token. Missing, malformed, unknown,
// expired and revoked tokens all resolve to models.Anonymous.
func (m *Manager) Resolve(ctx context.Context, token string) models.Actor {
	if token == "" {
		return models.Anonymous
	}
	if _, err := uuid.Parse(token); err != nil {
		return models.Anonymous
	}
	sess, err := m.store.Session(ctx, token)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			m.log.Error("session lookup failed", zap.Error(err))
		}
		return models.Anonymous
	}
	if !sess.Active(m.now()) {
		return models.Anonymous
	}
	user, err := m.store.UserByID(ctx, sess.UserID)
	if err != nil {
		m.log.Error("session user lookup failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		return models.Anonymous
	}
	return models.Authenticated(user)
}

// End revokes the session behind token. Ending an unknown session is a no-op.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.RevokeSession(ctx, token, m.now())
}

// Purge deletes expired and revoked sessions.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	n, err := m.store.PurgeSessions(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info("purged sessions", zap.Int64("count", n))
	}
	return n, nil
}

// PurgeEvery runs Purge once per interval until ctx is done.
func (m *Manager) PurgeEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Purge(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn("session purge failed", zap.Error(err))
			}
		}
	}
}
