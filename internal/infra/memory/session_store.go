package memory

import (
	"context"
	"sync"
	"time"

	"bantay-bayan/internal/domain"
	"github.com/google/uuid"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]session
}

type session struct {
	identity  domain.CallerIdentity
	expiresAt time.Time // zero means no expiry
}

// NewSessionStore keeps sessions for ttl; ttl <= 0 keeps them until revoked.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]session),
	}
}

func (s *SessionStore) Create(ctx context.Context, identity domain.CallerIdentity) (string, error) {
	token := uuid.NewString()
	return token, s.Put(ctx, token, identity)
}

// Put registers a caller-chosen token, e.g. the configured bootstrap admin token.
func (s *SessionStore) Put(_ context.Context, token string, identity domain.CallerIdentity) error {
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	s.sessions[token] = session{identity: identity, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Resolve(_ context.Context, token string) (domain.CallerIdentity, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return domain.CallerIdentity{}, domain.ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return domain.CallerIdentity{}, domain.ErrSessionNotFound
	}
	return entry.identity, nil
}

func (s *SessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
