package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bantay-bayan/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps session tokens in Redis so every instance (and the CLI) shares them.
// Sessions are stored as: SET quiz:session:{token} {identity json} EX ttl
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, identity domain.CallerIdentity) (string, error) {
	token := uuid.NewString()
	return token, s.Put(ctx, token, identity)
}

// Put registers a caller-chosen token.
func (s *SessionStore) Put(ctx context.Context, token string, identity domain.CallerIdentity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Resolve(ctx context.Context, token string) (domain.CallerIdentity, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CallerIdentity{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.CallerIdentity{}, fmt.Errorf("load session: %w", err)
	}
	var identity domain.CallerIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return domain.CallerIdentity{}, fmt.Errorf("decode session: %w", err)
	}
	return identity, nil
}

func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "quiz:session:" + token
}
