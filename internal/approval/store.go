package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps approval contexts in Redis, one per staff session.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. Contexts expire after ttl without changes.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Load returns the context saved for the session.
func (s *Store) Load(ctx context.Context, sessionID string) (*Context, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoApproval
	}
	if err != nil {
		return nil, fmt.Errorf("load approval: %w", err)
	}
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode approval: %w", err)
	}
	return &c, nil
}

// Save writes the context and restarts its TTL.
func (s *Store) Save(ctx context.Context, sessionID string, c *Context) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode approval: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save approval: %w", err)
	}
	return nil
}

// Delete drops the session's context.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete approval: %w", err)
	}
	return nil
}

func (s *Store) key(sessionID string) string {
	return "approval:" + sessionID
}
