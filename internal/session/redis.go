package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledgerbot:session:"

// RedisStore keeps sessions in Redis with a server-side TTL, so several
// webhook replicas share the same conversational state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore returns a store using client. ttl bounds every session
// (SET ... EX); sessions carrying an ExpiresAt use the remaining time instead.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisStore) Get(ctx context.Context, userID string) (Session, error) {
	raw, err := r.client.Get(ctx, keyPrefix+userID).Bytes()
	return r.decode(raw, err)
}

func (r *RedisStore) Set(ctx context.Context, s Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := r.ttl
	if !s.ExpiresAt.IsZero() {
		ttl = s.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return r.Delete(ctx, s.UserID)
		}
	}
	return r.client.Set(ctx, keyPrefix+s.UserID, b, ttl).Err()
}

// Take uses GETDEL so two concurrent takers never both receive the session.
func (r *RedisStore) Take(ctx context.Context, userID string) (Session, error) {
	raw, err := r.client.GetDel(ctx, keyPrefix+userID).Bytes()
	return r.decode(raw, err)
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, keyPrefix+userID).Err()
}

func (r *RedisStore) decode(raw []byte, err error) (Session, error) {
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if s.Expired(r.now()) {
		return Session{}, ErrNotFound
	}
	return s, nil
}
