package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeStore remembers keys with SETNX so repeated work can be skipped.
type DedupeStore struct {
	client *redis.Client
}

// NewDedupeStore creates a new DedupeStore.
func NewDedupeStore(client *redis.Client) *DedupeStore {
	return &DedupeStore{client: client}
}

// FirstSeen records key for ttl. Returns true if the key was not present.
func (s *DedupeStore) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, "dedupe:"+key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
