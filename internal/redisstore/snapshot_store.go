package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"greenhat/internal/models"
)

const snapshotKey = "admin:snapshot:last"

// Store keeps the last good portal snapshot in redis so a restart can serve
// data before the first poll completes. Transient cache only: the portal
// owns every entity, this value just bridges the gap to the next fetch.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Save caches the snapshot.
func (s *Store) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey, data, s.ttl).Err()
}

// Load returns the cached snapshot, or nil when the cache is cold.
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	result, err := s.client.Get(ctx, snapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(result), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
