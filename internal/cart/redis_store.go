package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/types"
)

const defaultSnapshotTTL = 15 * time.Minute

// RedisStore shares snapshots between processes, so repeated CLI
// invocations observe the same debounce window.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, owner string) (Snapshot, error) {
	raw, err := r.client.Get(ctx, r.client.CartSnapshotKey(owner))
	if errors.Is(err, redis.ErrNotFound) {
		return Snapshot{}, ErrSnapshotMiss
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get cart snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	if snap.Cart.Lines == nil {
		snap.Cart.Lines = []types.CartLine{}
	}
	return snap, nil
}

func (r *RedisStore) Save(ctx context.Context, owner string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.client.CartSnapshotKey(owner), string(payload), r.ttl); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, r.client.CartSnapshotKey(owner)); err != nil {
		return fmt.Errorf("redis delete cart snapshot: %w", err)
	}
	return nil
}
