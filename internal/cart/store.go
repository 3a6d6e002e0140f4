package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/types"
)

// ErrSnapshotMiss is returned by a Store when no snapshot is held for an owner.
var ErrSnapshotMiss = errors.New("cart snapshot miss")

// Snapshot is the last applied cart projection together with when it was
// fetched. A zero FetchedAt marks the projection as outside the debounce
// window.
type Snapshot struct {
	Cart      types.Cart `json:"cart"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Seq       uint64     `json:"seq"`
}

// Store keeps one snapshot per owner.
type Store interface {
	Load(ctx context.Context, owner string) (Snapshot, error)
	Save(ctx context.Context, owner string, snap Snapshot) error
	Delete(ctx context.Context, owner string) error
}

// MemoryStore is the in-process Store used when no Redis endpoint is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: map[string]Snapshot{}}
}

func (m *MemoryStore) Load(_ context.Context, owner string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[owner]
	if !ok {
		return Snapshot{}, ErrSnapshotMiss
	}
	snap.Cart = snap.Cart.Clone()
	return snap, nil
}

func (m *MemoryStore) Save(_ context.Context, owner string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Cart = snap.Cart.Clone()
	m.snaps[owner] = snap
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, owner)
	return nil
}
