package address

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	routeUserAddresses = "/users/addresses"
	routeAddresses     = "/addresses"
	routeAddress       = "/addresses/{addressId}"
)

type api interface {
	Get(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, p apiclient.Path, body, out any, opts ...apiclient.RequestOption) error
	Put(ctx context.Context, p apiclient.Path, body, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
}

// Manager keeps the user's saved addresses. The cached list is only ever
// replaced by a full reload; mutations never patch it in place.
type Manager struct {
	api  api
	logg *logger.Logger

	mu     sync.RWMutex
	list   []types.Address
	loaded bool
}

func NewManager(a api, logg *logger.Logger) (*Manager, error) {
	if a == nil {
		return nil, fmt.Errorf("address api client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{api: a, logg: logg}, nil
}

// List reloads the addresses from the server.
func (m *Manager) List(ctx context.Context) ([]types.Address, error) {
	var list []types.Address
	if err := m.api.Get(ctx, apiclient.Route(routeUserAddresses), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []types.Address{}
	}

	m.mu.Lock()
	m.list = list
	m.loaded = true
	m.mu.Unlock()
	return cloneList(list), nil
}

// Cached returns the last loaded list and whether one was loaded.
func (m *Manager) Cached() ([]types.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneList(m.list), m.loaded
}

// Find looks an address up in the cached list.
func (m *Manager) Find(id string) (types.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, addr := range m.list {
		if addr.ID == id {
			return addr, true
		}
	}
	return types.Address{}, false
}

// Create validates and saves a new address, then reloads the list.
func (m *Manager) Create(ctx context.Context, fields types.AddressFields) ([]types.Address, error) {
	fields = fields.Trimmed()
	if err := Validate(fields); err != nil {
		return nil, err
	}
	if err := m.api.Post(ctx, apiclient.Route(routeAddresses), fields, nil); err != nil {
		m.logg.Warn(m.logg.WithOperation(ctx, "address.create"), "address.mutation.failed")
		return nil, err
	}
	return m.List(ctx)
}

// Update validates and replaces an address, then reloads the list.
func (m *Manager) Update(ctx context.Context, id string, fields types.AddressFields) ([]types.Address, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	fields = fields.Trimmed()
	if err := Validate(fields); err != nil {
		return nil, err
	}
	if err := m.api.Put(ctx, apiclient.Route(routeAddress, id), fields, nil); err != nil {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{"op": "address.update", "address_id": id}), "address.mutation.failed")
		return nil, err
	}
	return m.List(ctx)
}

// Delete removes an address, then reloads the list.
func (m *Manager) Delete(ctx context.Context, id string) ([]types.Address, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if err := m.api.Delete(ctx, apiclient.Route(routeAddress, id), nil); err != nil {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{"op": "address.delete", "address_id": id}), "address.mutation.failed")
		return nil, err
	}
	return m.List(ctx)
}

func cloneList(list []types.Address) []types.Address {
	out := make([]types.Address, len(list))
	copy(out, list)
	return out
}
