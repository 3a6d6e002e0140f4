package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	routeCart           = "/carts/users/cart"
	routeAddProduct     = "/carts/products/{productId}/quantity/{qty}"
	routeChangeQuantity = "/carts/products/{productId}/quantity/{direction}"
	routeRemoveProduct  = "/carts/{cartId}/product/{productId}"

	defaultOwner = "anonymous"

	// maxRefreshAttempts bounds re-reads when a removal lands while a fetch
	// is in flight.
	maxRefreshAttempts = 3
)

type refreshResult struct {
	cart    types.Cart
	current bool
}

// API is the slice of the HTTP client the cart needs.
type API interface {
	Get(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, p apiclient.Path, body, out any, opts ...apiclient.RequestOption) error
	Put(ctx context.Context, p apiclient.Path, body, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
}

// SyncOptions configures a SyncClient. Zero values fall back to an
// in-memory store, the default debounce window and a no-op logger.
type SyncOptions struct {
	Owner   string
	Store   Store
	Policy  FreshnessPolicy
	Logger  *logger.Logger
	Metrics *metrics.CartCacheMetrics
}

// SyncClient keeps a local projection of the server cart. Every successful
// response replaces the projection wholesale; responses are applied in
// request order so a slow older response never overwrites a newer one.
type SyncClient struct {
	api     API
	store   Store
	policy  FreshnessPolicy
	owner   string
	logg    *logger.Logger
	metrics *metrics.CartCacheMetrics
	group   singleflight.Group

	seq     atomic.Uint64
	flight  atomic.Uint64
	mu      sync.Mutex
	applied uint64
}

func NewSyncClient(api API, opts SyncOptions) (*SyncClient, error) {
	if api == nil {
		return nil, fmt.Errorf("cart api client required")
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Policy.Window == 0 && opts.Policy.Now == nil {
		opts.Policy = NewFreshnessPolicy(DefaultDebounceWindow)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	owner := strings.TrimSpace(opts.Owner)
	if owner == "" {
		owner = defaultOwner
	}
	return &SyncClient{
		api:     api,
		store:   opts.Store,
		policy:  opts.Policy,
		owner:   owner,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

// FetchCart returns the projection, reading through to the server unless the
// last fetch is still inside the debounce window. A cart the server does not
// know about is an empty cart, not an error.
func (c *SyncClient) FetchCart(ctx context.Context) (types.Cart, error) {
	if snap, ok := c.load(ctx); ok && c.policy.Fresh(snap) {
		c.metrics.IncHit()
		return snap.Cart, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches from the server regardless of the debounce window.
// Concurrent callers share one request, except that a removal starts a new
// flight: a read that began before it never answers a read issued after it.
func (c *SyncClient) Refresh(ctx context.Context) (types.Cart, error) {
	c.metrics.IncMiss()
	var cart types.Cart
	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		v, err, _ := c.group.Do(c.flightKey(), func() (any, error) {
			seq := c.seq.Add(1)
			var fetched types.Cart
			err := c.api.Get(ctx, apiclient.Route(routeCart), &fetched)
			if apiclient.IsStatus(err, http.StatusNotFound, http.StatusBadRequest) {
				c.logg.Debug(c.logg.WithField(ctx, "status", apiclient.StatusCode(err)), "cart.fetch.not_found")
				fetched, err = types.EmptyCart(), nil
			}
			if err != nil {
				return nil, err
			}
			applied, current := c.applyResult(ctx, seq, fetched, true)
			return refreshResult{cart: applied, current: current}, nil
		})
		if err != nil {
			return types.Cart{}, err
		}
		res := v.(refreshResult)
		cart = res.cart
		if res.current {
			break
		}
		c.logg.Debug(c.logg.WithField(ctx, "attempt", attempt+1), "cart.fetch.superseded")
	}
	return cart.Clone(), nil
}

// AddItem adds qty of a product. The response replaces the projection and
// the debounce window is invalidated.
func (c *SyncClient) AddItem(ctx context.Context, productID string, qty int) (types.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	seq := c.seq.Add(1)
	var cart types.Cart
	if err := c.api.Post(ctx, apiclient.Route(routeAddProduct, productID, strconv.Itoa(qty)), nil, &cart); err != nil {
		return types.Cart{}, err
	}
	return c.apply(ctx, seq, cart, false), nil
}

// ChangeQuantity moves a line up or down by one. A decrease on a line at
// quantity one is a removal; the server never sees a decrease to zero.
func (c *SyncClient) ChangeQuantity(ctx context.Context, productID string, direction enums.QuantityDirection) (types.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !direction.IsValid() {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity direction %q", direction))
	}

	if direction == enums.QuantityDecrease {
		current, err := c.known(ctx)
		if err != nil {
			return types.Cart{}, err
		}
		line, ok := current.Line(productID)
		if !ok {
			return types.Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is not in the cart", productID))
		}
		if line.Quantity <= 1 {
			return c.RemoveAndReload(ctx, current.CartID, productID)
		}
	}

	seq := c.seq.Add(1)
	var cart types.Cart
	if err := c.api.Put(ctx, apiclient.Route(routeChangeQuantity, productID, direction.String()), nil, &cart); err != nil {
		return types.Cart{}, err
	}
	return c.apply(ctx, seq, cart, false), nil
}

// RemoveItem deletes a line and drops the cached projection so the next
// read goes to the server.
func (c *SyncClient) RemoveItem(ctx context.Context, cartID, productID string) error {
	cartID = strings.TrimSpace(cartID)
	productID = strings.TrimSpace(productID)
	if cartID == "" || productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id and product id are required")
	}

	seq := c.seq.Add(1)
	if err := c.api.Delete(ctx, apiclient.Route(routeRemoveProduct, cartID, productID), nil); err != nil {
		return err
	}
	c.invalidate(ctx, seq)
	return nil
}

// RemoveAndReload is the single removal path: delete the line, then read
// the cart back from the server.
func (c *SyncClient) RemoveAndReload(ctx context.Context, cartID, productID string) (types.Cart, error) {
	if err := c.RemoveItem(ctx, cartID, productID); err != nil {
		return types.Cart{}, err
	}
	return c.Refresh(ctx)
}

// Clear empties the local projection without contacting the server.
// Calling it again is a no-op.
func (c *SyncClient) Clear(ctx context.Context) types.Cart {
	seq := c.seq.Add(1)
	return c.apply(ctx, seq, types.EmptyCart(), true)
}

// Cached returns the last applied projection, fresh or not.
func (c *SyncClient) Cached(ctx context.Context) (types.Cart, bool) {
	snap, ok := c.load(ctx)
	if !ok {
		return types.Cart{}, false
	}
	return snap.Cart, true
}

// known returns the cached projection, fetching when nothing is cached.
func (c *SyncClient) known(ctx context.Context) (types.Cart, error) {
	if cart, ok := c.Cached(ctx); ok {
		return cart, nil
	}
	return c.Refresh(ctx)
}

func (c *SyncClient) load(ctx context.Context) (Snapshot, bool) {
	snap, err := c.store.Load(ctx, c.owner)
	if err != nil {
		if !errors.Is(err, ErrSnapshotMiss) {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart.snapshot.load_failed")
		}
		return Snapshot{}, false
	}
	return snap, true
}

// apply stores cart as the projection unless a newer response was already
// applied, in which case the newer projection is returned instead.
func (c *SyncClient) apply(ctx context.Context, seq uint64, cart types.Cart, fresh bool) types.Cart {
	applied, _ := c.applyResult(ctx, seq, cart, fresh)
	return applied
}

// applyResult reports false when cart was dropped as stale and no newer
// projection is stored to return in its place.
func (c *SyncClient) applyResult(ctx context.Context, seq uint64, cart types.Cart, fresh bool) (types.Cart, bool) {
	if cart.Lines == nil {
		cart.Lines = []types.CartLine{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.applied {
		c.metrics.IncStaleDrop()
		c.logg.Debug(c.logg.WithFields(ctx, map[string]any{"seq": seq, "applied": c.applied}), "cart.response.stale")
		if snap, ok := c.load(ctx); ok {
			return snap.Cart, true
		}
		return cart.Clone(), false
	}
	c.applied = seq

	snap := Snapshot{Cart: cart, Seq: seq}
	if fresh {
		snap.FetchedAt = c.policy.now()
	}
	if err := c.store.Save(ctx, c.owner, snap); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart.snapshot.save_failed")
	}
	return cart.Clone(), true
}

func (c *SyncClient) flightKey() string {
	return c.owner + "#" + strconv.FormatUint(c.flight.Load(), 10)
}

func (c *SyncClient) invalidate(ctx context.Context, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.applied {
		c.applied = seq
	}
	c.flight.Add(1)
	if err := c.store.Delete(ctx, c.owner); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart.snapshot.delete_failed")
	}
}
