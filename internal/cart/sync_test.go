package cart

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSync(t *testing.T, api API, clock *fakeClock) *SyncClient {
	t.Helper()
	client, err := NewSyncClient(api, SyncOptions{
		Owner:  "user1",
		Policy: FreshnessPolicy{Window: 500 * time.Millisecond, Now: clock.Now},
	})
	require.NoError(t, err)
	return client
}

func TestNewSyncClientRequiresAPI(t *testing.T) {
	_, err := NewSyncClient(nil, SyncOptions{})
	require.Error(t, err)
}

func TestFetchCartNotFoundIsCachedEmpty(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest} {
		api := &fakeAPI{handler: func(method, path string) (types.Cart, error) {
			return types.Cart{}, statusError(method, routeCart, status, "Cart not found")
		}}
		client := newTestSync(t, api, newFakeClock())

		cart, err := client.FetchCart(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, cart.Lines)
		assert.Empty(t, cart.Lines)
		assert.True(t, cart.Total.Equal(decimal.Zero))

		cached, ok := client.Cached(context.Background())
		require.True(t, ok)
		assert.True(t, cached.Equal(types.EmptyCart()))

		_, err = client.FetchCart(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, api.count("GET"), "empty projection should be served inside the window")
	}
}

func TestFetchCartOtherErrorsPropagate(t *testing.T) {
	serverErr := statusError(http.MethodGet, routeCart, http.StatusInternalServerError, "boom")
	api := &fakeAPI{handler: func(string, string) (types.Cart, error) {
		return types.Cart{}, serverErr
	}}
	client := newTestSync(t, api, newFakeClock())

	_, err := client.FetchCart(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, serverErr))
	_, ok := client.Cached(context.Background())
	assert.False(t, ok)
}

func TestFetchCartDebounceWindow(t *testing.T) {
	server := &serverCart{id: "cart-1"}
	api := &fakeAPI{handler: server.handle}
	clock := newFakeClock()
	client := newTestSync(t, api, clock)

	ctx := context.Background()
	_, err := client.FetchCart(ctx)
	require.NoError(t, err)
	clock.Advance(200 * time.Millisecond)
	_, err = client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET"))

	clock.Advance(400 * time.Millisecond)
	_, err = client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("GET"))
}

func TestFetchCartSharesInFlightRequest(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	api := &fakeAPI{handler: func(string, string) (types.Cart, error) {
		entered <- struct{}{}
		<-release
		return types.Cart{CartID: "cart-1", Lines: []types.CartLine{}}, nil
	}}
	client := newTestSync(t, api, newFakeClock())

	var wg sync.WaitGroup
	results := make(chan types.Cart, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart, err := client.Refresh(context.Background())
			if err == nil {
				results <- cart
			}
		}()
	}
	<-entered
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, 1, api.count("GET"))
	for cart := range results {
		assert.Equal(t, "cart-1", cart.CartID)
	}
}

func TestAddItemTwiceReplacesProjection(t *testing.T) {
	server := &serverCart{}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	first, err := client.AddItem(ctx, "P1", 1)
	require.NoError(t, err)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, 1, first.Lines[0].Quantity)

	second, err := client.AddItem(ctx, "P1", 1)
	require.NoError(t, err)

	cached, ok := client.Cached(ctx)
	require.True(t, ok)
	require.Len(t, cached.Lines, 1)
	assert.Equal(t, "P1", cached.Lines[0].ProductID)
	assert.Equal(t, 2, cached.Lines[0].Quantity)
	assert.True(t, cached.Equal(second))
	assert.True(t, cached.Equal(server.projection()))
}

func TestAddItemInvalidatesDebounceWindow(t *testing.T) {
	server := &serverCart{id: "cart-1"}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	_, err := client.FetchCart(ctx)
	require.NoError(t, err)
	_, err = client.AddItem(ctx, "P1", 3)
	require.NoError(t, err)
	cart, err := client.FetchCart(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("GET"))
	assert.Equal(t, 3, cart.ItemCount())
}

func TestAddItemValidatesInput(t *testing.T) {
	api := &fakeAPI{handler: (&serverCart{}).handle}
	client := newTestSync(t, api, newFakeClock())

	_, err := client.AddItem(context.Background(), " ", 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = client.AddItem(context.Background(), "P1", 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.Calls())
}

func TestChangeQuantityIncreaseAndDecrease(t *testing.T) {
	server := &serverCart{}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	_, err := client.AddItem(ctx, "P1", 1)
	require.NoError(t, err)

	cart, err := client.ChangeQuantity(ctx, "P1", enums.QuantityIncrease)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	cart, err = client.ChangeQuantity(ctx, "P1", enums.QuantityDecrease)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	assert.Equal(t, []string{
		"POST /carts/products/P1/quantity/1",
		"PUT /carts/products/P1/quantity/increase",
		"PUT /carts/products/P1/quantity/decrease",
	}, api.Calls())
}

func TestDecreaseFromOneRoutesToRemoval(t *testing.T) {
	server := &serverCart{}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	_, err := client.AddItem(ctx, "P1", 1)
	require.NoError(t, err)
	_, err = client.AddItem(ctx, "P2", 2)
	require.NoError(t, err)

	cart, err := client.ChangeQuantity(ctx, "P1", enums.QuantityDecrease)
	require.NoError(t, err)

	assert.Zero(t, api.count("PUT"), "a decrease from one must never be sent")
	assert.Equal(t, 1, api.count("DELETE /carts/cart-1/product/P1"))
	_, found := cart.Line("P1")
	assert.False(t, found)
	for _, line := range cart.Lines {
		assert.Positive(t, line.Quantity)
	}
}

func TestDecreaseUnknownProduct(t *testing.T) {
	server := &serverCart{}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())

	_, err := client.ChangeQuantity(context.Background(), "P9", enums.QuantityDecrease)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, []string{"GET /carts/users/cart"}, api.Calls())
}

func TestRemoveItemInvalidatesProjection(t *testing.T) {
	server := &serverCart{}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	_, err := client.AddItem(ctx, "P1", 1)
	require.NoError(t, err)
	require.NoError(t, client.RemoveItem(ctx, "cart-1", "P1"))

	_, ok := client.Cached(ctx)
	assert.False(t, ok)

	cart, err := client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, 1, api.count("GET"))
}

func TestRemoveItemRequiresIDs(t *testing.T) {
	api := &fakeAPI{handler: (&serverCart{}).handle}
	client := newTestSync(t, api, newFakeClock())

	err := client.RemoveItem(context.Background(), "", "P1")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.Calls())
}

func TestStaleFetchDoesNotOverwriteNewerMutation(t *testing.T) {
	server := &serverCart{id: "cart-1"}
	entered := make(chan struct{})
	release := make(chan struct{})
	var fetchResult types.Cart
	api := &fakeAPI{}
	api.handler = func(method, path string) (types.Cart, error) {
		if method == http.MethodGet {
			snapshot, err := server.handle(method, path)
			close(entered)
			<-release
			fetchResult = snapshot
			return snapshot, err
		}
		return server.handle(method, path)
	}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	done := make(chan types.Cart)
	go func() {
		cart, err := client.Refresh(ctx)
		assert.NoError(t, err)
		done <- cart
	}()

	<-entered
	added, err := client.AddItem(ctx, "P1", 1)
	require.NoError(t, err)
	close(release)
	fetched := <-done

	assert.Empty(t, fetchResult.Lines, "server answered the fetch before the add")
	assert.True(t, fetched.Equal(added))
	cached, ok := client.Cached(ctx)
	require.True(t, ok)
	assert.True(t, cached.Equal(added))
}

func TestReloadAfterRemoveIgnoresEarlierFetch(t *testing.T) {
	server := &serverCart{id: "cart-1", lines: []types.CartLine{{ProductID: "P1", Price: decimal.NewFromInt(10), Quantity: 1}}}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api := &fakeAPI{}
	api.handler = func(method, path string) (types.Cart, error) {
		cart, err := server.handle(method, path)
		if method == http.MethodGet {
			first := false
			once.Do(func() { first = true })
			if first {
				close(entered)
				<-release
			}
		}
		return cart, err
	}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	done := make(chan types.Cart)
	go func() {
		cart, err := client.Refresh(ctx)
		assert.NoError(t, err)
		done <- cart
	}()
	<-entered

	reloaded, err := client.RemoveAndReload(ctx, "cart-1", "P1")
	require.NoError(t, err)
	assert.Empty(t, reloaded.Lines)

	close(release)
	early := <-done
	assert.Empty(t, early.Lines, "older read must not resurrect the removed line")

	cached, ok := client.Cached(ctx)
	require.True(t, ok)
	assert.Empty(t, cached.Lines)
	assert.Equal(t, 2, api.count("GET"))
}

func TestFetchOverlappingRemoveReadsAgain(t *testing.T) {
	server := &serverCart{id: "cart-1", lines: []types.CartLine{{ProductID: "P1", Price: decimal.NewFromInt(10), Quantity: 1}}}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api := &fakeAPI{}
	api.handler = func(method, path string) (types.Cart, error) {
		cart, err := server.handle(method, path)
		if method == http.MethodGet {
			first := false
			once.Do(func() { first = true })
			if first {
				close(entered)
				<-release
			}
		}
		return cart, err
	}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	done := make(chan types.Cart)
	go func() {
		cart, err := client.Refresh(ctx)
		assert.NoError(t, err)
		done <- cart
	}()
	<-entered

	require.NoError(t, client.RemoveItem(ctx, "cart-1", "P1"))
	close(release)
	fetched := <-done

	assert.Empty(t, fetched.Lines)
	assert.Equal(t, 2, api.count("GET"))
}

func TestClearIsLocalAndIdempotent(t *testing.T) {
	server := &serverCart{}
	api := &fakeAPI{handler: server.handle}
	client := newTestSync(t, api, newFakeClock())
	ctx := context.Background()

	_, err := client.AddItem(ctx, "P1", 2)
	require.NoError(t, err)
	calls := len(api.Calls())

	first := client.Clear(ctx)
	second := client.Clear(ctx)
	assert.True(t, first.Equal(types.EmptyCart()))
	assert.True(t, second.Equal(types.EmptyCart()))
	assert.Len(t, api.Calls(), calls)

	cart, err := client.FetchCart(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Len(t, api.Calls(), calls)
}

func TestSyncClientsShareRedisDebounce(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	store := NewRedisStore(redis.Wrap(raw), time.Minute)

	server := &serverCart{id: "cart-1"}
	api := &fakeAPI{handler: server.handle}
	clock := newFakeClock()
	policy := FreshnessPolicy{Window: 500 * time.Millisecond, Now: clock.Now}

	first, err := NewSyncClient(api, SyncOptions{Owner: "user1", Store: store, Policy: policy})
	require.NoError(t, err)
	second, err := NewSyncClient(api, SyncOptions{Owner: "user1", Store: store, Policy: policy})
	require.NoError(t, err)

	_, err = first.FetchCart(context.Background())
	require.NoError(t, err)
	_, err = second.FetchCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET"))
}
