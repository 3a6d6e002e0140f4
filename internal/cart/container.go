package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

type syncer interface {
	FetchCart(ctx context.Context) (types.Cart, error)
	AddItem(ctx context.Context, productID string, qty int) (types.Cart, error)
	ChangeQuantity(ctx context.Context, productID string, direction enums.QuantityDirection) (types.Cart, error)
	RemoveAndReload(ctx context.Context, cartID, productID string) (types.Cart, error)
	Clear(ctx context.Context) types.Cart
}

// Container is the single writer of cart State. Intents go through the sync
// client and every outcome is folded in with Reduce.
type Container struct {
	client syncer

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

func NewContainer(s syncer) (*Container, error) {
	if s == nil {
		return nil, fmt.Errorf("cart sync client required")
	}
	return &Container{
		client: s,
		state:  State{Cart: types.EmptyCart(), Pending: map[string]bool{}},
		subs:   map[int]func(State){},
	}, nil
}

// State returns a copy of the current state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Reduce(c.state, Action{})
}

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (c *Container) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Load reads the cart, honoring the debounce window.
func (c *Container) Load(ctx context.Context) (State, error) {
	c.dispatch(Action{Kind: ActionFetchStarted})
	cart, err := c.client.FetchCart(ctx)
	if err != nil {
		return c.dispatch(Action{Kind: ActionFetchFailed, Err: err}), err
	}
	return c.dispatch(Action{Kind: ActionFetched, Cart: cart}), nil
}

// Add adds qty of productID. A second intent for the same product while the
// first is in flight is rejected without a request.
func (c *Container) Add(ctx context.Context, productID string, qty int) (State, error) {
	return c.mutate(ctx, productID, func(ctx context.Context, id string) (types.Cart, error) {
		return c.client.AddItem(ctx, id, qty)
	})
}

func (c *Container) Increase(ctx context.Context, productID string) (State, error) {
	return c.mutate(ctx, productID, func(ctx context.Context, id string) (types.Cart, error) {
		return c.client.ChangeQuantity(ctx, id, enums.QuantityIncrease)
	})
}

// Decrease lowers a line by one; at quantity one it removes the line.
func (c *Container) Decrease(ctx context.Context, productID string) (State, error) {
	return c.mutate(ctx, productID, func(ctx context.Context, id string) (types.Cart, error) {
		return c.client.ChangeQuantity(ctx, id, enums.QuantityDecrease)
	})
}

// Remove deletes a line. The cart id comes from the held cart, or from a
// fetch when nothing has been loaded yet.
func (c *Container) Remove(ctx context.Context, productID string) (State, error) {
	return c.mutate(ctx, productID, func(ctx context.Context, id string) (types.Cart, error) {
		cartID := c.State().Cart.CartID
		if cartID == "" {
			current, err := c.client.FetchCart(ctx)
			if err != nil {
				return types.Cart{}, err
			}
			cartID = current.CartID
		}
		return c.client.RemoveAndReload(ctx, cartID, id)
	})
}

// Clear empties the projection locally. The server cart is untouched.
func (c *Container) Clear(ctx context.Context) State {
	c.client.Clear(ctx)
	return c.dispatch(Action{Kind: ActionCleared})
}

func (c *Container) mutate(ctx context.Context, productID string, call func(context.Context, string) (types.Cart, error)) (State, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		return c.State(), err
	}
	if err := c.begin(productID); err != nil {
		return c.State(), err
	}

	cart, err := call(ctx, productID)
	if err != nil {
		return c.dispatch(Action{Kind: ActionMutationFailed, ProductID: productID, Err: err}), err
	}
	return c.dispatch(Action{Kind: ActionMutationSucceeded, ProductID: productID, Cart: cart}), nil
}

func (c *Container) begin(productID string) error {
	c.mu.Lock()
	if c.state.IsPending(productID) {
		c.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeInFlight, fmt.Sprintf("a request for product %s is already in flight", productID))
	}
	c.state = Reduce(c.state, Action{Kind: ActionMutationStarted, ProductID: productID})
	state, subs := c.snapshotLocked()
	c.mu.Unlock()
	notify(subs, state)
	return nil
}

func (c *Container) dispatch(a Action) State {
	c.mu.Lock()
	c.state = Reduce(c.state, a)
	state, subs := c.snapshotLocked()
	c.mu.Unlock()
	notify(subs, state)
	return state
}

func (c *Container) snapshotLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return Reduce(c.state, Action{}), subs
}

func notify(subs []func(State), state State) {
	for _, fn := range subs {
		if fn != nil {
			fn(state)
		}
	}
}
