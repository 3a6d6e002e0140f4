package cart

import "github.com/angelmondragon/storefront/pkg/types"

// State is the cart as the application sees it. Cart is always the last
// server projection; Pending marks products with a request in flight.
type State struct {
	Cart    types.Cart
	Pending map[string]bool
	Loading bool
	Loaded  bool
	Err     error
}

// IsPending reports whether productID has a request in flight.
func (s State) IsPending(productID string) bool {
	return s.Pending[productID]
}

type ActionKind string

const (
	ActionFetchStarted      ActionKind = "fetch_started"
	ActionFetched           ActionKind = "fetched"
	ActionFetchFailed       ActionKind = "fetch_failed"
	ActionMutationStarted   ActionKind = "mutation_started"
	ActionMutationSucceeded ActionKind = "mutation_succeeded"
	ActionMutationFailed    ActionKind = "mutation_failed"
	ActionCleared           ActionKind = "cleared"
)

type Action struct {
	Kind      ActionKind
	ProductID string
	Cart      types.Cart
	Err       error
}

// Reduce returns the state that results from applying a to s. It never
// mutates s.
func Reduce(s State, a Action) State {
	next := State{
		Cart:    s.Cart.Clone(),
		Pending: make(map[string]bool, len(s.Pending)),
		Loading: s.Loading,
		Loaded:  s.Loaded,
		Err:     s.Err,
	}
	for id, pending := range s.Pending {
		if pending {
			next.Pending[id] = true
		}
	}

	switch a.Kind {
	case ActionFetchStarted:
		next.Loading = true
		next.Err = nil
	case ActionFetched:
		next.Cart = a.Cart.Clone()
		next.Loading = false
		next.Loaded = true
		next.Err = nil
	case ActionFetchFailed:
		next.Loading = false
		next.Err = a.Err
	case ActionMutationStarted:
		next.Pending[a.ProductID] = true
		next.Err = nil
	case ActionMutationSucceeded:
		delete(next.Pending, a.ProductID)
		next.Cart = a.Cart.Clone()
		next.Loaded = true
		next.Err = nil
	case ActionMutationFailed:
		delete(next.Pending, a.ProductID)
		next.Err = a.Err
	case ActionCleared:
		next.Cart = types.EmptyCart()
		next.Loaded = true
		next.Err = nil
	}
	return next
}
