package cart

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	handler func(method, path string) (types.Cart, error)
}

func (f *fakeAPI) Get(ctx context.Context, p apiclient.Path, out any, _ ...apiclient.RequestOption) error {
	return f.do(http.MethodGet, p, out)
}

func (f *fakeAPI) Post(ctx context.Context, p apiclient.Path, _ any, out any, _ ...apiclient.RequestOption) error {
	return f.do(http.MethodPost, p, out)
}

func (f *fakeAPI) Put(ctx context.Context, p apiclient.Path, _ any, out any, _ ...apiclient.RequestOption) error {
	return f.do(http.MethodPut, p, out)
}

func (f *fakeAPI) Delete(ctx context.Context, p apiclient.Path, out any, _ ...apiclient.RequestOption) error {
	return f.do(http.MethodDelete, p, out)
}

func (f *fakeAPI) do(method string, p apiclient.Path, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+p.String())
	handler := f.handler
	f.mu.Unlock()

	cart, err := handler(method, p.String())
	if err != nil {
		return err
	}
	if target, ok := out.(*types.Cart); ok {
		*target = cart
	}
	return nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) count(prefix string) int {
	n := 0
	for _, call := range f.Calls() {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func statusError(method, route string, status int, message string) error {
	respErr := &apiclient.ResponseError{Method: method, Route: route, StatusCode: status, Message: message}
	return pkgerrors.Wrap(pkgerrors.CodeForStatus(status), respErr, message)
}

// serverCart models the remote cart closely enough to drive the client.
type serverCart struct {
	mu    sync.Mutex
	id    string
	lines []types.CartLine
}

func (s *serverCart) handle(method, path string) (types.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case method == http.MethodGet && path == routeCart:
		if s.id == "" {
			return types.Cart{}, statusError(method, routeCart, http.StatusNotFound, "Cart not found")
		}
		return s.projection(), nil
	case method == http.MethodPost && len(parts) == 5:
		qty, _ := strconv.Atoi(parts[4])
		if s.id == "" {
			s.id = "cart-1"
		}
		for i := range s.lines {
			if s.lines[i].ProductID == parts[2] {
				s.lines[i].Quantity += qty
				return s.projection(), nil
			}
		}
		s.lines = append(s.lines, types.CartLine{ProductID: parts[2], ProductName: "Product " + parts[2], Price: decimal.NewFromInt(10), Quantity: qty})
		return s.projection(), nil
	case method == http.MethodPut && len(parts) == 5:
		for i := range s.lines {
			if s.lines[i].ProductID != parts[2] {
				continue
			}
			if parts[4] == "increase" {
				s.lines[i].Quantity++
			} else {
				s.lines[i].Quantity--
			}
			return s.projection(), nil
		}
		return types.Cart{}, statusError(method, routeChangeQuantity, http.StatusNotFound, "Product not found")
	case method == http.MethodDelete && len(parts) == 4:
		for i := range s.lines {
			if s.lines[i].ProductID == parts[3] {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
				return types.Cart{}, nil
			}
		}
		return types.Cart{}, statusError(method, routeRemoveProduct, http.StatusNotFound, "Product not found")
	}
	return types.Cart{}, fmt.Errorf("unexpected request %s %s", method, path)
}

func (s *serverCart) projection() types.Cart {
	cart := types.Cart{CartID: s.id, Lines: make([]types.CartLine, len(s.lines)), Total: decimal.Zero}
	copy(cart.Lines, s.lines)
	for _, line := range s.lines {
		cart.Total = cart.Total.Add(line.EffectivePrice().Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return cart
}
