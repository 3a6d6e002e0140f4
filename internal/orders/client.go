package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	routeCreateOrder = "/order/users/payments/{method}"
	routeUserOrders  = "/order/users"
)

type api interface {
	Get(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, p apiclient.Path, body, out any, opts ...apiclient.RequestOption) error
}

// Client places and lists orders for the signed-in user.
type Client struct {
	api  api
	logg *logger.Logger
}

func NewClient(a api, logg *logger.Logger) (*Client, error) {
	if a == nil {
		return nil, fmt.Errorf("orders api client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{api: a, logg: logg}, nil
}

// NewCODRequest builds the body for a cash-on-delivery order.
func NewCODRequest(addressID string) types.OrderRequest {
	return types.OrderRequest{
		AddressID:         addressID,
		PaymentMethod:     enums.PaymentMethodCOD.String(),
		PGName:            "cod",
		PGStatus:          "pending",
		PGResponseMessage: "cash on delivery",
	}
}

// Create submits one order. idempotencyKey, when set, lets the server
// collapse a duplicate submission of the same checkout.
func (c *Client) Create(ctx context.Context, method enums.PaymentMethod, req types.OrderRequest, idempotencyKey string) (types.Order, error) {
	if !method.IsValid() {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}
	if strings.TrimSpace(req.AddressID) == "" {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = method.String()
	}

	ctx = c.logg.WithFields(ctx, map[string]any{
		"payment_method": method.String(),
		"address_id":     req.AddressID,
	})

	var order types.Order
	err := c.api.Post(ctx, apiclient.Route(routeCreateOrder, method.PathSegment()), req, &order, apiclient.WithIdempotencyKey(idempotencyKey))
	if err != nil {
		c.logg.Warn(ctx, "order.create.failed")
		return types.Order{}, err
	}
	c.logg.Info(c.logg.WithField(ctx, "order_id", order.OrderID), "order.created")
	return order, nil
}

// List returns the user's order history, newest first as the server sends it.
func (c *Client) List(ctx context.Context) ([]types.Order, error) {
	var list []types.Order
	if err := c.api.Get(ctx, apiclient.Route(routeUserOrders), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []types.Order{}
	}
	return list, nil
}
