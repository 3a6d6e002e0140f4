package devstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// PlaceOrder turns the user's cart into an order. Stock is reserved, the
// total is computed from catalog prices, and the cart is emptied in the
// same step so a failed order leaves everything untouched.
func (s *Store) PlaceOrder(userID string, method enums.PaymentMethod, req types.OrderRequest) (types.Order, error) {
	if !method.IsValid() {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if strings.TrimSpace(req.AddressID) == "" {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
	}
	if _, err := s.addressIndexLocked(userID, req.AddressID); err != nil {
		return types.Order{}, err
	}
	rec, ok := s.carts[userID]
	if !ok || len(rec.lines) == 0 {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Cart is empty")
	}

	products := make([]*types.Product, len(rec.lines))
	for i, line := range rec.lines {
		p, err := s.productLocked(line.ProductID)
		if err != nil {
			return types.Order{}, err
		}
		if line.Quantity > p.Quantity {
			return types.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Insufficient stock for "+p.ProductName)
		}
		products[i] = p
	}

	s.nextPayment++
	payment := types.Payment{
		PaymentID:         strconv.Itoa(s.nextPayment),
		PaymentMethod:     method.String(),
		PGName:            req.PGName,
		PGPaymentID:       req.PGPaymentID,
		PGStatus:          req.PGStatus,
		PGResponseMessage: req.PGResponseMessage,
	}
	s.nextOrder++
	order := types.Order{
		OrderID:     strconv.Itoa(s.nextOrder),
		Email:       user.user.Email,
		OrderDate:   s.now().UTC().Format(time.DateOnly),
		Status:      enums.OrderStatusAccepted.String(),
		Items:       make([]types.OrderItem, 0, len(rec.lines)),
		Payment:     payment,
		TotalAmount: rec.total(),
		AddressID:   req.AddressID,
	}
	for i, line := range rec.lines {
		s.nextItem++
		order.Items = append(order.Items, types.OrderItem{
			OrderItemID:         strconv.Itoa(s.nextItem),
			ProductID:           line.ProductID,
			ProductName:         line.ProductName,
			Quantity:            line.Quantity,
			Discount:            products[i].Discount,
			OrderedProductPrice: line.EffectivePrice(),
		})
		products[i].Quantity -= line.Quantity
	}
	rec.lines = nil
	s.orders[userID] = append([]types.Order{order}, s.orders[userID]...)
	return order, nil
}

// Orders lists the user's orders, newest first.
func (s *Store) Orders(userID string) []types.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Order, len(s.orders[userID]))
	copy(out, s.orders[userID])
	return out
}
