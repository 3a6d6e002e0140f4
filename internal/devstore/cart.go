package devstore

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Cart returns the user's cart. A user who never added anything has no
// cart and gets CodeNotFound, which clients read as empty.
func (s *Store) Cart(userID string) (types.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.carts[userID]
	if !ok {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
	}
	return rec.view(), nil
}

// AddToCart adds qty units of a product. Adding a product already in the
// cart merges into its line; stock is checked against the merged quantity.
func (s *Store) AddToCart(userID, productID string, qty int) (types.Cart, error) {
	if qty < 1 {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product, err := s.productLocked(productID)
	if err != nil {
		return types.Cart{}, err
	}
	if product.Quantity == 0 {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeStateConflict, product.ProductName+" is not available")
	}
	rec := s.cartLocked(userID)
	i, exists := rec.index(productID)
	total := qty
	if exists {
		total += rec.lines[i].Quantity
	}
	if total > product.Quantity {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("Please, make an order of the %s less than or equal to the quantity %d.", product.ProductName, product.Quantity))
	}
	if exists {
		rec.lines[i] = lineFor(*product, total)
	} else {
		rec.lines = append(rec.lines, lineFor(*product, total))
	}
	return rec.view(), nil
}

// ChangeQuantity moves a line by one unit. A decrease that reaches zero
// removes the line.
func (s *Store) ChangeQuantity(userID, productID string, direction enums.QuantityDirection) (types.Cart, error) {
	if !direction.IsValid() {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity direction %q", direction))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.carts[userID]
	if !ok {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
	}
	i, ok := rec.index(productID)
	if !ok {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "Product not available in the cart")
	}
	product, err := s.productLocked(productID)
	if err != nil {
		return types.Cart{}, err
	}

	next := rec.lines[i].Quantity + 1
	if direction == enums.QuantityDecrease {
		next = rec.lines[i].Quantity - 1
	}
	if next > product.Quantity {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("Please, make an order of the %s less than or equal to the quantity %d.", product.ProductName, product.Quantity))
	}
	if next <= 0 {
		rec.lines = append(rec.lines[:i], rec.lines[i+1:]...)
	} else {
		rec.lines[i] = lineFor(*product, next)
	}
	return rec.view(), nil
}

// RemoveFromCart drops a line from the identified cart, which must belong
// to the user.
func (s *Store) RemoveFromCart(userID, cartID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.carts[userID]
	if !ok || rec.id != cartID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found with cartId: "+cartID)
	}
	i, ok := rec.index(productID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found with productId: "+productID)
	}
	rec.lines = append(rec.lines[:i], rec.lines[i+1:]...)
	return nil
}

func (s *Store) cartLocked(userID string) *cartRecord {
	rec, ok := s.carts[userID]
	if !ok {
		s.nextCart++
		rec = &cartRecord{id: strconv.Itoa(s.nextCart)}
		s.carts[userID] = rec
	}
	return rec
}

func lineFor(p types.Product, qty int) types.CartLine {
	line := types.CartLine{
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Image:       p.Image,
		Price:       p.Price,
		Quantity:    qty,
	}
	if p.Discount.IsPositive() {
		sp := p.SpecialPrice
		line.SpecialPrice = &sp
	}
	return line
}

func (c *cartRecord) index(productID string) (int, bool) {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i, true
		}
	}
	return 0, false
}

func (c *cartRecord) total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.EffectivePrice().Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (c *cartRecord) view() types.Cart {
	cart := types.Cart{CartID: c.id, Lines: make([]types.CartLine, len(c.lines)), Total: c.total()}
	copy(cart.Lines, c.lines)
	return cart.Clone()
}
