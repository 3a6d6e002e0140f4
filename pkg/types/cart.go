package types

import "github.com/shopspring/decimal"

// CartLine is one product in the server cart. ProductID is unique per cart.
type CartLine struct {
	ProductID    string           `json:"productId"`
	ProductName  string           `json:"productName"`
	Image        string           `json:"image,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	SpecialPrice *decimal.Decimal `json:"specialPrice,omitempty"`
	Quantity     int              `json:"quantity"`
}

// EffectivePrice is the discounted price when present, else the unit price.
func (l CartLine) EffectivePrice() decimal.Decimal {
	if l.SpecialPrice != nil {
		return *l.SpecialPrice
	}
	return l.Price
}

// Cart is the projection of the server cart: line items plus the total the
// server computed.
type Cart struct {
	CartID string          `json:"cartId,omitempty"`
	Lines  []CartLine      `json:"products"`
	Total  decimal.Decimal `json:"totalPrice"`
}

// EmptyCart is the projection used when the server has no cart.
func EmptyCart() Cart {
	return Cart{Lines: []CartLine{}, Total: decimal.Zero}
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line finds the line for a product.
func (c Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// ItemCount sums quantities across lines.
func (c Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// Clone deep-copies the cart so callers cannot mutate a cached projection.
func (c Cart) Clone() Cart {
	out := Cart{CartID: c.CartID, Total: c.Total, Lines: make([]CartLine, len(c.Lines))}
	for i, line := range c.Lines {
		out.Lines[i] = line
		if line.SpecialPrice != nil {
			sp := *line.SpecialPrice
			out.Lines[i].SpecialPrice = &sp
		}
	}
	return out
}

// Equal compares two projections by value, treating money numerically.
func (c Cart) Equal(other Cart) bool {
	if c.CartID != other.CartID || !c.Total.Equal(other.Total) || len(c.Lines) != len(other.Lines) {
		return false
	}
	for i := range c.Lines {
		a, b := c.Lines[i], other.Lines[i]
		if a.ProductID != b.ProductID || a.ProductName != b.ProductName || a.Image != b.Image || a.Quantity != b.Quantity {
			return false
		}
		if !a.Price.Equal(b.Price) {
			return false
		}
		if (a.SpecialPrice == nil) != (b.SpecialPrice == nil) {
			return false
		}
		if a.SpecialPrice != nil && !a.SpecialPrice.Equal(*b.SpecialPrice) {
			return false
		}
	}
	return true
}
