package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Estimate is a display-only breakdown shown before submission. The order
// returned by the server supersedes it.
type Estimate struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Shipping    decimal.Decimal
	Total       decimal.Decimal
	Provisional bool
}

// Estimator derives provisional tax and shipping from the server cart total.
type Estimator struct {
	TaxRate  decimal.Decimal
	Shipping decimal.Decimal
}

// NewEstimator parses the configured rate and flat shipping fee.
func NewEstimator(taxRate, shippingFlat string) (Estimator, error) {
	rate, err := parseAmount(taxRate)
	if err != nil {
		return Estimator{}, fmt.Errorf("parse tax rate: %w", err)
	}
	shipping, err := parseAmount(shippingFlat)
	if err != nil {
		return Estimator{}, fmt.Errorf("parse shipping fee: %w", err)
	}
	if rate.IsNegative() || shipping.IsNegative() {
		return Estimator{}, fmt.Errorf("tax rate and shipping fee must be non-negative")
	}
	return Estimator{TaxRate: rate, Shipping: shipping}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// Estimate uses the cart total as the subtotal; an empty cart ships for free.
func (e Estimator) Estimate(cart types.Cart) Estimate {
	subtotal := cart.Total
	tax := subtotal.Mul(e.TaxRate).Round(2)
	shipping := e.Shipping
	if cart.IsEmpty() {
		shipping = decimal.Zero
	}
	return Estimate{
		Subtotal:    subtotal,
		Tax:         tax,
		Shipping:    shipping,
		Total:       subtotal.Add(tax).Add(shipping),
		Provisional: true,
	}
}
