package enums

// CheckoutStep is a state of the checkout wizard.
type CheckoutStep string

const (
	CheckoutSelectingAddress CheckoutStep = "selecting_address"
	CheckoutSelectingPayment CheckoutStep = "selecting_payment"
	CheckoutReviewing        CheckoutStep = "reviewing"
	CheckoutConfirmed        CheckoutStep = "confirmed"
	CheckoutCancelled        CheckoutStep = "cancelled"
)

var checkoutOrder = []CheckoutStep{
	CheckoutSelectingAddress,
	CheckoutSelectingPayment,
	CheckoutReviewing,
	CheckoutConfirmed,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// Index returns the position of the step in the linear flow, or -1 for exits.
func (c CheckoutStep) Index() int {
	for i, candidate := range checkoutOrder {
		if candidate == c {
			return i
		}
	}
	return -1
}

// Terminal reports whether the wizard can no longer move.
func (c CheckoutStep) Terminal() bool {
	return c == CheckoutConfirmed || c == CheckoutCancelled
}
