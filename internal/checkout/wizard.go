package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	DefaultRedirectDelay = 2 * time.Second
	DefaultOrigin        = "/checkout"
)

type orderCreator interface {
	Create(ctx context.Context, method enums.PaymentMethod, req types.OrderRequest, idempotencyKey string) (types.Order, error)
}

// CartClearer empties the local cart projection after an order is placed.
type CartClearer interface {
	Clear(ctx context.Context) cart.State
}

// Redirector sends the user to a new location.
type Redirector interface {
	Redirect(location string)
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(location string)

func (f RedirectFunc) Redirect(location string) {
	f(location)
}

// Selection is what the wizard has collected so far.
type Selection struct {
	Step          enums.CheckoutStep
	Address       *types.Address
	PaymentMethod enums.PaymentMethod
	OrderNote     string
}

// Options configures a Wizard. Redirector may be nil when nothing should
// happen on an authentication failure.
type Options struct {
	Orders        orderCreator
	Cart          CartClearer
	Redirector    Redirector
	RedirectDelay time.Duration
	Origin        string
	Logger        *logger.Logger
	// AfterFunc schedules the login redirect; defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) *time.Timer
}

// Wizard drives one checkout: address, payment method, review, then a
// single order submission. It lives for one checkout and is discarded.
type Wizard struct {
	orders        orderCreator
	cart          CartClearer
	redirector    Redirector
	redirectDelay time.Duration
	origin        string
	logg          *logger.Logger
	afterFunc     func(time.Duration, func()) *time.Timer
	key           string

	mu         sync.Mutex
	step       enums.CheckoutStep
	address    *types.Address
	payment    enums.PaymentMethod
	note       string
	submitting bool
	order      *types.Order
	redirect   *time.Timer
}

func NewWizard(opts Options) (*Wizard, error) {
	if opts.Orders == nil {
		return nil, fmt.Errorf("checkout orders client required")
	}
	if opts.Cart == nil {
		return nil, fmt.Errorf("checkout cart required")
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	if strings.TrimSpace(opts.Origin) == "" {
		opts.Origin = DefaultOrigin
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = time.AfterFunc
	}
	return &Wizard{
		orders:        opts.Orders,
		cart:          opts.Cart,
		redirector:    opts.Redirector,
		redirectDelay: opts.RedirectDelay,
		origin:        opts.Origin,
		logg:          opts.Logger,
		afterFunc:     opts.AfterFunc,
		key:           uuid.NewString(),
		step:          enums.CheckoutSelectingAddress,
	}, nil
}

// Step returns the current step.
func (w *Wizard) Step() enums.CheckoutStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Selection returns a copy of the collected choices.
func (w *Wizard) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	sel := Selection{Step: w.step, PaymentMethod: w.payment, OrderNote: w.note}
	if w.address != nil {
		addr := *w.address
		sel.Address = &addr
	}
	return sel
}

// Order returns the placed order once the wizard is confirmed.
func (w *Wizard) Order() (types.Order, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.order == nil {
		return types.Order{}, false
	}
	return *w.order, true
}

// Submitting reports whether an order request is in flight. The submit
// control stays disabled while it is true.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// IdempotencyKey is sent with the order request; it is fixed for the
// lifetime of the wizard.
func (w *Wizard) IdempotencyKey() string {
	return w.key
}

func (w *Wizard) SelectAddress(addr types.Address) error {
	if strings.TrimSpace(addr.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	w.address = &addr
	return nil
}

func (w *Wizard) SelectPaymentMethod(method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	w.payment = method
	return nil
}

func (w *Wizard) SetOrderNote(note string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	w.note = strings.TrimSpace(note)
	return nil
}

// Next advances one step if the current step's guard passes.
func (w *Wizard) Next() (enums.CheckoutStep, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return w.step, err
	}

	switch w.step {
	case enums.CheckoutSelectingAddress:
		if w.address == nil {
			return w.step, pkgerrors.New(pkgerrors.CodeValidation, "please select a shipping address").
				WithDetails(map[string]any{"step": w.step.String()})
		}
		w.step = enums.CheckoutSelectingPayment
	case enums.CheckoutSelectingPayment:
		if w.payment == "" {
			return w.step, pkgerrors.New(pkgerrors.CodeValidation, "please select a payment method").
				WithDetails(map[string]any{"step": w.step.String()})
		}
		w.step = enums.CheckoutReviewing
	case enums.CheckoutReviewing:
		return w.step, pkgerrors.New(pkgerrors.CodeStateConflict, "review is confirmed by submitting the order")
	}
	return w.step, nil
}

// Back returns to the previous step. Selections are kept.
func (w *Wizard) Back() (enums.CheckoutStep, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return w.step, err
	}
	switch w.step {
	case enums.CheckoutSelectingPayment:
		w.step = enums.CheckoutSelectingAddress
	case enums.CheckoutReviewing:
		w.step = enums.CheckoutSelectingPayment
	}
	return w.step, nil
}

// Cancel abandons the checkout. It is refused once an order was submitted.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == enums.CheckoutCancelled {
		return nil
	}
	if err := w.editableLocked(); err != nil {
		return err
	}
	w.step = enums.CheckoutCancelled
	w.address = nil
	w.payment = ""
	w.note = ""
	return nil
}

// Submit places the order. Only one submission may be in flight; a second
// call while the first is pending returns CodeInFlight without a request.
// On success the local cart projection is emptied. On failure the wizard
// stays in review, and an authentication failure schedules a redirect to
// the login flow.
func (w *Wizard) Submit(ctx context.Context) (types.Order, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return types.Order{}, pkgerrors.New(pkgerrors.CodeInFlight, "order submission already in progress")
	}
	if w.step != enums.CheckoutReviewing {
		step := w.step
		w.mu.Unlock()
		return types.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot submit from step %s", step))
	}
	if w.address == nil || w.payment == "" {
		w.mu.Unlock()
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "address and payment method are required")
	}
	w.submitting = true
	method := w.payment
	req := orderRequest(method, w.address.ID)
	w.mu.Unlock()

	ctx = w.logg.WithFields(ctx, map[string]any{
		"step":            enums.CheckoutReviewing.String(),
		"idempotency_key": w.key,
	})

	order, err := w.orders.Create(ctx, method, req, w.key)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		w.mu.Unlock()
		if pkgerrors.IsAuth(err) {
			w.scheduleRedirect(ctx)
		}
		return types.Order{}, err
	}
	w.step = enums.CheckoutConfirmed
	w.order = &order
	w.mu.Unlock()

	w.cart.Clear(ctx)
	w.logg.Info(w.logg.WithField(ctx, "order_id", order.OrderID), "checkout.confirmed")
	return order, nil
}

// Stop cancels a pending login redirect.
func (w *Wizard) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.redirect != nil {
		w.redirect.Stop()
		w.redirect = nil
	}
}

func (w *Wizard) scheduleRedirect(ctx context.Context) {
	if w.redirector == nil {
		return
	}
	location := session.LoginLocation(w.origin)
	w.logg.Warn(w.logg.WithField(ctx, "redirect", location), "checkout.auth.redirect_scheduled")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.redirect != nil {
		w.redirect.Stop()
	}
	w.redirect = w.afterFunc(w.redirectDelay, func() {
		w.redirector.Redirect(location)
	})
}

func (w *Wizard) editableLocked() error {
	if w.step.Terminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout is %s", w.step))
	}
	if w.submitting {
		return pkgerrors.New(pkgerrors.CodeInFlight, "order submission in progress")
	}
	return nil
}

func orderRequest(method enums.PaymentMethod, addressID string) types.OrderRequest {
	if method == enums.PaymentMethodCOD {
		return orders.NewCODRequest(addressID)
	}
	return types.OrderRequest{
		AddressID:     addressID,
		PaymentMethod: method.String(),
		PGName:        method.PathSegment(),
		PGStatus:      "pending",
	}
}
