package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fs.Name()+": "+err.Error())
	}
	return nil
}

func (a *app) sessionCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sessions, err := a.sessions()
	if err != nil {
		return err
	}

	switch args[0] {
	case "login":
		fs := newFlagSet("session login")
		username := fs.String("u", "", "username")
		password := fs.String("p", "", "password (defaults to STOREFRONT_PASSWORD)")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		if *password == "" {
			*password = os.Getenv("STOREFRONT_PASSWORD")
		}
		sess, err := sessions.Login(ctx, *username, *password)
		if err != nil {
			return err
		}
		return a.print(sess.User)
	case "logout":
		if err := sessions.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "signed out")
		return nil
	case "whoami":
		sess, err := sessions.Current(ctx)
		if err != nil {
			return err
		}
		if !sess.Authenticated() {
			fmt.Fprintln(a.out, "not signed in")
			return nil
		}
		return a.print(map[string]any{"user": sess.User, "roles": sess.Roles})
	}
	return errUsage
}

func (a *app) catalogCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return errUsage
	}
	fs := newFlagSet("catalog list")
	var q catalog.Query
	fs.IntVar(&q.Page, "page", 0, "page number, from 0")
	fs.IntVar(&q.Size, "size", 0, "page size")
	fs.StringVar(&q.Keyword, "keyword", "", "name contains")
	fs.StringVar(&q.Category, "category", "", "category")
	fs.StringVar(&q.SortBy, "sort", "", "price or productName")
	fs.StringVar(&q.SortOrder, "order", "", "asc or desc")
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}

	client, err := a.catalog()
	if err != nil {
		return err
	}
	page, err := client.List(ctx, q)
	if err != nil {
		return err
	}
	return a.print(page)
}

func (a *app) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	container, err := a.cart(ctx)
	if err != nil {
		return err
	}
	if _, err := container.Load(ctx); err != nil {
		return err
	}

	var state = container.State()
	switch args[0] {
	case "show":
	case "add":
		if err := requireArgs(args[1:], 1, "product id"); err != nil {
			return err
		}
		qty := 1
		if len(args) > 2 {
			qty, err = strconv.Atoi(args[2])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a number")
			}
		}
		state, err = container.Add(ctx, args[1], qty)
	case "inc", "dec", "remove":
		if err := requireArgs(args[1:], 1, "product id"); err != nil {
			return err
		}
		switch args[0] {
		case "inc":
			state, err = container.Increase(ctx, args[1])
		case "dec":
			state, err = container.Decrease(ctx, args[1])
		default:
			state, err = container.Remove(ctx, args[1])
		}
	case "estimate":
		estimator, err := checkout.NewEstimator(a.cfg.Checkout.TaxRate, a.cfg.Checkout.ShippingFlat)
		if err != nil {
			return err
		}
		return a.print(estimator.Estimate(state.Cart))
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return a.print(state.Cart)
}

func addressFlags(fs *flag.FlagSet) *types.AddressFields {
	f := &types.AddressFields{}
	fs.StringVar(&f.Street, "street", "", "street")
	fs.StringVar(&f.Apartment, "apartment", "", "apartment (optional)")
	fs.StringVar(&f.City, "city", "", "city")
	fs.StringVar(&f.State, "state", "", "state")
	fs.StringVar(&f.Country, "country", "", "country")
	fs.StringVar(&f.ZipCode, "zip", "", "zip code")
	return f
}

func (a *app) addressCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	manager, err := a.addresses()
	if err != nil {
		return err
	}

	var list []types.Address
	switch args[0] {
	case "list":
		list, err = manager.List(ctx)
	case "add":
		fs := newFlagSet("address add")
		fields := addressFlags(fs)
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		list, err = manager.Create(ctx, *fields)
	case "update":
		if err := requireArgs(args[1:], 1, "address id"); err != nil {
			return err
		}
		fs := newFlagSet("address update")
		fields := addressFlags(fs)
		if err := parseFlags(fs, args[2:]); err != nil {
			return err
		}
		list, err = manager.Update(ctx, args[1], *fields)
	case "delete":
		if err := requireArgs(args[1:], 1, "address id"); err != nil {
			return err
		}
		list, err = manager.Delete(ctx, args[1])
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) ordersCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return errUsage
	}
	client, err := a.orders()
	if err != nil {
		return err
	}
	list, err := client.List(ctx)
	if err != nil {
		return err
	}
	return a.print(list)
}

// checkoutCmd walks the wizard non-interactively. On an authentication
// failure it waits out the redirect delay and prints where to sign in.
func (a *app) checkoutCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("checkout")
	addressID := fs.String("address", "", "saved address id")
	method := fs.String("method", enums.PaymentMethodCOD.String(), "payment method")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	paymentMethod, err := enums.ParsePaymentMethod(*method)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	container, err := a.cart(ctx)
	if err != nil {
		return err
	}
	state, err := container.Load(ctx)
	if err != nil {
		return err
	}
	if state.Cart.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	manager, err := a.addresses()
	if err != nil {
		return err
	}
	if _, err := manager.List(ctx); err != nil {
		return err
	}
	addr, ok := manager.Find(strings.TrimSpace(*addressID))
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("no saved address with id %q", *addressID))
	}

	orderClient, err := a.orders()
	if err != nil {
		return err
	}
	redirected := make(chan string, 1)
	wizard, err := checkout.NewWizard(checkout.Options{
		Orders:        orderClient,
		Cart:          container,
		RedirectDelay: a.cfg.Checkout.AuthRedirectDelay,
		Logger:        a.logg,
		Redirector:    checkout.RedirectFunc(func(location string) { redirected <- location }),
	})
	if err != nil {
		return err
	}
	defer wizard.Stop()

	if err := wizard.SelectAddress(addr); err != nil {
		return err
	}
	if _, err := wizard.Next(); err != nil {
		return err
	}
	if err := wizard.SelectPaymentMethod(paymentMethod); err != nil {
		return err
	}
	if _, err := wizard.Next(); err != nil {
		return err
	}

	estimator, err := checkout.NewEstimator(a.cfg.Checkout.TaxRate, a.cfg.Checkout.ShippingFlat)
	if err != nil {
		return err
	}
	if err := a.print(map[string]any{"review": state.Cart, "estimate": estimator.Estimate(state.Cart)}); err != nil {
		return err
	}

	order, err := wizard.Submit(ctx)
	if err != nil {
		if pkgerrors.IsAuth(err) {
			select {
			case location := <-redirected:
				fmt.Fprintf(os.Stderr, "sign in required, continue at %s\n", location)
			case <-time.After(a.cfg.Checkout.AuthRedirectDelay + time.Second):
			case <-ctx.Done():
			}
		}
		return err
	}
	return a.print(order)
}
