package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const usage = `usage: storefront <command> [args]

commands:
  session  login -u USER [-p PASS] | logout | whoami
  catalog  list [-page N] [-size N] [-keyword K] [-category C] [-sort price|productName] [-order asc|desc]
  cart     show | add PRODUCT_ID [QTY] | inc PRODUCT_ID | dec PRODUCT_ID | remove PRODUCT_ID | estimate
  address  list | add FLAGS | update ID FLAGS | delete ID
  orders   list
  checkout -address ID [-method COD]
`

// app holds the clients one CLI invocation works with.
type app struct {
	cfg         *config.Config
	logg        *logger.Logger
	api         *apiclient.Client
	redis       *redis.Client
	sessionFile string
	out         io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront-cli",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithOperation(ctx, args[0])

	a, err := newApp(ctx, cfg, logg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		return 1
	}

	cmdErr := a.dispatch(ctx, args[0], args[1:])
	if err := a.close(); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cli.close.failed")
	}
	if cmdErr != nil {
		return reportError(cmdErr)
	}
	return 0
}

func newApp(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*app, error) {
	api, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithUserAgent(cfg.API.UserAgent),
		apiclient.WithLogger(logg),
	)
	if err != nil {
		return nil, err
	}

	sessionFile := cfg.API.SessionFile
	if sessionFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			sessionFile = filepath.Join(dir, "storefront", "session.json")
		}
	}
	if err := api.LoadSessionFile(sessionFile); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cli.session_file.unreadable")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
	}

	return &app{cfg: cfg, logg: logg, api: api, redis: redisClient, sessionFile: sessionFile, out: os.Stdout}, nil
}

func (a *app) close() error {
	return multierr.Combine(
		a.api.SaveSessionFile(a.sessionFile),
		a.redis.Close(),
	)
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "session":
		return a.sessionCmd(ctx, args)
	case "catalog":
		return a.catalogCmd(ctx, args)
	case "cart":
		return a.cartCmd(ctx, args)
	case "address":
		return a.addressCmd(ctx, args)
	case "orders":
		return a.ordersCmd(ctx, args)
	case "checkout":
		return a.checkoutCmd(ctx, args)
	}
	return errUsage
}

var errUsage = errors.New("unknown command")

func (a *app) sessions() (*session.Client, error) {
	return session.NewClient(a.api, a.logg)
}

func (a *app) catalog() (*catalog.Client, error) {
	return catalog.NewClient(a.api)
}

func (a *app) addresses() (*address.Manager, error) {
	return address.NewManager(a.api, a.logg)
}

func (a *app) orders() (*orders.Client, error) {
	return orders.NewClient(a.api, a.logg)
}

// cart builds a container whose projection is keyed to the signed-in user,
// so a shared Redis store never mixes carts between accounts.
func (a *app) cart(ctx context.Context) (*cart.Container, error) {
	sessions, err := a.sessions()
	if err != nil {
		return nil, err
	}
	sess, err := sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in first: storefront session login -u USER")
	}

	var store cart.Store
	if a.redis != nil {
		store = cart.NewRedisStore(a.redis, a.cfg.Cart.SnapshotTTL)
	}
	sync, err := cart.NewSyncClient(a.api, cart.SyncOptions{
		Owner:  sess.User.ID,
		Store:  store,
		Policy: cart.NewFreshnessPolicy(a.cfg.Cart.DebounceWindow),
		Logger: a.logg,
	})
	if err != nil {
		return nil, err
	}
	return cart.NewContainer(sync)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportError prints err for a person and picks an exit code: 2 for bad
// input, 3 when a sign-in is needed, 1 otherwise.
func reportError(err error) int {
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", typed.Error())
	for field, msg := range fieldDetails(typed) {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
	}
	switch {
	case typed.Code() == pkgerrors.CodeValidation:
		return 2
	case pkgerrors.IsAuth(err):
		return 3
	}
	return 1
}

func fieldDetails(err *pkgerrors.Error) map[string]string {
	details, ok := err.Details().(map[string]string)
	if !ok {
		return nil
	}
	return details
}

func requireArgs(args []string, n int, what string) error {
	if len(args) < n {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing "+strings.TrimSpace(what))
	}
	return nil
}
