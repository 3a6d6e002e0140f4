package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/devstore"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/types"
)

func newDevServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.ServerConfig{
		App:      config.AppConfig{Env: "test"},
		DevAPI:   config.DevAPIConfig{CookieName: "storefront_session"},
		JWT:      config.JWTConfig{Secret: "cli-secret", Issuer: "storefront-test", ExpirationMinutes: 30},
		Password: config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	}
	store := devstore.New(devstore.Options{Passwords: cfg.Password})
	require.NoError(t, devstore.Seed(store, devstore.SeedOptions{Username: "user1", Email: "user1@example.com", Password: "password1"}))

	redisClient, err := redis.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })
	sessions, err := session.NewManager(redisClient, time.Hour)
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.ServiceParams{Users: store, SessionManager: sessions, JWTConfig: cfg.JWT})
	require.NoError(t, err)

	srv := httptest.NewServer(routes.NewRouter(routes.Deps{
		Config:      cfg,
		Redis:       redisClient,
		Sessions:    sessions,
		AuthService: authSvc,
		Store:       store,
	}))
	t.Cleanup(srv.Close)
	return srv
}

// invoke runs one CLI command in a fresh app, like a separate process
// sharing the session file.
func invoke(t *testing.T, baseURL, sessionFile string, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{
		API:      config.APIConfig{BaseURL: baseURL + "/api", Timeout: 5 * time.Second, SessionFile: sessionFile},
		Cart:     config.CartConfig{DebounceWindow: 500 * time.Millisecond},
		Checkout: config.CheckoutConfig{AuthRedirectDelay: 10 * time.Millisecond, TaxRate: "0.05"},
	}
	a, err := newApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	var out bytes.Buffer
	a.out = &out
	cmdErr := a.dispatch(context.Background(), args[0], args[1:])
	require.NoError(t, a.close())
	return out.String(), cmdErr
}

func TestCLISessionPersistsBetweenInvocations(t *testing.T) {
	srv := newDevServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	out, err := invoke(t, srv.URL, sessionFile, "session", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not signed in")

	_, err = invoke(t, srv.URL, sessionFile, "session", "login", "-u", "user1", "-p", "password1")
	require.NoError(t, err)

	out, err = invoke(t, srv.URL, sessionFile, "session", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "user1"`)

	_, err = invoke(t, srv.URL, sessionFile, "session", "logout")
	require.NoError(t, err)
	assert.NoFileExists(t, sessionFile)
}

func TestCLICartAndCheckout(t *testing.T) {
	srv := newDevServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	_, err := invoke(t, srv.URL, sessionFile, "cart", "show")
	assert.Equal(t, 3, reportError(err), "cart needs a session")

	_, err = invoke(t, srv.URL, sessionFile, "session", "login", "-u", "user1", "-p", "password1")
	require.NoError(t, err)

	out, err := invoke(t, srv.URL, sessionFile, "cart", "add", "1", "2")
	require.NoError(t, err)
	var cart types.Cart
	require.NoError(t, json.Unmarshal([]byte(out), &cart))
	assert.Equal(t, "16", cart.Total.String())

	_, err = invoke(t, srv.URL, sessionFile, "address", "add", "-street", "12 Main St", "-city", "NYC", "-state", "NY", "-country", "US", "-zip", "10001")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, 2, reportError(err))

	out, err = invoke(t, srv.URL, sessionFile, "address", "add", "-street", "12 Main St", "-city", "Springfield", "-state", "IL", "-country", "US", "-zip", "62704")
	require.NoError(t, err)
	var addresses []types.Address
	require.NoError(t, json.Unmarshal([]byte(out), &addresses))
	require.Len(t, addresses, 1)

	_, err = invoke(t, srv.URL, sessionFile, "checkout", "-address", addresses[0].ID)
	require.NoError(t, err)

	out, err = invoke(t, srv.URL, sessionFile, "orders", "list")
	require.NoError(t, err)
	var history []types.Order
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "16", history[0].TotalAmount.String())

	_, err = invoke(t, srv.URL, sessionFile, "checkout", "-address", addresses[0].ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "the order emptied the cart")
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	srv := newDevServer(t)
	_, err := invoke(t, srv.URL, filepath.Join(t.TempDir(), "session.json"), "refund")
	assert.Equal(t, 2, reportError(err))
}
