package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// Store is everything the API handlers read and write.
type Store interface {
	controllers.CartService
	controllers.AddressService
	controllers.OrderService
	controllers.CatalogService
}

// Deps bundles what the router wires into handlers. Redis is required; use
// redis.NewInMemory when no server is configured.
type Deps struct {
	Config         *config.ServerConfig
	Logger         *logger.Logger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	AuthService    auth.Service
	Store          Store
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter mounts the storefront API under /api, with health and metrics
// endpoints beside it.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, d.Redis, logg))
	})
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	cookie := controllers.SessionCookie{Name: cfg.DevAPI.CookieName, Secure: cfg.App.IsProd()}
	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.DevAPI.SignInWindow,
		cfg.DevAPI.SignInIPLimit,
		cfg.DevAPI.SignInUserLimit,
	)
	requireAuth := middleware.Auth(cfg.JWT, cfg.DevAPI.CookieName, d.Sessions, logg)
	idempotent := middleware.Idempotency(d.Redis, logg)

	r.Route("/api", func(r chi.Router) {
		r.Get("/public/products", controllers.PublicProducts(d.Store, logg))

		r.With(middleware.AuthRateLimit(signInPolicy, d.Redis, logg)).Post("/auth/signin", controllers.AuthSignIn(d.AuthService, cookie, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, cfg.DevAPI.CookieName, d.Sessions, logg)).Post("/auth/signout", controllers.AuthSignOut(d.AuthService, cookie, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/user", controllers.AuthCurrentUser(d.AuthService, logg))

			r.Get("/carts/users/cart", controllers.CartFetch(d.Store, logg))
			r.With(idempotent).Post("/carts/products/{productId}/quantity/{quantity}", controllers.CartAddProduct(d.Store, logg))
			r.Put("/carts/products/{productId}/quantity/{quantity}", controllers.CartChangeQuantity(d.Store, logg))
			r.Delete("/carts/{cartId}/product/{productId}", controllers.CartRemoveProduct(d.Store, logg))

			r.Get("/users/addresses", controllers.AddressList(d.Store, logg))
			r.With(idempotent).Post("/addresses", controllers.AddressCreate(d.Store, logg))
			r.Put("/addresses/{addressId}", controllers.AddressUpdate(d.Store, logg))
			r.Delete("/addresses/{addressId}", controllers.AddressDelete(d.Store, logg))

			r.With(idempotent).Post("/order/users/payments/{method}", controllers.OrderPlace(d.Store, logg))
			r.Get("/order/users", controllers.OrderList(d.Store, logg))

			r.With(middleware.RequireCapability(enums.CapabilityManageProducts, logg)).Post("/admin/products", controllers.AdminCreateProduct(d.Store, logg))
		})
	})

	return r
}
