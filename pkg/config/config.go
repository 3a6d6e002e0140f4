package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	Redis    RedisConfig
	DevAPI   DevAPIConfig
	JWT      JWTConfig
	Password PasswordConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ServerConfig is the subset the development API reads.
type ServerConfig struct {
	App      AppConfig
	Redis    RedisConfig
	DevAPI   DevAPIConfig
	JWT      JWTConfig
	Password PasswordConfig
}

// LoadServer reads the development API settings. It does not need an
// upstream base URL.
func LoadServer() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("%s must not be empty", EnvJWTSecret)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the remote storefront API.
type APIConfig struct {
	BaseURL   string        `envconfig:"STOREFRONT_API_BASE_URL" required:"true"`
	Timeout   time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"STOREFRONT_API_USER_AGENT" default:"storefront-cli"`
	// SessionFile persists session cookies between CLI invocations.
	SessionFile string `envconfig:"STOREFRONT_SESSION_FILE"`
}

type CartConfig struct {
	DebounceWindow time.Duration `envconfig:"STOREFRONT_CART_DEBOUNCE_WINDOW" default:"500ms"`
	SnapshotTTL    time.Duration `envconfig:"STOREFRONT_CART_SNAPSHOT_TTL" default:"15m"`
}

type CheckoutConfig struct {
	AuthRedirectDelay time.Duration `envconfig:"STOREFRONT_CHECKOUT_AUTH_REDIRECT_DELAY" default:"2s"`
	// TaxRate and ShippingFlat feed the provisional estimate only.
	TaxRate      string `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.05"`
	ShippingFlat string `envconfig:"STOREFRONT_CHECKOUT_SHIPPING_FLAT" default:"0"`
}

// RedisConfig is optional; an empty URL and address keeps the cart snapshot in memory.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"2s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DevAPIConfig struct {
	Port         string `envconfig:"STOREFRONT_DEVAPI_PORT" default:"8080"`
	SeedUser     string `envconfig:"STOREFRONT_DEVAPI_SEED_USER" default:"user1"`
	SeedPassword string `envconfig:"STOREFRONT_DEVAPI_SEED_PASSWORD" default:"password1"`
	SeedEmail    string `envconfig:"STOREFRONT_DEVAPI_SEED_EMAIL" default:"user1@example.com"`
	CookieName   string `envconfig:"STOREFRONT_DEVAPI_COOKIE_NAME" default:"storefront_session"`

	SignInWindow    time.Duration `envconfig:"STOREFRONT_DEVAPI_SIGNIN_WINDOW" default:"1m"`
	SignInIPLimit   int           `envconfig:"STOREFRONT_DEVAPI_SIGNIN_IP_LIMIT" default:"20"`
	SignInUserLimit int           `envconfig:"STOREFRONT_DEVAPI_SIGNIN_USER_LIMIT" default:"5"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" default:"dev-secret"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront-devapi"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the session lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

func (a *APIConfig) validate() error {
	raw := strings.TrimSpace(a.BaseURL)
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid url: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", EnvAPIBaseURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", EnvAPIBaseURL)
	}
	a.BaseURL = strings.TrimRight(raw, "/")
	return nil
}
