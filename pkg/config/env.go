package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvLogLevel    = "STOREFRONT_LOG_LEVEL"
	EnvAPIBaseURL  = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout  = "STOREFRONT_API_TIMEOUT"
	EnvDebounce    = "STOREFRONT_CART_DEBOUNCE_WINDOW"
	EnvRedirect    = "STOREFRONT_CHECKOUT_AUTH_REDIRECT_DELAY"
	EnvRedisURL    = "STOREFRONT_REDIS_URL"
	EnvDevAPIPort  = "STOREFRONT_DEVAPI_PORT"
	EnvJWTSecret   = "STOREFRONT_JWT_SECRET"
	EnvSessionFile = "STOREFRONT_SESSION_FILE"
)
