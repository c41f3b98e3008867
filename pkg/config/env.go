package config

const (
	EnvPrefix = "FRESHBOX"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "FRESHBOX_APP_ENV"
	EnvPort          = "FRESHBOX_APP_PORT"
	EnvPublicBaseURL = "FRESHBOX_PUBLIC_BASE_URL"

	EnvDBDSN  = "FRESHBOX_DB_DSN"
	EnvDBHost = "FRESHBOX_DB_HOST"
	EnvDBUser = "FRESHBOX_DB_USER"
	EnvDBName = "FRESHBOX_DB_NAME"

	EnvRedisURL = "FRESHBOX_REDIS_URL"
	EnvCartTTL  = "FRESHBOX_CART_TTL"

	EnvJWTSecret  = "FRESHBOX_JWT_SECRET"
	EnvJWTIssuer  = "FRESHBOX_JWT_ISSUER"
	EnvJWTExpMins = "FRESHBOX_JWT_EXPIRATION_MINUTES"

	EnvStripeSecretKey     = "FRESHBOX_STRIPE_SECRET_KEY"
	EnvStripeSigningSecret = "FRESHBOX_STRIPE_SIGNING_SECRET"

	EnvPostcodePrefixes = "FRESHBOX_DELIVERY_POSTCODE_PREFIXES"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
