package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GoogleMaps   GoogleMapsConfig
	Stripe       StripeConfig
	Delivery     DeliveryConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.App.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"FRESHBOX_APP_ENV" required:"true"`
	Port          string `envconfig:"FRESHBOX_APP_PORT" default:"8080"`
	LogLevel      string `envconfig:"FRESHBOX_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"FRESHBOX_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"FRESHBOX_PUBLIC_BASE_URL" required:"true"`

	AllowedOrigins []string `envconfig:"FRESHBOX_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// BaseURL returns the storefront URL without a trailing slash.
func (a AppConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(a.PublicBaseURL), "/")
}

func (a AppConfig) validate() error {
	u, err := url.Parse(a.BaseURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvPublicBaseURL)
	}
	return nil
}

type DBConfig struct {
	DSN string `envconfig:"FRESHBOX_DB_DSN"`

	Host     string `envconfig:"FRESHBOX_DB_HOST"`
	Port     int    `envconfig:"FRESHBOX_DB_PORT" default:"5432"`
	User     string `envconfig:"FRESHBOX_DB_USER"`
	Password string `envconfig:"FRESHBOX_DB_PASSWORD"`
	Name     string `envconfig:"FRESHBOX_DB_NAME"`
	SSLMode  string `envconfig:"FRESHBOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL            string        `envconfig:"FRESHBOX_REDIS_URL" required:"true"`
	Password       string        `envconfig:"FRESHBOX_REDIS_PASSWORD"`
	PoolSize       int           `envconfig:"FRESHBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"FRESHBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"FRESHBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"FRESHBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"FRESHBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"FRESHBOX_IDEMPOTENCY_TTL" default:"24h"`
	CartTTL        time.Duration `envconfig:"FRESHBOX_CART_TTL" default:"168h"`
	StripeEventTTL time.Duration `envconfig:"FRESHBOX_STRIPE_EVENT_TTL" default:"720h"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FRESHBOX_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FRESHBOX_JWT_ISSUER" default:"freshbox"`
	ExpirationMinutes      int    `envconfig:"FRESHBOX_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FRESHBOX_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FRESHBOX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FRESHBOX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FRESHBOX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FRESHBOX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FRESHBOX_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"FRESHBOX_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"FRESHBOX_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"FRESHBOX_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	DiscountWindow   time.Duration `envconfig:"FRESHBOX_RATE_LIMIT_DISCOUNT_WINDOW" default:"1m"`
	DiscountIPLimit  int           `envconfig:"FRESHBOX_RATE_LIMIT_DISCOUNT_IP_LIMIT" default:"30"`
	CheckoutWindow   time.Duration `envconfig:"FRESHBOX_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit  int           `envconfig:"FRESHBOX_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"10"`
	CheckoutEmailCap int           `envconfig:"FRESHBOX_RATE_LIMIT_CHECKOUT_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FRESHBOX_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey         string `envconfig:"FRESHBOX_GOOGLE_MAPS_API_KEY"`
	GeocodeBaseURL string `envconfig:"FRESHBOX_GEOCODE_BASE_URL" default:"https://maps.googleapis.com/maps/api/geocode/json"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FRESHBOX_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FRESHBOX_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FRESHBOX_GOOGLE_APPLICATION_CREDENTIALS"`
}

// GCSConfig configures product image storage. Uploads are disabled when
// BucketName is empty.
type GCSConfig struct {
	BucketName     string `envconfig:"FRESHBOX_GCS_BUCKET_NAME"`
	PublicBaseURL  string `envconfig:"FRESHBOX_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	Endpoint       string `envconfig:"FRESHBOX_GCS_ENDPOINT"`
	MaxUploadBytes int64  `envconfig:"FRESHBOX_GCS_MAX_UPLOAD_BYTES" default:"33554432"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"FRESHBOX_PUBSUB_ORDERS_TOPIC" default:"freshbox-order-events"`
	OrdersSubscription string `envconfig:"FRESHBOX_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"FRESHBOX_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"FRESHBOX_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"FRESHBOX_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsPort    string `envconfig:"FRESHBOX_OUTBOX_METRICS_PORT" default:"9090"`
}

// CronConfig drives cmd/cron-worker. A zero PendingOrderTTL leaves stale
// PENDING orders alone.
type CronConfig struct {
	Interval        time.Duration `envconfig:"FRESHBOX_CRON_INTERVAL" default:"1h"`
	PendingOrderTTL time.Duration `envconfig:"FRESHBOX_CRON_PENDING_ORDER_TTL" default:"0s"`
	OutboxRetention time.Duration `envconfig:"FRESHBOX_CRON_OUTBOX_RETENTION" default:"720h"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"FRESHBOX_STRIPE_SECRET_KEY"`
	SigningSecret string `envconfig:"FRESHBOX_STRIPE_SIGNING_SECRET"`
	Env           string `envconfig:"FRESHBOX_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type DeliveryConfig struct {
	PostcodePrefixes []string `envconfig:"FRESHBOX_DELIVERY_POSTCODE_PREFIXES" default:"LE1,LE2,LE3,LE4,LE5"`
	Location         string   `envconfig:"FRESHBOX_DELIVERY_LOCATION" default:"Europe/London"`
}

// TimeLocation resolves the configured delivery time zone, falling back to UTC.
func (d DeliveryConfig) TimeLocation() *time.Location {
	name := strings.TrimSpace(d.Location)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
