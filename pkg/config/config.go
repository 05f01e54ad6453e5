package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Google        GoogleConfig
	Square        SquareConfig
	Payments      PaymentsConfig
	Relay         RelayConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

// Load reads the BAZAAR_* environment into a Config and rejects settings
// that would only fail later at runtime.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	checks := []func() error{
		cfg.DB.resolveDSN,
		cfg.Relay.validate,
		cfg.Payments.validate,
	}
	var errs []error
	for _, check := range checks {
		if err := check(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env                string   `envconfig:"BAZAAR_APP_ENV" required:"true"`
	Port               string   `envconfig:"BAZAAR_APP_PORT" default:"5000"`
	LogLevel           string   `envconfig:"BAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack       bool     `envconfig:"BAZAAR_LOG_WARN_STACK" default:"false"`
	AdminEmails        []string `envconfig:"BAZAAR_APP_ADMIN_EMAILS"`
	CORSAllowedOrigins []string `envconfig:"BAZAAR_APP_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// IsAdminEmail reports whether the address is on the configured admin list.
func (a AppConfig) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && slices.ContainsFunc(a.AdminEmails, func(admin string) bool {
		return strings.EqualFold(strings.TrimSpace(admin), email)
	})
}

type ServiceConfig struct {
	Kind string `envconfig:"BAZAAR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BAZAAR_DB_DSN"`
	Driver string `envconfig:"BAZAAR_DB_DRIVER" default:"postgres"`

	// Discrete connection settings, used only when DSN is unset.
	Host     string `envconfig:"BAZAAR_DB_HOST"`
	Port     int    `envconfig:"BAZAAR_DB_PORT" default:"5432"`
	User     string `envconfig:"BAZAAR_DB_USER"`
	Password string `envconfig:"BAZAAR_DB_PASSWORD"`
	Name     string `envconfig:"BAZAAR_DB_NAME"`
	SSLMode  string `envconfig:"BAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"BAZAAR_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"BAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZAAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZAAR_JWT_ISSUER" default:"project-bazaar"`
	ExpirationMinutes int    `envconfig:"BAZAAR_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiry returns the session lifetime, falling back to one day.
func (j JWTConfig) Expiry() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"BAZAAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RelayWindow     time.Duration `envconfig:"BAZAAR_RELAY_RATE_LIMIT_WINDOW" default:"10m"`
	RelayIPLimit    int           `envconfig:"BAZAAR_RELAY_RATE_LIMIT_IP_LIMIT" default:"5"`
	PurchaseWindow  time.Duration `envconfig:"BAZAAR_PURCHASE_RATE_LIMIT_WINDOW" default:"1m"`
	PurchaseIPLimit int           `envconfig:"BAZAAR_PURCHASE_RATE_LIMIT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZAAR_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"BAZAAR_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"BAZAAR_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
	RequestIdempotencyTTL time.Duration `envconfig:"BAZAAR_REQUEST_IDEMPOTENCY_TTL" default:"24h"`
}

type GoogleConfig struct {
	ClientID        string `envconfig:"BAZAAR_GOOGLE_CLIENT_ID" required:"true"`
	CredentialsJSON string `envconfig:"BAZAAR_GOOGLE_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"BAZAAR_GOOGLE_CREDENTIALS_FILE"`
	MailSender      string `envconfig:"BAZAAR_GOOGLE_MAIL_SENDER"`
	OperationsInbox string `envconfig:"BAZAAR_OPERATIONS_INBOX" required:"true"`
}

type SquareConfig struct {
	Env                    string `envconfig:"BAZAAR_SQUARE_ENV" default:"sandbox"`
	AccessToken            string `envconfig:"BAZAAR_SQUARE_ACCESS_TOKEN" required:"true"`
	LocationID             string `envconfig:"BAZAAR_SQUARE_LOCATION_ID" required:"true"`
	WebhookSecret          string `envconfig:"BAZAAR_SQUARE_WEBHOOK_SECRET" required:"true"`
	WebhookNotificationURL string `envconfig:"BAZAAR_SQUARE_WEBHOOK_URL"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	if env := strings.ToLower(strings.TrimSpace(s.Env)); env != "" {
		return env
	}
	return "sandbox"
}

type PaymentsConfig struct {
	DefaultCurrency        string        `envconfig:"BAZAAR_PAYMENTS_DEFAULT_CURRENCY" default:"INR"`
	CreateOrderMaxAttempts int           `envconfig:"BAZAAR_PAYMENTS_CREATE_ORDER_MAX_ATTEMPTS" default:"3"`
	CreateOrderBackoff     time.Duration `envconfig:"BAZAAR_PAYMENTS_CREATE_ORDER_BACKOFF" default:"250ms"`
}

func (p PaymentsConfig) validate() error {
	if len(strings.TrimSpace(p.DefaultCurrency)) != 3 {
		return fmt.Errorf("%s must be an ISO 4217 code", EnvPaymentsDefaultCurrency)
	}
	if p.CreateOrderMaxAttempts < 1 {
		return errors.New("BAZAAR_PAYMENTS_CREATE_ORDER_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

type RelayConfig struct {
	MaxImages     int   `envconfig:"BAZAAR_RELAY_MAX_IMAGES" default:"5"`
	MaxDocuments  int   `envconfig:"BAZAAR_RELAY_MAX_DOCUMENTS" default:"5"`
	MaxTotalBytes int64 `envconfig:"BAZAAR_RELAY_MAX_TOTAL_BYTES" default:"10485760"`
}

func (r RelayConfig) validate() error {
	if r.MaxImages < 0 || r.MaxDocuments < 0 {
		return fmt.Errorf("%s and %s must be non-negative", EnvRelayMaxImages, EnvRelayMaxDocuments)
	}
	if r.MaxTotalBytes <= 0 {
		return fmt.Errorf("%s must be positive", EnvRelayMaxTotalBytes)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BAZAAR_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BAZAAR_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BAZAAR_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	MarketplaceTopic      string `envconfig:"BAZAAR_PUBSUB_MARKETPLACE_TOPIC" default:"bazaar-marketplace-events"`
	AnalyticsTopic        string `envconfig:"BAZAAR_PUBSUB_ANALYTICS_TOPIC" default:"bazaar-analytics-events"`
	AnalyticsSubscription string `envconfig:"BAZAAR_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"bazaar-analytics-worker"`
}

type BigQueryConfig struct {
	Dataset                string `envconfig:"BAZAAR_BIGQUERY_DATASET" default:"project_bazaar"`
	MarketplaceEventsTable string `envconfig:"BAZAAR_BIGQUERY_MARKETPLACE_TABLE" default:"marketplace_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BAZAAR_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BAZAAR_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BAZAAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BAZAAR_CRON_INTERVAL" default:"5m"`
	OrderTTL time.Duration `envconfig:"BAZAAR_CRON_ORDER_TTL" default:"24h"`
	LockTTL  time.Duration `envconfig:"BAZAAR_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%s is unset and %s are missing", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.Password != "" {
		dsn.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
