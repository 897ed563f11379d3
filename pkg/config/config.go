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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
	Orders       OrdersConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.Location(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvOrderNumberTZ, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BIZOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"BIZOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIZOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIZOPS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"BIZOPS_LOG_FORMAT" default:"json"`
}

// ConsoleLogs reports whether logs should use the human readable writer.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"BIZOPS_SERVICE_KIND" default:"api"`

	// MetricsAddr is where worker binaries expose /metrics; empty disables it.
	MetricsAddr string `envconfig:"BIZOPS_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"BIZOPS_DB_DSN"`
	Driver string `envconfig:"BIZOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIZOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"BIZOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIZOPS_DB_USER"`
	LegacyPassword string `envconfig:"BIZOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIZOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIZOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIZOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIZOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIZOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIZOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Tracing installs the otelgorm plugin; spans go to the global tracer provider.
	Tracing bool `envconfig:"BIZOPS_DB_TRACING" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIZOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BIZOPS_REDIS_ADDR"`
	Password     string        `envconfig:"BIZOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIZOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIZOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIZOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIZOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIZOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIZOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"BIZOPS_REDIS_NAMESPACE" default:"bo"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BIZOPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BIZOPS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BIZOPS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RateLimitConfig struct {
	Window    time.Duration `envconfig:"BIZOPS_RATE_LIMIT_WINDOW" default:"1m"`
	UserLimit int           `envconfig:"BIZOPS_RATE_LIMIT_USER_LIMIT" default:"100"`
	FailOpen  bool          `envconfig:"BIZOPS_RATE_LIMIT_FAIL_OPEN" default:"true"`
	Disabled  bool          `envconfig:"BIZOPS_RATE_LIMIT_DISABLED" default:"false"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BIZOPS_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BIZOPS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type OrdersConfig struct {
	NumberTimezone string `envconfig:"BIZOPS_ORDER_NUMBER_TZ" default:"UTC"`
}

// Location resolves the timezone used to stamp order numbers.
func (o OrdersConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(o.NumberTimezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BIZOPS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BIZOPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BIZOPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BIZOPS_PUBSUB_DOMAIN_TOPIC" default:"bizops-domain-events"`
	DomainSubscription string `envconfig:"BIZOPS_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"BIZOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"BIZOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"BIZOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"BIZOPS_OUTBOX_PUBLISH_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"BIZOPS_CRON_INTERVAL" default:"15m"`
	LockTTL          time.Duration `envconfig:"BIZOPS_CRON_LOCK_TTL" default:"10m"`
	LowStockDedupTTL time.Duration `envconfig:"BIZOPS_CRON_LOW_STOCK_DEDUP_TTL" default:"24h"`
	OutboxRetention  time.Duration `envconfig:"BIZOPS_CRON_OUTBOX_RETENTION" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
