package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "NUCLEOTIDE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NUCLEOTIDE_DB_DSN"
	EnvDBHost = "NUCLEOTIDE_DB_HOST"
	EnvDBUser = "NUCLEOTIDE_DB_USER"
	EnvDBName = "NUCLEOTIDE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NUCLEOTIDE_APP_ENV" required:"true"`
	Port         string `envconfig:"NUCLEOTIDE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NUCLEOTIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NUCLEOTIDE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NUCLEOTIDE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NUCLEOTIDE_DB_DSN"`
	Driver string `envconfig:"NUCLEOTIDE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NUCLEOTIDE_DB_HOST"`
	LegacyPort     int    `envconfig:"NUCLEOTIDE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NUCLEOTIDE_DB_USER"`
	LegacyPassword string `envconfig:"NUCLEOTIDE_DB_PASSWORD"`
	LegacyName     string `envconfig:"NUCLEOTIDE_DB_NAME"`
	LegacySSLMode  string `envconfig:"NUCLEOTIDE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NUCLEOTIDE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NUCLEOTIDE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NUCLEOTIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NUCLEOTIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NUCLEOTIDE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NUCLEOTIDE_REDIS_ADDR"`
	Password     string        `envconfig:"NUCLEOTIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"NUCLEOTIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NUCLEOTIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NUCLEOTIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NUCLEOTIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NUCLEOTIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NUCLEOTIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NUCLEOTIDE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NUCLEOTIDE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NUCLEOTIDE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// RazorpayConfig holds the gateway credentials. WebhookSecret is a separate
// secret from KeySecret: payment signatures are signed with the key secret,
// webhook bodies with the webhook secret.
type RazorpayConfig struct {
	KeyID         string `envconfig:"NUCLEOTIDE_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string `envconfig:"NUCLEOTIDE_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string `envconfig:"NUCLEOTIDE_RAZORPAY_WEBHOOK_SECRET" required:"true"`
	APIBaseURL    string `envconfig:"NUCLEOTIDE_RAZORPAY_API_BASE_URL" default:"https://api.razorpay.com/v1"`
}

type CheckoutConfig struct {
	DeliveryChargePaise int64  `envconfig:"NUCLEOTIDE_CHECKOUT_DELIVERY_CHARGE_PAISE" default:"0"`
	Currency            string `envconfig:"NUCLEOTIDE_CHECKOUT_CURRENCY" default:"INR"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"NUCLEOTIDE_CRON_INTERVAL" default:"1h"`
	ReconcileBatchSize int           `envconfig:"NUCLEOTIDE_CRON_RECONCILE_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NUCLEOTIDE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NUCLEOTIDE_AUTO_MIGRATE" default:"false"`
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
