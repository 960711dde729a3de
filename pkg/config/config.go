package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "marushop"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	Sendgrid     SendgridConfig
	Alerts       AlertsConfig
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
	Env          string `envconfig:"MARUSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"MARUSHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARUSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARUSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MARUSHOP_DB_DSN"`

	Host     string `envconfig:"MARUSHOP_DB_HOST"`
	Port     int    `envconfig:"MARUSHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"MARUSHOP_DB_USER"`
	Password string `envconfig:"MARUSHOP_DB_PASSWORD"`
	Name     string `envconfig:"MARUSHOP_DB_NAME"`
	SSLMode  string `envconfig:"MARUSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARUSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARUSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARUSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARUSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARUSHOP_REDIS_URL"`
	Address      string        `envconfig:"MARUSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"MARUSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARUSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARUSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARUSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARUSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARUSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARUSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig controls how anonymous cart identity travels on the wire.
type CartConfig struct {
	CookieName   string        `envconfig:"MARUSHOP_CART_COOKIE_NAME" default:"marushop_cart"`
	CookieTTL    time.Duration `envconfig:"MARUSHOP_CART_COOKIE_TTL" default:"8760h"`
	CookieSecure bool          `envconfig:"MARUSHOP_CART_COOKIE_SECURE" default:"true"`
}

type CheckoutConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"MARUSHOP_CHECKOUT_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
	DefaultCurrency       string        `envconfig:"MARUSHOP_CHECKOUT_DEFAULT_CURRENCY" default:"KRW"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"MARUSHOP_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"MARUSHOP_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"MARUSHOP_SENDGRID_FROM_NAME" default:"MaruShop"`
}

// AlertsConfig routes operational alerts. Empty recipient disables the email,
// alerts still land in the log.
type AlertsConfig struct {
	LowStockEmail string `envconfig:"MARUSHOP_ALERTS_LOW_STOCK_EMAIL"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARUSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, part := range []struct {
		envName string
		value   string
	}{
		{"MARUSHOP_DB_HOST", db.Host},
		{"MARUSHOP_DB_USER", db.User},
		{"MARUSHOP_DB_NAME", db.Name},
	} {
		if part.value == "" {
			missing = append(missing, part.envName)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either MARUSHOP_DB_DSN or %s are required", strings.Join(missing, ", "))
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
