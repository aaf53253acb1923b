package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "WISHPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Wishlist WishlistConfig
	Catalog  CatalogConfig
	Features FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WISHPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"WISHPOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"WISHPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WISHPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"WISHPOS_DB_DSN"`

	Host     string `envconfig:"WISHPOS_DB_HOST"`
	Port     int    `envconfig:"WISHPOS_DB_PORT" default:"5432"`
	User     string `envconfig:"WISHPOS_DB_USER"`
	Password string `envconfig:"WISHPOS_DB_PASSWORD"`
	Name     string `envconfig:"WISHPOS_DB_NAME"`
	SSLMode  string `envconfig:"WISHPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WISHPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WISHPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WISHPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WISHPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WISHPOS_REDIS_URL"`
	Address      string        `envconfig:"WISHPOS_REDIS_ADDR"`
	Password     string        `envconfig:"WISHPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"WISHPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WISHPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WISHPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WISHPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WISHPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WISHPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WishlistConfig carries the lifecycle knobs for the staging core.
type WishlistConfig struct {
	TTLHours        int    `envconfig:"WISHPOS_WISHLIST_TTL_HOURS" default:"24"`
	MaxItems        int    `envconfig:"WISHPOS_WISHLIST_MAX_ITEMS" default:"50"`
	DefaultCurrency string `envconfig:"WISHPOS_DEFAULT_CURRENCY" default:"HKD"`
}

// TTL returns the configured wishlist lifetime.
func (w WishlistConfig) TTL() time.Duration {
	if w.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(w.TTLHours) * time.Hour
}

// CatalogConfig configures the Shopify passthrough used to backfill item
// snapshots and its burst cache.
type CatalogConfig struct {
	ShopDomain   string        `envconfig:"WISHPOS_SHOPIFY_SHOP_DOMAIN"`
	AdminToken   string        `envconfig:"WISHPOS_SHOPIFY_ADMIN_TOKEN"`
	APIVersion   string        `envconfig:"WISHPOS_SHOPIFY_API_VERSION" default:"2026-01"`
	CacheBackend string        `envconfig:"WISHPOS_CATALOG_CACHE_BACKEND" default:"memory"`
	CacheTTL     time.Duration `envconfig:"WISHPOS_CATALOG_CACHE_TTL" default:"30s"`
	HTTPTimeout  time.Duration `envconfig:"WISHPOS_CATALOG_HTTP_TIMEOUT" default:"10s"`
}

// Enabled reports whether the Shopify passthrough is configured at all. The
// wishlist core works without it; callers then must supply full item snapshots.
func (c CatalogConfig) Enabled() bool {
	return c.ShopDomain != "" && c.AdminToken != ""
}

func (c CatalogConfig) validate() error {
	switch c.CacheBackend {
	case "memory", "redis":
		return nil
	}
	return fmt.Errorf("catalog cache backend must be memory or redis, got %q", c.CacheBackend)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"WISHPOS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := []struct {
		env   string
		value string
	}{
		{"WISHPOS_DB_HOST", db.Host},
		{"WISHPOS_DB_USER", db.User},
		{"WISHPOS_DB_NAME", db.Name},
	}
	for _, item := range required {
		if item.value == "" {
			missing = append(missing, item.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either WISHPOS_DB_DSN or %s are required", strings.Join(missing, ", "))
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
