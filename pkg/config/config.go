package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "NEIIST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NEIIST_DB_DSN"
	EnvDBHost = "NEIIST_DB_HOST"
	EnvDBUser = "NEIIST_DB_USER"
	EnvDBName = "NEIIST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"NEIIST_APP_ENV" required:"true"`
	Port         string `envconfig:"NEIIST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NEIIST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEIIST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"NEIIST_DB_DSN"`

	LegacyHost     string `envconfig:"NEIIST_DB_HOST"`
	LegacyPort     int    `envconfig:"NEIIST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEIIST_DB_USER"`
	LegacyPassword string `envconfig:"NEIIST_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEIIST_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEIIST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEIIST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEIIST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEIIST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEIIST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEIIST_REDIS_URL"`
	Address      string        `envconfig:"NEIIST_REDIS_ADDR"`
	Password     string        `envconfig:"NEIIST_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEIIST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEIIST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEIIST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEIIST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEIIST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEIIST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. The
// catalog cache is optional; the shop runs without it.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"NEIIST_CATALOG_CACHE_TTL" default:"60s"`
}

// RateLimitConfig throttles order creation per client IP. A zero limit
// disables the middleware; it is also skipped when redis is not configured.
type RateLimitConfig struct {
	OrderWindow  time.Duration `envconfig:"NEIIST_RATE_LIMIT_ORDER_WINDOW" default:"1m"`
	OrderIPLimit int           `envconfig:"NEIIST_RATE_LIMIT_ORDER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEIIST_AUTO_MIGRATE" default:"false"`
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
