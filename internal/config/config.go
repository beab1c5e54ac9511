package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config is read once at startup and handed to each component explicitly.
type Config struct {
	App          AppConfig
	DB           DBConfig
	StoreService StoreServiceConfig
	Redis        RedisConfig
}

// Ports are a binary's listen ports when HTTP_PORT / GRPC_PORT are unset.
type Ports struct {
	HTTP string
	GRPC string
}

func Load(defaults Ports) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.App.HTTPPort == "" {
		cfg.App.HTTPPort = defaults.HTTP
	}
	if cfg.App.GRPCPort == "" {
		cfg.App.GRPCPort = defaults.GRPC
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	HTTPPort  string `envconfig:"HTTP_PORT"`
	GRPCPort  string `envconfig:"GRPC_PORT"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

type StoreServiceConfig struct {
	// URL is only needed by the inventory service. Empty means every store
	// validation fails.
	URL     string        `envconfig:"STORE_SERVICE_URL"`
	Timeout time.Duration `envconfig:"STORE_SERVICE_TIMEOUT" default:"10s"`
	// Strict surfaces an unreachable store service as 503 instead of 404.
	Strict bool `envconfig:"STORE_VALIDATION_STRICT" default:"false"`
}

type RedisConfig struct {
	Addr           string        `envconfig:"REDIS_ADDR"`
	Password       string        `envconfig:"REDIS_PASSWORD"`
	DB             int           `envconfig:"REDIS_DB" default:"0"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

func (db *DBConfig) validate() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	if db.Driver != DriverPostgres && db.Driver != DriverMySQL {
		return fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}

	missing := []string{}
	for env, v := range map[string]string{"DB_HOST": db.Host, "DB_NAME": db.Name, "DB_USER": db.User} {
		if v == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required database settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
