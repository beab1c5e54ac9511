package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/port"
)

// Adapter is a SQL backend serving both tables.
type Adapter interface {
	port.StoreRepository
	port.InventoryRepository
	Ping(ctx context.Context) error
}

func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func DSN(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		userInfo := url.User(cfg.User)
		if cfg.Password != "" {
			userInfo = url.UserPassword(cfg.User, cfg.Password)
		}
		u := &url.URL{
			Scheme: "postgres",
			User:   userInfo,
			Host:   net.JoinHostPort(cfg.Host, cfg.Port),
			Path:   cfg.Name,
		}
		if cfg.SSLMode != "" {
			q := u.Query()
			q.Set("sslmode", cfg.SSLMode)
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		mc.DBName = cfg.Name
		mc.ParseTime = true
		// report matched rather than changed rows so a no-op quantity update is not a miss
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func NewAdapter(driver string, db *sql.DB) (Adapter, error) {
	switch driver {
	case config.DriverPostgres:
		return NewPostgresAdapter(db), nil
	case config.DriverMySQL:
		return NewMySQLAdapter(db), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
