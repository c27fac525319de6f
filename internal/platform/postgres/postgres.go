// Package postgres opens the GORM handle shared by the cart store and the
// stale-cart purger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

var ErrEmptyDSN = errors.New("POSTGRES_DSN is empty")

// Pool sizes the connection pool. Every cart mutation issues one upsert, so
// a small pool is enough for a single API instance.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Option func(*Pool)

func WithMaxOpenConns(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.MaxOpenConns = n
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.ConnMaxLifetime = d
		}
	}
}

// DefaultPool is applied before options.
func DefaultPool() Pool {
	return Pool{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute}
}

func newPool(opts ...Option) Pool {
	pool := DefaultPool()
	for _, opt := range opts {
		if opt != nil {
			opt(&pool)
		}
	}
	if pool.MaxIdleConns > pool.MaxOpenConns {
		pool.MaxIdleConns = pool.MaxOpenConns
	}
	return pool
}

// Connect opens the cart database, sizes its pool and pings it.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyDSN
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open cart database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap cart database: %w", err)
	}
	pool := newPool(opts...)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping cart database: %w", err)
	}
	return db, nil
}

// ConnectDSN is Connect plus a cleanup that closes the pool.
func ConnectDSN(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*gorm.DB, func(), error) {
	db, err := Connect(ctx, dsn, opts...)
	if err != nil {
		return nil, func() {}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, func() {}, err
	}
	if logger != nil {
		logger.Info("cart database connected", slog.Int("db.pool.max_open", sqlDB.Stats().MaxOpenConnections))
	}
	return db, func() { _ = sqlDB.Close() }, nil
}
