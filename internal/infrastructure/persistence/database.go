package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 5 * time.Second

// Database owns the voucherdesk connection pool
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

type openOptions struct {
	gormLogger logger.Interface
	dialector  gorm.Dialector
}

// Option customizes Open
type Option func(*openOptions)

// WithGormLogger routes SQL logging through l
func WithGormLogger(l logger.Interface) Option {
	return func(o *openOptions) { o.gormLogger = l }
}

// WithDialector replaces the postgres dialector built from the config
func WithDialector(d gorm.Dialector) Option {
	return func(o *openOptions) { o.dialector = d }
}

// Open connects to postgres, sizes the pool from cfg and waits for the first ping.
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{gormLogger: logger.Default.LogMode(logger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialector == nil {
		o.dialector = postgres.Open(cfg.DSN())
	}

	// Numbering and approval updates run inside explicit scopes, so
	// gorm's implicit per-statement transaction is off.
	db, err := gorm.Open(o.dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db, sql: pool}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := d.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", cfg.DBName, err)
	}
	return d, nil
}

// PingContext satisfies the health check
func (d *Database) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close releases the pool
func (d *Database) Close() error {
	return d.sql.Close()
}

// PoolStats is a snapshot of the connection pool
type PoolStats struct {
	MaxOpen      int
	Open         int
	InUse        int
	Idle         int
	WaitCount    int64
	WaitDuration time.Duration
}

// Stats snapshots the pool
func (d *Database) Stats() PoolStats {
	s := d.sql.Stats()
	return PoolStats{
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}
