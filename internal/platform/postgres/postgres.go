package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool bounds the connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

// DefaultPool is used when Connect or Open receive no pool.
var DefaultPool = Pool{MaxOpen: 4, MaxIdle: 2, MaxIdleTime: 5 * time.Minute, PingTimeout: 5 * time.Second}

// Connect opens a PostgreSQL connection via GORM, sizes the pool and verifies
// connectivity.
func Connect(ctx context.Context, dsn string, pool ...Pool) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	cfg := DefaultPool
	if len(pool) > 0 {
		cfg = pool[0]
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPool.PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Open dials dsn and returns the DB plus a cleanup function. An empty dsn or a
// failed connection is logged and yields nil, so callers fall back to memory.
func Open(ctx context.Context, dsn string, log *slog.Logger, pool ...Pool) (*gorm.DB, func()) {
	noop := func() {}
	if strings.TrimSpace(dsn) == "" {
		log.Warn("POSTGRES_DSN not set, keeping local storage in memory")
		return nil, noop
	}
	db, err := Connect(ctx, dsn, pool...)
	if err != nil {
		log.Warn("postgres unavailable, keeping local storage in memory", slog.String("error", err.Error()))
		return nil, noop
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to unwrap postgres connection, keeping local storage in memory", slog.String("error", err.Error()))
		return nil, noop
	}
	log.Info("local storage backed by postgres", slog.Int("max_open_conns", sqlDB.Stats().MaxOpenConnections))
	return db, func() { _ = sqlDB.Close() }
}
