package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/config"
)

// DB wraps the pgxpool.Pool. The pool is created here and nowhere else.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a connection pool from config and verifies it with a ping.
func New(cfg *config.Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus summarizes pool health for the health endpoint.
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time"`
	MaxConns     int32         `json:"max_conns"`
	IdleConns    int32         `json:"idle_conns"`
	UsedConns    int32         `json:"used_conns"`
}

// HealthCheck pings the database and reports pool statistics.
func (db *DB) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	err := db.Pool.Ping(ctx)
	stats := db.Pool.Stat()
	return HealthStatus{
		Healthy:      err == nil,
		ResponseTime: time.Since(start),
		MaxConns:     stats.MaxConns(),
		IdleConns:    stats.IdleConns(),
		UsedConns:    stats.AcquiredConns(),
	}
}
