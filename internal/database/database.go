// Package database manages the PostgreSQL connection pool behind a
// small Service interface so handlers depend on an abstraction.
package database

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gbun420/visatrack-malta/internal/config"
)

// Service exposes the connection pool and lifecycle operations.
type Service interface {
	GetPool() *pgxpool.Pool
	Health() map[string]string
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and pings it. Fatal on failure: the
// service cannot do anything without its database.
func New(cfg *config.DBConfig) Service {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	return &service{pool: pool}
}

// GetPool returns the underlying pgx pool.
func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

// Health reports connectivity and pool stats for the health endpoint.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "up"}

	if err := s.pool.Ping(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	stats := s.pool.Stat()
	status["totalConns"] = strconv.Itoa(int(stats.TotalConns()))
	status["idleConns"] = strconv.Itoa(int(stats.IdleConns()))

	return status
}

// Close releases the pool.
func (s *service) Close() {
	s.pool.Close()
}
