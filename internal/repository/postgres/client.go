package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/config"
)

// Client wraps the Postgres connection pool
type Client struct {
	db  *sql.DB
	log *zap.Logger
}

// NewClient creates a new Postgres client with the given configuration
func NewClient(ctx context.Context, cfg *config.Postgres, log *zap.Logger) (*Client, error) {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode)

	log.Info("Connecting to Postgres",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	log.Info("Postgres connection established successfully")

	return &Client{db: db, log: log}, nil
}

// DB returns the underlying connection pool
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the Postgres connection pool
func (c *Client) Close() error {
	c.log.Info("Closing Postgres connection")
	return c.db.Close()
}
