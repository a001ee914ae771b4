package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/logging"

	"github.com/avast/retry-go/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const createClientStateTable = `
CREATE TABLE IF NOT EXISTS client_state (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertClientState = `
INSERT INTO client_state (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

// PostgresStore guarda el estado del cliente en la tabla client_state
type PostgresStore struct {
	db *sqlx.DB
}

// postgresDSN builds a lib/pq key=value connection string
func postgresDSN(cfg config.PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode,
	)
}

// NewPostgresStore connects with a few retries and ensures the table exists
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
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

	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.Warn(ctx, "Postgres not ready, retrying", logging.Fields{
				"attempt": n + 1,
				"host":    cfg.Host,
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	if _, err := db.ExecContext(ctx, createClientStateTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating client_state table: %w", err)
	}

	logging.Info(ctx, "Connected to PostgreSQL", logging.Fields{"host": cfg.Host, "database": cfg.Name})
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM client_state WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

func (s *PostgresStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, upsertClientState, key, value)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = $1`, key)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
