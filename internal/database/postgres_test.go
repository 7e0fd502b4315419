package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func stubPostgres(t *testing.T) {
	t.Helper()
	origParse, origNew, origPing, origClose := parsePGConfig, newPGPool, pingPGPool, closePGPool
	t.Cleanup(func() {
		parsePGConfig = origParse
		newPGPool = origNew
		pingPGPool = origPing
		closePGPool = origClose
	})
}

func TestNewPostgresDB_ParseError(t *testing.T) {
	stubPostgres(t)
	parsePGConfig = func(dsn string) (*pgxpool.Config, error) {
		return nil, errors.New("bad dsn")
	}

	if _, err := NewPostgresDB("bad"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewPostgresDB_PingErrorClosesPool(t *testing.T) {
	stubPostgres(t)
	parsePGConfig = func(dsn string) (*pgxpool.Config, error) { return &pgxpool.Config{}, nil }
	newPGPool = func(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) {
		return &pgxpool.Pool{}, nil
	}
	pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error { return errors.New("ping failed") }
	closed := false
	closePGPool = func(pool *pgxpool.Pool) { closed = true }

	if _, err := NewPostgresDB("dsn"); err == nil {
		t.Fatal("expected ping error")
	}
	if !closed {
		t.Fatal("expected pool to be closed after failed ping")
	}
}

func TestNewPostgresDB_AppliesPoolSettings(t *testing.T) {
	stubPostgres(t)
	cfg := &pgxpool.Config{}
	parsePGConfig = func(dsn string) (*pgxpool.Config, error) { return cfg, nil }
	pool := &pgxpool.Pool{}
	newPGPool = func(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) { return pool, nil }
	pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error { return nil }
	closePGPool = func(pool *pgxpool.Pool) {}

	db, err := NewPostgresDB("dsn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Pool != pool {
		t.Fatal("expected stubbed pool")
	}
	if cfg.MaxConns != 20 || cfg.MinConns != 2 {
		t.Fatalf("unexpected conns: max=%d min=%d", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnIdleTime != 15*time.Minute {
		t.Fatalf("expected 15m idle time, got %v", cfg.MaxConnIdleTime)
	}
	if cfg.HealthCheckPeriod != time.Minute {
		t.Fatalf("expected 1m health check, got %v", cfg.HealthCheckPeriod)
	}
}

func TestPostgresDB_HealthNilPool(t *testing.T) {
	db := &PostgresDB{}
	if err := db.Health(context.Background()); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresDB_Close(t *testing.T) {
	stubPostgres(t)
	called := false
	closePGPool = func(pool *pgxpool.Pool) { called = true }

	(&PostgresDB{}).Close()
	if called {
		t.Fatal("close should be skipped for nil pool")
	}
	(&PostgresDB{Pool: &pgxpool.Pool{}}).Close()
	if !called {
		t.Fatal("expected closePGPool to be called")
	}
}
