package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/deep-rent/components/internal/config"
)

// VisitCounter counts page visits.
type VisitCounter interface {
	// Increment records a visit of page and returns the new total.
	Increment(ctx context.Context, page string) (int64, error)
	// Count returns the number of recorded visits of page.
	Count(ctx context.Context, page string) (int64, error)
}

// MemoryCounter keeps visit counts in process memory.
type MemoryCounter struct {
	mu     sync.Mutex
	visits map[string]int64
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{visits: make(map[string]int64)}
}

func (c *MemoryCounter) Increment(_ context.Context, page string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visits[page]++
	return c.visits[page], nil
}

func (c *MemoryCounter) Count(_ context.Context, page string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visits[page], nil
}

// pingTimeout bounds the connectivity check of OpenDB.
const pingTimeout = 5 * time.Second

// OpenDB opens and pings the Postgres database named by the configured DSN.
// The returned pool is owned by the container, which closes it on shutdown.
func OpenDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS visits (
	page  TEXT PRIMARY KEY,
	total BIGINT NOT NULL DEFAULT 0
)`

// PostgresCounter keeps visit counts in a Postgres table.
type PostgresCounter struct {
	db *sql.DB
}

// NewPostgresCounter creates the visits table if necessary.
func NewPostgresCounter(db *sql.DB) (*PostgresCounter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresCounter{db: db}, nil
}

func (c *PostgresCounter) Increment(ctx context.Context, page string) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO visits (page, total) VALUES ($1, 1)
		ON CONFLICT (page) DO UPDATE SET total = visits.total + 1
		RETURNING total`, page,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment visits of %q: %w", page, err)
	}
	return total, nil
}

func (c *PostgresCounter) Count(ctx context.Context, page string) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx,
		`SELECT total FROM visits WHERE page = $1`, page,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count visits of %q: %w", page, err)
	}
	return total, nil
}
