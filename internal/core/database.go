// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
)

const pingTimeout = 5 * time.Second

// Database owns the Postgres pool behind every repository.
type Database struct {
	DB *sqlx.DB
}

// NewDatabase opens the pool and waits for Postgres to answer, retrying
// while the container is still starting.
func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*Database, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db}

	err = awaitReady(ctx, "database", cfg.ConnectRetries, cfg.RetryBackoff, logger, d.Ping)
	if err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return d, nil
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", Classify(err))
	}

	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

// awaitReady calls ping up to attempts times, sleeping backoff between
// failures. The last error is returned once attempts run out.
func awaitReady(
	ctx context.Context,
	name string,
	attempts int,
	backoff time.Duration,
	logger *slog.Logger,
	ping func(context.Context) error,
) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		logger.Warn("dependency not ready",
			"dependency", name,
			"attempt", attempt,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", name, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("connect to %s after %d attempts: %w", name, attempts, err)
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}
