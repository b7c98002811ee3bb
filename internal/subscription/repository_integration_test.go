// AngelaMos | 2026
// repository_integration_test.go

//go:build integration

package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/migrations"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
)

// Run against a disposable database:
//
//	DATABASE_URL=postgres://... go test -tags integration ./internal/subscription/
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sqlx.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migrations.Run(db.DB, "../../migrations", logger))
	return db
}

func seedAccount(t *testing.T, db *sqlx.DB, role string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO accounts (id, email, password_hash, role) VALUES ($1, $2, 'x', $3)`,
		id, id+"@example.com", role)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.ExecContext(ctx, `DELETE FROM subscriptions WHERE owner_id = $1`, id)
		_, _ = db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	})
	return id
}

func seedPending(t *testing.T, repo Repository, ownerID string) *Subscription {
	t.Helper()

	sub := &Subscription{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Band:           pricing.Band24,
		PaymentMethod:  MethodAirtel,
		TransactionRef: "TX-1",
		Price:          2000,
		Status:         StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func TestRepositoryDecideHasOneWinner(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	owner := seedAccount(t, db, "user")
	decider := seedAccount(t, db, "admin")
	sub := seedPending(t, repo, owner)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now().UTC()
			end := now.Add(accessDuration)
			_, errs[i] = repo.Decide(context.Background(), sub.ID, Decision{
				Status:    StatusActive,
				StartAt:   &now,
				EndAt:     &end,
				DecidedBy: decider,
				DecidedAt: now,
			})
		}()
	}
	wg.Wait()

	var won, decided int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, core.ErrAlreadyDecided):
			decided++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, decided)

	stored, err := repo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, stored.Status)
	require.NotNil(t, stored.StartAt)
	require.NotNil(t, stored.EndAt)

	_, err = repo.Decide(context.Background(), uuid.New().String(), Decision{
		Status:    StatusRejected,
		DecidedBy: decider,
		DecidedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryMarkRevealedOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	sub := seedPending(t, repo, seedAccount(t, db, "user"))

	const workers = 8
	var wg sync.WaitGroup
	results := make([]bool, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.MarkRevealed(context.Background(), sub.ID)
			assert.NoError(t, err)
			results[i] = won
		}()
	}
	wg.Wait()

	var winners int
	for _, won := range results {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	again, err := repo.MarkRevealed(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestRepositoryMalformedIDIsInvalidInput(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)

	// the service layer turns this into not found before it gets here
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
