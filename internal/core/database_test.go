// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAwaitReadyRetriesUntilReady(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := awaitReady(context.Background(), "database", 5, time.Millisecond, discardLogger(), ping)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAwaitReadyGivesUp(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		return errors.New("connection refused")
	}

	err := awaitReady(context.Background(), "redis", 3, time.Millisecond, discardLogger(), ping)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 3, calls)
}

func TestAwaitReadyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ping := func(context.Context) error { return errors.New("down") }

	err := awaitReady(ctx, "database", 10, time.Hour, discardLogger(), ping)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{
		URL:            "redis://" + mr.Addr(),
		PoolSize:       2,
		ConnectRetries: 1,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	assert.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}
