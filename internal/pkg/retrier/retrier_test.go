package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Randomization:   0,
		Multiplier:      1.5,
	}
}

func TestRetrier_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := New(fastConfig()).ExecuteWithContext(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetrier_ShouldRetryStopsEarly(t *testing.T) {
	permanent := errors.New("bad input")
	cfg := fastConfig()
	cfg.ShouldRetry = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := New(cfg).ExecuteWithContext(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestRetrier_MaxRetries(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 2

	calls := 0
	err := New(cfg).ExecuteWithContext(context.Background(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestRetrier_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(fastConfig()).ExecuteWithContext(ctx, func(context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)
}
