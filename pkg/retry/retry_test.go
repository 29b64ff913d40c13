package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomly/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), logger.Discard(), "publish", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("broker unavailable")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastConfig(2), logger.Discard(), "publish", func(context.Context) error {
		calls++
		return errors.New("still down")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	bad := errors.New("malformed payload")
	calls := 0
	err := Run(context.Background(), fastConfig(5), logger.Discard(), "decode", func(context.Context) error {
		calls++
		return Permanent(bad)
	})

	assert.ErrorIs(t, err, bad)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, fastConfig(3), logger.Discard(), "publish", func(context.Context) error {
		t.Fatal("fn must not run on a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBackOff_Capped(t *testing.T) {
	b := newBackOff(&Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, BackoffMultiplier: 2})

	assert.Equal(t, 100*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 200*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 300*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 300*time.Millisecond, b.NextBackOff())
}
