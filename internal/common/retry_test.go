package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoreno/microhunt/internal/service"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 3, Delay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return errors.New("always broken")
	}, service.RetryOptions{MaxAttempts: 3, Delay: time.Millisecond})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxRetries))
	assert.Equal(t, 3, calls)
}

func TestWithRetryAbortsOnRateLimit(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: upstream", ErrRateLimit)
	}, service.RetryOptions{MaxAttempts: 5, Delay: time.Millisecond})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimit))
	assert.Equal(t, 1, calls, "rate limits should not be retried in place")
}

func TestWithRetryAbortsOnModelNotFound(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: some/model", ErrModelNotFound)
	}, service.RetryOptions{MaxAttempts: 5, Delay: time.Millisecond})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelNotFound))
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		return errors.New("transient")
	}, service.RetryOptions{MaxAttempts: 5, Delay: time.Minute})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}
