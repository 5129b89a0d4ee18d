package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

func fastConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	result, err := Retry(context.Background(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, fastConfig(), logging.NewNoopLogger())

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), func() (int, error) {
		attempts++
		return 0, errors.New("always fails")
	}, fastConfig(), logging.NewNoopLogger())

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryHonorsShouldRetry(t *testing.T) {
	permanent := errors.New("permanent")
	config := fastConfig()
	config.ShouldRetry = func(err error, attempt int) bool {
		return !errors.Is(err, permanent)
	}

	attempts := 0
	_, err := Retry(context.Background(), func() (int, error) {
		attempts++
		return 0, permanent
	}, config, logging.NewNoopLogger())

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, func() (int, error) {
		return 0, errors.New("should not matter")
	}, fastConfig(), logging.NewNoopLogger())

	require.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultRetryConfig()
	require.NoError(t, config.Validate())

	config.BackoffFactor = 0.5
	assert.Error(t, config.Validate())
}

func TestCalculateNextDelayCapped(t *testing.T) {
	next := CalculateNextDelay(20*time.Second, 2.0, 30*time.Second)
	assert.Equal(t, 30*time.Second, next)
}
