package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil错误", nil, false},
		{"连接被拒绝", errors.New("dial tcp 127.0.0.1:8545: connection refused"), true},
		{"IO超时", errors.New("read tcp: i/o timeout"), true},
		{"限流", errors.New("429 too many requests"), true},
		{"DNS失败", errors.New("no such host"), true},
		// 链上语义错误不可重试
		{"合约回滚", errors.New("execution reverted: ERC20: insufficient balance"), false},
		{"nonce过低", errors.New("nonce too low"), false},
		{"资金不足", errors.New("insufficient funds for gas * price + value"), false},
		{"普通错误", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
		})
	}
}

func TestRetrier_Execute_SucceedsAfterRetry(t *testing.T) {
	logger := logrus.New()
	retrier := NewRetrier(&RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		BackoffFactor:   2.0,
	}, logger)

	attempts := 0
	err := retrier.Execute(context.Background(), "dial", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_Execute_NonRetryableStopsImmediately(t *testing.T) {
	logger := logrus.New()
	retrier := NewRetrier(&RetryConfig{
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		BackoffFactor:   2.0,
	}, logger)

	attempts := 0
	err := retrier.Execute(context.Background(), "send_tx", func() error {
		attempts++
		return errors.New("execution reverted: not owner")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrier_Execute_ExhaustsAttempts(t *testing.T) {
	logger := logrus.New()
	retrier := NewRetrier(&RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		BackoffFactor:   2.0,
	}, logger)

	attempts := 0
	err := retrier.Execute(context.Background(), "dial", func() error {
		attempts++
		return fmt.Errorf("i/o timeout")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "重试 3 次后失败")
}

func TestRetrier_Execute_ContextCancelled(t *testing.T) {
	logger := logrus.New()
	retrier := NewRetrier(DefaultRetryConfig, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retrier.Execute(ctx, "dial", func() error {
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_Bounded(t *testing.T) {
	logger := logrus.New()
	retrier := NewRetrier(&RetryConfig{
		MaxAttempts:         10,
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         time.Second,
		BackoffFactor:       2.0,
		RandomizationFactor: 0.1,
		EnableJitter:        true,
	}, logger)

	for attempt := 1; attempt <= 10; attempt++ {
		delay := retrier.calculateDelay(attempt)
		assert.Greater(t, delay, time.Duration(0))
		assert.LessOrEqual(t, delay, time.Second+200*time.Millisecond)
	}
}
