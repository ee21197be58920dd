package retry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

// Config configures retry behavior for upstream API calls
type Config struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConfig returns sensible defaults: three attempts with a short
// exponential backoff, bounded so a rate-limited burst cannot stall a
// tool call for long.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

func (c *Config) options(ctx context.Context, operation string) []retry.Option {
	return []retry.Option{
		retry.Attempts(c.MaxAttempts),
		retry.Delay(c.InitialDelay),
		retry.MaxDelay(c.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("operation failed, retrying",
				"operation", operation,
				"attempt", n+1,
				"max_attempts", c.MaxAttempts,
				"error", err,
			)
		}),
		retry.RetryIf(core.IsRetryable),
	}
}

// Do executes fn with bounded exponential backoff. Only errors that
// core.IsRetryable approves (rate-limited, transient network) trigger
// another attempt.
func Do(ctx context.Context, operation string, config *Config, fn func() error) error {
	if config == nil {
		config = DefaultConfig()
	}
	return retry.Do(fn, config.options(ctx, operation)...)
}

// DoTyped executes fn with retry logic and returns a typed result
func DoTyped[T any](ctx context.Context, operation string, config *Config, fn func() (T, error)) (T, error) {
	var result T
	if config == nil {
		config = DefaultConfig()
	}
	err := retry.Do(func() error {
		var retryErr error
		result, retryErr = fn()
		return retryErr
	}, config.options(ctx, operation)...)
	return result, err
}

// WithRecover executes a function with panic recovery. Tool handlers run
// behind this so a panic surfaces as a structured error instead of
// killing the stdio transport.
func WithRecover(operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			logger.Error("panic recovered",
				"operation", operation,
				"panic", r,
				"stack", stack,
			)

			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = fmt.Errorf("panic: %v", v)
			}

			err = core.NewError(err, "PANIC_RECOVERED", map[string]any{
				"operation": operation,
			})
		}
	}()

	return fn()
}
