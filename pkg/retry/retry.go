package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxRetries int           // Maximum number of retry attempts
	Delay      time.Duration // Delay before the first retry
	MaxDelay   time.Duration // Upper bound on the delay
	Multiplier float64       // Delay multiplier; 1.0 keeps a fixed delay
}

// DefaultConfig returns the reaper's default policy: a small fixed number of
// attempts with a fixed delay between them. Retries stay bounded either way.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Delay:      5 * time.Second,
		MaxDelay:   time.Minute,
		Multiplier: 1.0,
	}
}

// Do executes fn, retrying up to MaxRetries times on failure.
func Do(ctx context.Context, config Config, fn func() error) error {
	var lastErr error
	delay := config.Delay
	if config.Multiplier <= 0 {
		config.Multiplier = 1.0
	}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", config.MaxRetries, lastErr)
}
