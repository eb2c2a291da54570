package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamlit-analytics/logger"
)

// NewSessionID returns an identifier for a dashboard viewer session.
func NewSessionID() string {
	return uuid.NewString()
}

func isRecoverableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Check if the error is a network error that is temporary or due to a timeout.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"timeout", "temporarily unavailable", "database is locked", "sqlite_busy"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// RetryWithExponentialBackoff runs operation until it succeeds, fails with a
// non-recoverable error, runs out of attempts or ctx is done.
func RetryWithExponentialBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration) error {
	delay := initialDelay
	var err error

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !isRecoverableError(err) {
			return err
		}
		if i == maxRetries-1 {
			break
		}

		logger.Log.Warnf("Attempt %d failed: %v. Retrying in %v...", i+1, err, delay)

		// Apply jitter: add a random duration between 0 and half the current delay.
		wait := delay
		if half := int64(delay / 2); half > 0 {
			wait += time.Duration(rand.Int63n(half))
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after %d attempts: %w", i+1, err)
		case <-time.After(wait):
		}
		delay *= 2
	}
	logger.Log.Errorf("operation failed after %d attempts: %v", maxRetries, err)
	return fmt.Errorf("operation failed after %d attempts: %w", maxRetries, err)
}
