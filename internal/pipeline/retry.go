package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/tafsirgest/internal/gdocs"
	"github.com/dgallion1/tafsirgest/internal/pathstore"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *gdocs.RetryableError
	if errors.As(err, &retryErr) {
		return true
	}
	var statusErr *pathstore.StatusError
	return errors.As(err, &statusErr) && statusErr.Temporary()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
