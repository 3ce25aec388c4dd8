package relay

import (
	"context"
	"time"
)

// RetryPolicy describes a fixed-interval polling schedule. No backoff: both
// sides of the bridge poll a cheap file-backed read, and predictable latency
// matters more than saving a handful of requests.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// UIWaitPolicy is the browser-side waiting screen schedule: a 2-second
// period with a 30-attempt ceiling, i.e. about a minute before the user is
// told to check back later.
var UIWaitPolicy = RetryPolicy{Interval: 2 * time.Second, MaxAttempts: 30}

// sleepFunc abstracts waiting so tests can run the polling loops without
// real time passing.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
