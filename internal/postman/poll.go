package postman

import (
	"context"
	"time"
)

// ExhaustPolicy selects what happens when a poll exhausts its attempt cap.
type ExhaustPolicy int

const (
	// WarnOnExhausted degrades exhaustion to a logged warning; the
	// resource is assumed eventually consistent.
	WarnOnExhausted ExhaustPolicy = iota
	// FailOnExhausted escalates exhaustion to a TimeoutError; the
	// resource's presence is unconfirmed.
	FailOnExhausted
)

// PollConfig holds the fixed-interval polling parameters. No backoff, no
// jitter.
type PollConfig struct {
	Interval time.Duration
	Attempts int
}

// pollUntil invokes check at a fixed interval until it reports done or the
// attempt cap runs out. Errors from check are swallowed and retried, never
// escalated. On exhaustion the policy decides between a warning and a
// TimeoutError; the second return value reports whether the cap was hit.
func (c *Client) pollUntil(ctx context.Context, what string, policy ExhaustPolicy, check func(context.Context) (bool, error)) (bool, error) {
	for attempt := 0; attempt < c.poll.Attempts; attempt++ {
		done, err := check(ctx)
		if err == nil && done {
			return false, nil
		}
		if err != nil {
			c.warnf("poll for %s: attempt %d/%d failed: %v", what, attempt+1, c.poll.Attempts, err)
		}
		time.Sleep(c.poll.Interval)
	}

	if policy == FailOnExhausted {
		return true, &TimeoutError{What: what, Attempts: c.poll.Attempts}
	}
	c.warnf("gave up waiting for %s after %d attempts; assuming it is present", what, c.poll.Attempts)
	return true, nil
}
