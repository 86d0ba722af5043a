package services

import (
	"context"
	"time"
)

// Decision is the tri-state outcome of waiting on the resource calendar's
// asynchronous accept/decline. Pending means the bounded wait ran out
// without a definitive answer; it is not an error.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionAccepted
	DecisionDeclined
)

func (d Decision) String() string {
	switch d {
	case DecisionAccepted:
		return "accepted"
	case DecisionDeclined:
		return "declined"
	default:
		return "pending"
	}
}

// RetryPolicy bounds an acceptance-polling loop: at most MaxAttempts probes
// with capped exponential backoff between them.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultAcceptancePolicy probes five times over roughly five seconds. The
// upstream service gives no timing guarantee, so the bound is deliberately
// conservative.
var DefaultAcceptancePolicy = RetryPolicy{
	MaxAttempts:  5,
	InitialDelay: 400 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

// Await runs probe until it reports a definitive decision or the policy is
// exhausted, sleeping between attempts. A probe error aborts the wait.
func (p RetryPolicy) Await(ctx context.Context, probe func(ctx context.Context) (Decision, error)) (Decision, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay

	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return DecisionPending, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		d, err := probe(ctx)
		if err != nil {
			return DecisionPending, err
		}
		if d != DecisionPending {
			return d, nil
		}
	}
	return DecisionPending, nil
}
