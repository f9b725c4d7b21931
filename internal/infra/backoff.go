package infra

import (
	"context"
	"time"
)

// Backoff produces exponentially increasing delays for reconnect loops.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	next time.Duration
}

// DefaultBackoff returns the delay schedule used for store listener
// reconnects: 500ms doubling up to 30s.
func DefaultBackoff() *Backoff {
	return &Backoff{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2.0,
	}
}

// Next returns the next delay in the schedule.
func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Initial
	}
	d := b.next

	b.next = time.Duration(float64(b.next) * b.Multiplier)
	if b.next > b.Max {
		b.next = b.Max
	}
	return d
}

// Reset restarts the schedule after a successful attempt.
func (b *Backoff) Reset() {
	b.next = 0
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
