package binance

import "time"

// Backoff yields a doubling delay starting at base.
type Backoff struct {
	base time.Duration
	next time.Duration
}

func NewBackoff(base time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	return &Backoff{base: base, next: base}
}

// Next returns the current delay and doubles it for the following call.
func (b *Backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	return d
}

// Reset starts the sequence over from base.
func (b *Backoff) Reset() { b.next = b.base }
