package sequence

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

const maxOrderIDAttempts = 10

// Counter atomically increments the counter stored under key and returns the
// new value. The first call for a key returns 1.
type Counter interface {
	Increment(ctx context.Context, key string) (int64, error)
}

// Allocator mints human-readable document numbers scoped by calendar period.
type Allocator struct {
	counter Counter
	loc     *time.Location
	now     func() time.Time
}

// Option customises an Allocator.
type Option func(*Allocator)

// WithClock overrides the allocator clock.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

// WithLocation sets the time zone periods are computed in.
func WithLocation(loc *time.Location) Option {
	return func(a *Allocator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// NewAllocator constructs an allocator on top of counter.
func NewAllocator(counter Counter, opts ...Option) *Allocator {
	a := &Allocator{counter: counter, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Next allocates the next number for class in its default period.
func (a *Allocator) Next(ctx context.Context, class Class) (string, error) {
	return a.NextFor(ctx, class, class.Granularity())
}

// NextFor allocates the next number for class within the given period.
func (a *Allocator) NextFor(ctx context.Context, class Class, g Granularity) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("%w: unknown document class %q", shared.ErrValidation, class)
	}
	prefix := Prefix(class, g, a.now().In(a.loc))
	seq, err := a.counter.Increment(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("sequence: increment %s: %w", prefix, err)
	}
	width := class.Width()
	if seq > int64(math.Pow10(width))-1 {
		return "", fmt.Errorf("%w: %s exceeded %d digits", shared.ErrAllocationExhausted, prefix, width)
	}
	return Format(prefix, seq, width), nil
}

// NextOrderID allocates an order id, retrying while exists reports a
// collision. After maxOrderIDAttempts collisions it gives up.
func (a *Allocator) NextOrderID(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		id, err := a.Next(ctx, ClassOrder)
		if err != nil {
			return "", err
		}
		if exists == nil {
			return id, nil
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free order id after %d attempts", shared.ErrAllocationExhausted, maxOrderIDAttempts)
}
