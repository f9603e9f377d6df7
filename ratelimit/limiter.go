package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults used when a limit or window is not configured.
const (
	DefaultLimit  = 100
	DefaultWindow = time.Hour
)

var (
	// ErrInvalidLimit is returned by New for a non-positive limit.
	ErrInvalidLimit = errors.New("ratelimit: limit must be positive")
	// ErrInvalidWindow is returned by New for a non-positive window.
	ErrInvalidWindow = errors.New("ratelimit: window must be positive")
)

// Decision is the outcome of a Check.
type Decision struct {
	Allowed    bool
	Count      int // requests seen in the current window, capped at Limit+1
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when allowed
}

// Limiter applies a fixed-window limit per client key.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore sets the record store. The default is a MemoryStore.
func WithStore(s Store) Option {
	return func(l *Limiter) {
		if s != nil {
			l.store = s
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns a Limiter that allows limit requests per window for each key.
func New(limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}

	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = NewMemoryStore()
	}
	return l, nil
}

// Limit returns the number of requests allowed per window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Check counts a request for key and reports whether it is allowed. Store
// failures are returned unchanged.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	rec, err := l.store.Take(ctx, key, l.limit, l.window, now)
	if err != nil {
		return Decision{}, fmt.Errorf("take %q: %w", key, err)
	}

	d := Decision{
		Allowed:   rec.Count <= l.limit,
		Count:     rec.Count,
		Limit:     l.limit,
		Remaining: max(0, l.limit-rec.Count),
		ResetAt:   rec.WindowStart.Add(l.window),
	}
	if !d.Allowed {
		d.RetryAfter = max(0, d.ResetAt.Sub(now))
	}
	return d, nil
}
