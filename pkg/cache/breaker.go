package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker wraps a remote cache with a circuit breaker. While the breaker is open
// reads miss and writes are dropped, so callers fall back to computing the value.
type Breaker struct {
	next Service
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. onStateChange may be nil.
func NewBreaker(next Service, onStateChange func(name string, from, to gobreaker.State), opts ...BreakerOption) *Breaker {
	cfg := &BreakerConfig{
		Name:                "cache",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	threshold := cfg.ConsecutiveFailures
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// a miss is a healthy answer
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrCacheMiss)
			},
			OnStateChange: onStateChange,
		}),
	}
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return v.([]byte), nil
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return b.run(func() error { return b.next.Set(ctx, key, value, expiration) })
}

func (b *Breaker) Delete(ctx context.Context, keys ...string) error {
	return b.run(func() error { return b.next.Delete(ctx, keys...) })
}

func (b *Breaker) DeleteByPattern(ctx context.Context, pattern string) error {
	return b.run(func() error { return b.next.DeleteByPattern(ctx, pattern) })
}

func (b *Breaker) Close() error {
	return b.next.Close()
}

func (b *Breaker) run(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}
