// Package ratelimit throttles outbound market-data calls on the client side.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"signet/pkg/core"
)

// ErrLimited is returned when a non-blocking check finds no token available.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter applies a shared limit across all calls plus one bucket per
// operation. A nil *Limiter allows everything.
type Limiter struct {
	global  *rate.Limiter
	buckets sync.Map
	limit   rate.Limit
	burst   int
	stats   *stats
}

type stats struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
	buckets atomic.Int32
}

// New creates a Limiter allowing requests per period, both globally and per operation.
func New(requests int, period time.Duration) *Limiter {
	limit := limitFor(requests, period)
	return &Limiter{
		global: rate.NewLimiter(limit, requests),
		limit:  limit,
		burst:  requests,
		stats:  &stats{},
	}
}

// Unlimited creates a Limiter that only throttles operations given their own
// limit through SetOperationLimit.
func Unlimited() *Limiter {
	return &Limiter{
		global: rate.NewLimiter(rate.Inf, 0),
		limit:  rate.Inf,
		stats:  &stats{},
	}
}

// FromConfig returns a Limiter for the configured rate, or nil when
// RateLimitRequests is zero.
func FromConfig(config *core.Config) *Limiter {
	if config.RateLimitRequests <= 0 {
		return nil
	}
	return New(config.RateLimitRequests, config.RateLimitPeriod)
}

func limitFor(requests int, period time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / period.Seconds())
}

// Wait blocks until both the global limit and the operation's bucket allow a
// call, or the context ends.
func (l *Limiter) Wait(ctx context.Context, op core.Operation) error {
	if l == nil {
		return nil
	}
	l.stats.total.Add(1)

	if err := l.global.Wait(ctx); err != nil {
		l.stats.denied.Add(1)
		return fmt.Errorf("rate limit %s: %w", op, err)
	}
	if err := l.bucket(op).Wait(ctx); err != nil {
		l.stats.denied.Add(1)
		return fmt.Errorf("rate limit %s: %w", op, err)
	}

	l.stats.allowed.Add(1)
	return nil
}

// Allow reports whether a call for op may proceed immediately. It never
// blocks; a nil Limiter allows everything.
func (l *Limiter) Allow(op core.Operation) bool {
	if l == nil {
		return true
	}
	l.stats.total.Add(1)

	// Check the bucket first so a denied call does not burn a global token.
	allowed := l.bucket(op).Allow() && l.global.Allow()
	if allowed {
		l.stats.allowed.Add(1)
	} else {
		l.stats.denied.Add(1)
	}
	return allowed
}

func (l *Limiter) bucket(op core.Operation) *rate.Limiter {
	if v, ok := l.buckets.Load(op); ok {
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	actual, loaded := l.buckets.LoadOrStore(op, limiter)
	if !loaded {
		l.stats.buckets.Add(1)
	}
	return actual.(*rate.Limiter)
}

// SetOperationLimit overrides the bucket limit for a single operation.
func (l *Limiter) SetOperationLimit(op core.Operation, requests int, period time.Duration) {
	b := l.bucket(op)
	b.SetLimit(limitFor(requests, period))
	b.SetBurst(requests)
}

// Stats returns a snapshot of the limiter counters.
func (l *Limiter) Stats() Snapshot {
	if l == nil {
		return Snapshot{}
	}
	return Snapshot{
		Total:   l.stats.total.Load(),
		Allowed: l.stats.allowed.Load(),
		Denied:  l.stats.denied.Load(),
		Buckets: l.stats.buckets.Load(),
	}
}

// Snapshot is a point-in-time capture of limiter counters.
type Snapshot struct {
	Total   int64
	Allowed int64
	Denied  int64
	// Buckets is the number of operations seen so far.
	Buckets int32
}
