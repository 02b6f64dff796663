// Package circuitbreaker stops calling a failing market-data backend until a
// cool-down has passed.
package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"signet/pkg/core"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	Name             string        `json:"name"`
	FailThreshold    int           `json:"fail_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	Timeout          time.Duration `json:"timeout"`
}

// FromConfig returns the breaker settings of a client config, or false when
// the breaker is disabled.
func FromConfig(name string, config *core.Config) (Config, bool) {
	if !config.CircuitBreakerEnabled {
		return Config{}, false
	}
	return Config{
		Name:             name,
		FailThreshold:    config.CircuitBreakerFailThreshold,
		SuccessThreshold: config.CircuitBreakerSuccessThreshold,
		Timeout:          config.CircuitBreakerTimeout,
	}, true
}

type Breaker struct {
	name             string
	state            atomic.Int32
	failures         atomic.Int32
	successes        atomic.Int32
	failThreshold    int
	successThreshold int
	timeout          time.Duration
	openedAt         atomic.Int64
	halfOpenInFlight int
	mu               sync.Mutex
	now              func() time.Time
	logger           zerolog.Logger
	stats            *stats
}

type stats struct {
	total        atomic.Int64
	rejected     atomic.Int64
	successes    atomic.Int64
	failures     atomic.Int64
	stateChanges atomic.Int32
}

type Option func(*Breaker)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Breaker) {
		b.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

func New(config Config, opts ...Option) *Breaker {
	b := &Breaker{
		name:             config.Name,
		failThreshold:    config.FailThreshold,
		successThreshold: config.SuccessThreshold,
		timeout:          config.Timeout,
		now:              time.Now,
		logger:           zerolog.Nop(),
		stats:            &stats{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.state.Store(int32(StateClosed))
	return b
}

// Allow reports whether a call may go out. Once the open timeout has elapsed
// the breaker goes half-open and admits at most SuccessThreshold trial calls
// until their results are recorded.
func (b *Breaker) Allow() bool {
	b.stats.total.Add(1)

	if State(b.state.Load()) == StateClosed {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch State(b.state.Load()) {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(time.Unix(0, b.openedAt.Load())) >= b.timeout {
			b.successes.Store(0)
			b.transitionTo(StateHalfOpen)
			b.halfOpenInFlight = 1
			return true
		}
	case StateHalfOpen:
		if b.halfOpenInFlight < b.successThreshold {
			b.halfOpenInFlight++
			return true
		}
	}
	b.stats.rejected.Add(1)
	return false
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.stats.successes.Add(1)
	} else {
		b.stats.failures.Add(1)
	}

	switch State(b.state.Load()) {
	case StateClosed:
		if success {
			b.failures.Store(0)
			return
		}
		if int(b.failures.Add(1)) >= b.failThreshold {
			b.open()
		}
	case StateHalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		if !success {
			b.open()
			return
		}
		if int(b.successes.Add(1)) >= b.successThreshold {
			b.failures.Store(0)
			b.successes.Store(0)
			b.transitionTo(StateClosed)
		}
	case StateOpen:
		// Late results from calls admitted before the breaker opened.
	}
}

func (b *Breaker) open() {
	b.openedAt.Store(b.now().UnixNano())
	b.successes.Store(0)
	b.transitionTo(StateOpen)
}

func (b *Breaker) transitionTo(newState State) {
	old := State(b.state.Swap(int32(newState)))
	if old == newState {
		return
	}
	b.halfOpenInFlight = 0
	b.stats.stateChanges.Add(1)
	b.logger.Warn().
		Str("breaker", b.name).
		Str("from", old.String()).
		Str("to", newState.String()).
		Int("failures", int(b.failures.Load())).
		Msg("circuit breaker state changed")
}

func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Reset closes the breaker and clears its consecutive counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures.Store(0)
	b.successes.Store(0)
	b.transitionTo(StateClosed)
}

// Stats returns a snapshot of the breaker counters. A nil breaker reports a
// closed state.
func (b *Breaker) Stats() Snapshot {
	if b == nil {
		return Snapshot{State: StateClosed.String()}
	}
	return Snapshot{
		Total:        b.stats.total.Load(),
		Rejected:     b.stats.rejected.Load(),
		Successes:    b.stats.successes.Load(),
		Failures:     b.stats.failures.Load(),
		StateChanges: b.stats.stateChanges.Load(),
		State:        b.State().String(),
		Consecutive:  int(b.failures.Load()),
	}
}

type Snapshot struct {
	Total        int64
	Rejected     int64
	Successes    int64
	Failures     int64
	StateChanges int32
	State        string
	// Consecutive is the current run of failures counted towards opening.
	Consecutive int
}
