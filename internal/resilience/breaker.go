// Package resilience keeps the speech backends usable when one of them
// misbehaves. A [Breaker] stops hammering a backend that fails repeatedly,
// and a [FallbackGroup] routes around it to a standby until it recovers.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking the call when a [Breaker] is
// open and its cooldown has not elapsed yet.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call until the cooldown elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through to decide
	// whether the backend recovered.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig tunes a [Breaker]. Zero values fall back to defaults.
type BreakerConfig struct {
	// Name labels the breaker in log output, typically the backend name.
	Name string

	// FailureThreshold is how many consecutive failures open the breaker.
	// Default 5.
	FailureThreshold int

	// Cooldown is how long an open breaker rejects calls before probing
	// again. Default 30s.
	Cooldown time.Duration

	// ProbeBudget is how many half-open probes may run; that many
	// consecutive probe successes close the breaker again. Default 3.
	ProbeBudget int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.ProbeBudget <= 0 {
		c.ProbeBudget = 3
	}
	return c
}

// Breaker is a consecutive-failure circuit breaker. It opens after
// FailureThreshold failures in a row, rejects calls for Cooldown, then
// admits ProbeBudget probes and closes once all of them succeed. A single
// failed probe re-opens it immediately.
type Breaker struct {
	cfg BreakerConfig

	mu         sync.Mutex
	state      State
	failures   int       // consecutive failures while closed
	openedAt   time.Time // last transition to open
	probesUsed int
	probesOK   int
}

// NewBreaker creates a closed [Breaker].
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults()}
}

// Execute runs fn if the breaker admits the call and feeds the outcome back
// into the breaker. When the call is rejected, fn is never invoked and
// [ErrCircuitOpen] is returned.
func (b *Breaker) Execute(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}
	err = fn()
	b.settle(probe, err)
	return err
}

// admit decides whether a call may proceed, reporting whether it counts as a
// half-open probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.openedAt) < b.cfg.Cooldown {
			return false, ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probesUsed = 0
		b.probesOK = 0
		slog.Info("circuit breaker probing backend", "name", b.cfg.Name)
	}

	if b.state == StateHalfOpen {
		if b.probesUsed >= b.cfg.ProbeBudget {
			return false, ErrCircuitOpen
		}
		b.probesUsed++
		return true, nil
	}
	return false, nil
}

// settle records the outcome of an admitted call.
func (b *Breaker) settle(probe bool, callErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case callErr != nil && probe:
		// One bad probe is enough evidence the backend is still down.
		b.state = StateOpen
		b.openedAt = time.Now()
		b.failures = b.cfg.FailureThreshold
		slog.Warn("circuit breaker re-opened", "name", b.cfg.Name)

	case callErr != nil:
		b.failures++
		b.openedAt = time.Now()
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			slog.Warn("circuit breaker opened",
				"name", b.cfg.Name,
				"consecutive_failures", b.failures)
		}

	case probe:
		b.probesOK++
		if b.probesOK >= b.cfg.ProbeBudget {
			b.state = StateClosed
			b.failures = 0
			slog.Info("circuit breaker closed, backend recovered", "name", b.cfg.Name)
		}

	default:
		b.failures = 0
	}
}

// State reports the breaker's mode. An open breaker whose cooldown elapsed
// reports half-open; the actual transition happens on the next Execute.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probesUsed = 0
	b.probesOK = 0
}
