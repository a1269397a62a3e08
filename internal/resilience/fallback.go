package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every backend in a [FallbackGroup] either
// failed or had an open breaker. The last underlying error is attached.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures the breaker created for each backend in a
// [FallbackGroup]. The Name field is overridden per backend.
type FallbackConfig struct {
	Breaker BreakerConfig
}

type member[T any] struct {
	name    string
	backend T
	breaker *Breaker
}

// FallbackGroup holds an ordered list of interchangeable backends, each
// behind its own [Breaker]. Calls go to the first backend whose breaker
// admits them; failures move on to the next.
//
// FallbackGroup is safe for concurrent use once assembled. Register all
// backends before the first call.
type FallbackGroup[T any] struct {
	members []member[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a group with primary as the preferred backend.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	g := &FallbackGroup[T]{cfg: cfg}
	g.AddFallback(primaryName, primary)
	return g
}

// AddFallback appends a standby backend. Standbys are tried in registration
// order after the primary.
func (g *FallbackGroup[T]) AddFallback(name string, backend T) {
	bc := g.cfg.Breaker
	bc.Name = name
	g.members = append(g.members, member[T]{
		name:    name,
		backend: backend,
		breaker: NewBreaker(bc),
	})
}

// Execute runs fn against backends in order until one succeeds. Backends
// with an open breaker are skipped without being called.
func (g *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(g, func(backend T) (struct{}, error) {
		return struct{}{}, fn(backend)
	})
	return err
}

// ExecuteWithResult is [FallbackGroup.Execute] for calls that produce a
// value. It is a free function because methods cannot introduce the result
// type parameter.
func ExecuteWithResult[T, R any](g *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range g.members {
		m := &g.members[i]
		var out R
		err := m.breaker.Execute(func() error {
			var callErr error
			out, callErr = fn(m.backend)
			return callErr
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("backend skipped, circuit open", "backend", m.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", m.name, "err", err)
		}
	}
	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
