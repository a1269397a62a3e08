package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestFallbackGroup_PrimaryWins(t *testing.T) {
	g := NewFallbackGroup("primary", "primary", FallbackConfig{})
	g.AddFallback("standby", "standby")

	got, err := ExecuteWithResult(g, func(b string) (string, error) {
		return b, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if got != "primary" {
		t.Errorf("served by %q, want primary", got)
	}
}

func TestFallbackGroup_FailsOverInOrder(t *testing.T) {
	g := NewFallbackGroup("a", "a", FallbackConfig{})
	g.AddFallback("b", "b")
	g.AddFallback("c", "c")

	var tried []string
	got, err := ExecuteWithResult(g, func(b string) (string, error) {
		tried = append(tried, b)
		if b != "c" {
			return "", errBackend
		}
		return b, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if got != "c" {
		t.Errorf("served by %q, want c", got)
	}
	if len(tried) != 3 || tried[0] != "a" || tried[1] != "b" || tried[2] != "c" {
		t.Errorf("tried = %v, want [a b c]", tried)
	}
}

func TestFallbackGroup_AllFailed(t *testing.T) {
	g := NewFallbackGroup(1, "one", FallbackConfig{})
	g.AddFallback("two", 2)

	err := g.Execute(func(int) error { return errBackend })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("Execute() error = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	g := NewFallbackGroup("flaky", "flaky", FallbackConfig{
		Breaker: BreakerConfig{FailureThreshold: 1, Cooldown: time.Hour},
	})
	g.AddFallback("steady", "steady")

	calls := map[string]int{}
	serve := func(b string) (string, error) {
		calls[b]++
		if b == "flaky" {
			return "", errBackend
		}
		return b, nil
	}

	for range 3 {
		got, err := ExecuteWithResult(g, serve)
		if err != nil {
			t.Fatalf("ExecuteWithResult() error = %v", err)
		}
		if got != "steady" {
			t.Errorf("served by %q, want steady", got)
		}
	}

	// The first round trips flaky's breaker; later rounds skip it entirely.
	if calls["flaky"] != 1 {
		t.Errorf("flaky calls = %d, want 1", calls["flaky"])
	}
	if calls["steady"] != 3 {
		t.Errorf("steady calls = %d, want 3", calls["steady"])
	}
}
