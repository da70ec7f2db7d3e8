package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         20 * time.Millisecond,
	}
}

func fail() error { return errors.New("downstream error") }
func ok() error   { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, fail); err == nil {
			t.Fatal("Execute() = nil, want downstream error")
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	var openErr *ErrOpen
	err := cb.Execute(ctx, ok)
	if !errors.As(err, &openErr) {
		t.Errorf("Execute() error = %v, want *ErrOpen", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(testConfig())
	ctx := context.Background()

	cb.Execute(ctx, fail)
	cb.Execute(ctx, fail)
	cb.Execute(ctx, ok)
	cb.Execute(ctx, fail)
	cb.Execute(ctx, fail)

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed (failures not consecutive)", cb.State())
	}
}

func TestHalfOpenAfterCooldownThenCloses(t *testing.T) {
	cb := New(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, fail)
	}
	time.Sleep(25 * time.Millisecond)

	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open after cooldown", cb.State())
	}

	cb.Execute(ctx, ok)
	cb.Execute(ctx, ok)

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed after successes", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, fail)
	}
	time.Sleep(25 * time.Millisecond)

	cb.Execute(ctx, fail)

	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open after half-open failure", cb.State())
	}
}

func TestOnStateChange(t *testing.T) {
	cb := New(testConfig())
	ctx := context.Background()

	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		cb.Execute(ctx, fail)
	}

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v, want [closed->open]", transitions)
	}
}
