package view

import (
	"sync"
	"testing"
	"time"

	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAnimator_ConvergesExactly(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	a := NewAnimator(clock, 800*time.Millisecond, decimal.NewFromInt(100))

	a.SetTarget(decimal.NewFromInt(200))
	if a.State() != StateAnimating {
		t.Fatalf("Expected animating, got %s", a.State())
	}

	clock.Advance(800 * time.Millisecond)
	got := a.Step()

	if !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("At t=1 display must be exactly 200, got %v", got)
	}
	if a.State() != StateSettled {
		t.Errorf("Expected settled, got %s", a.State())
	}
}

func TestAnimator_EaseOutCurve(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	a := NewAnimator(clock, 1*time.Second, decimal.NewFromInt(0))
	a.SetTarget(decimal.NewFromInt(1000))

	// 1 - (1-t)^3 at t=0.5 is 0.875
	clock.Advance(500 * time.Millisecond)
	got := a.Step()
	want := decimal.NewFromInt(875)
	if !got.Sub(want).Abs().LessThan(decimal.NewFromInt(1)) {
		t.Errorf("At t=0.5 expected ~%v, got %v", want, got)
	}

	// Monotonically approaching the target
	prev := got
	for _, step := range []time.Duration{100, 100, 100, 100} {
		clock.Advance(step * time.Millisecond)
		v := a.Step()
		if v.LessThan(prev) {
			t.Fatalf("Display regressed from %v to %v", prev, v)
		}
		prev = v
	}
}

func TestAnimator_RetargetMidFlight(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	a := NewAnimator(clock, 1*time.Second, decimal.NewFromInt(100))

	a.SetTarget(decimal.NewFromInt(200))
	clock.Advance(500 * time.Millisecond)
	mid := a.Step()

	// A second bid lands while the first is still animating.
	a.SetTarget(decimal.NewFromInt(300))
	if a.State() != StateAnimating {
		t.Fatal("Retarget should keep animating")
	}

	clock.Advance(1 * time.Second)
	got := a.Step()
	if !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected exact convergence on 300, got %v", got)
	}
	if mid.GreaterThanOrEqual(decimal.NewFromInt(300)) {
		t.Errorf("Mid-flight value should be between old and new, got %v", mid)
	}
}

func TestAnimator_EqualTargetIsNoop(t *testing.T) {
	clock := newFakeClock(time.Now())
	a := NewAnimator(clock, time.Second, decimal.NewFromInt(100))

	a.SetTarget(decimal.NewFromInt(100))
	if a.State() != StateIdle {
		t.Errorf("Equal target should not start an animation, got %s", a.State())
	}
}

func TestObserver_IndependentConvergence(t *testing.T) {
	clock := newFakeClock(time.Now())

	// Summary view last displayed 100, detail view 150; both observe the
	// same accepted bid.
	summary := NewObserver(clock, 800*time.Millisecond, 0, decimal.NewFromInt(100), nil)
	detail := NewObserver(clock, 800*time.Millisecond, 0, decimal.NewFromInt(150), nil)

	update := domain.Listing{ID: "1", CurrentBid: decimal.NewFromInt(200)}
	summary.Update(update)
	detail.Update(update)

	clock.Advance(400 * time.Millisecond)
	a := summary.anim.Step()
	b := detail.anim.Step()
	if a.Equal(b) {
		t.Error("Observers animate independently from their own last value")
	}

	clock.Advance(400 * time.Millisecond)
	a = summary.anim.Step()
	b = detail.anim.Step()
	if !a.Equal(decimal.NewFromInt(200)) || !b.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Both observers must converge to 200, got %v and %v", a, b)
	}
}
