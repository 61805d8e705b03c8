// Package view derives display state from store snapshots. The store always
// holds the final value; only the rendered number lags while an animation is
// in flight.
package view

import (
	"context"
	"sync"
	"time"

	"auction_go/internal/domain"

	"github.com/shopspring/decimal"
)

// AnimState is the phase of one observer's value animation.
type AnimState int

const (
	StateIdle AnimState = iota
	StateAnimating
	StateSettled
)

func (s AnimState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnimating:
		return "animating"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// DefaultAnimationDuration is how long a displayed bid takes to converge on
// a new value.
const DefaultAnimationDuration = 800 * time.Millisecond

// easeOutCubic maps linear progress t in [0,1] onto 1-(1-t)^3.
func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// Animator interpolates one observer's displayed bid value toward a target.
// Its state is private to the observer; two animators over the same listing
// each start from their own last-displayed value yet converge to the
// identical final value.
//
// Animator is a pull-based state machine: a scheduler calls Step at whatever
// rendering cadence it likes, and the clock is injected, so the curve is
// fully testable without timers.
type Animator struct {
	mu        sync.Mutex
	clock     domain.Clock
	duration  time.Duration
	state     AnimState
	from      decimal.Decimal
	target    decimal.Decimal
	displayed decimal.Decimal
	startedAt time.Time
}

// NewAnimator creates an animator showing the initial value.
func NewAnimator(clock domain.Clock, duration time.Duration, initial decimal.Decimal) *Animator {
	if clock == nil {
		clock = domain.SystemClock
	}
	if duration <= 0 {
		duration = DefaultAnimationDuration
	}
	return &Animator{
		clock:     clock,
		duration:  duration,
		state:     StateIdle,
		from:      initial,
		target:    initial,
		displayed: initial,
	}
}

// SetTarget starts animating from the currently displayed value toward v.
// Retargeting mid-flight restarts the curve from wherever the display is now.
// An equal target leaves the animator alone.
func (a *Animator) SetTarget(v decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if v.Equal(a.target) {
		return
	}
	a.from = a.displayed
	a.target = v
	a.startedAt = a.clock.Now()
	a.state = StateAnimating
}

// Step advances the animation to the clock's current instant and returns the
// value to display. At or past the full duration the displayed value is
// exactly the target.
func (a *Animator) Step() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateAnimating {
		return a.displayed
	}

	elapsed := a.clock.Now().Sub(a.startedAt)
	if elapsed >= a.duration {
		a.displayed = a.target
		a.state = StateSettled
		return a.displayed
	}

	t := float64(elapsed) / float64(a.duration)
	eased := decimal.NewFromFloat(easeOutCubic(t))
	a.displayed = a.from.Add(a.target.Sub(a.from).Mul(eased))
	return a.displayed
}

// Displayed returns the current display value without advancing.
func (a *Animator) Displayed() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayed
}

// State returns the animation phase.
func (a *Animator) State() AnimState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Observer couples an animator to a listing subscription and a frame loop.
// One observer backs one simultaneous view of a listing (a summary card or
// the detail dialog).
type Observer struct {
	anim    *Animator
	cadence time.Duration
	onFrame func(decimal.Decimal)
}

// NewObserver creates an observer rendering frames through onFrame at the
// given cadence.
func NewObserver(clock domain.Clock, duration, cadence time.Duration, initial decimal.Decimal, onFrame func(decimal.Decimal)) *Observer {
	if cadence <= 0 {
		cadence = 16 * time.Millisecond
	}
	return &Observer{
		anim:    NewAnimator(clock, duration, initial),
		cadence: cadence,
		onFrame: onFrame,
	}
}

// Update feeds a fresh store snapshot to the observer. Wire this to
// Store.Subscribe.
func (o *Observer) Update(l domain.Listing) {
	o.anim.SetTarget(l.CurrentBid)
}

// Run drives the frame loop until ctx is done. Frames are emitted only while
// an animation is in flight plus one settling frame.
func (o *Observer) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if o.anim.State() != StateAnimating {
				continue
			}
			v := o.anim.Step()
			if o.onFrame != nil {
				o.onFrame(v)
			}
		}
	}
}

// Displayed returns the observer's current display value.
func (o *Observer) Displayed() decimal.Decimal {
	return o.anim.Displayed()
}
