package lifecycle

import (
	"math/rand"
	"sync"
	"time"
)

const (
	progressFloor = 15
	progressCap   = 90
)

// Animator produces the cosmetic progress estimate for the active poll
// session. The upstream API only reports a coarse status code, so while a job
// runs the estimate creeps from a floor toward a cap in pseudo-random steps;
// a terminal state snaps it to 100. It never claims real precision.
type Animator struct {
	mu       sync.Mutex
	interval time.Duration
	estimate float64
	timer    *repeater
	rand     func() float64
	onChange func(float64)
}

// NewAnimator builds an animator stepping every interval. onChange, when set,
// observes every estimate change.
func NewAnimator(interval time.Duration, onChange func(float64)) *Animator {
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	return &Animator{
		interval: interval,
		rand:     rand.Float64,
		onChange: onChange,
	}
}

// EnterRunning raises the estimate to the floor and starts the increment
// timer. Calling it again while the timer lives is a no-op, so there is never
// a second timer.
func (a *Animator) EnterRunning() {
	a.mu.Lock()
	changed := false
	if a.estimate < progressFloor {
		a.estimate = progressFloor
		changed = true
	}
	if a.timer == nil {
		a.timer = startRepeater(a.interval, a.step)
	}
	value := a.estimate
	a.mu.Unlock()
	if changed {
		a.emit(value)
	}
}

func (a *Animator) step() {
	a.mu.Lock()
	if a.timer == nil || a.estimate >= progressCap {
		a.mu.Unlock()
		return
	}
	a.estimate += 1 + a.rand()*4
	if a.estimate > progressCap {
		a.estimate = progressCap
	}
	value := a.estimate
	a.mu.Unlock()
	a.emit(value)
}

// Finish stops the timer and snaps the estimate to 100.
func (a *Animator) Finish() {
	a.stopAndSet(100)
}

// Reset stops the timer and drops the estimate back to zero.
func (a *Animator) Reset() {
	a.stopAndSet(0)
}

// Halt stops the timer but keeps the current estimate. Used when a session
// runs out of its tick budget without a conclusive status.
func (a *Animator) Halt() {
	a.mu.Lock()
	timer := a.timer
	a.timer = nil
	a.mu.Unlock()
	timer.Stop()
}

// Estimate returns the current value in [0,100].
func (a *Animator) Estimate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.estimate
}

func (a *Animator) stopAndSet(value float64) {
	a.mu.Lock()
	timer := a.timer
	a.timer = nil
	a.estimate = value
	a.mu.Unlock()
	timer.Stop()
	a.emit(value)
}

func (a *Animator) emit(value float64) {
	if a.onChange != nil {
		a.onChange(value)
	}
}
