package printer

import (
	"sync/atomic"
	"time"
)

const (
	timerScheduled int32 = iota
	timerCancelled
	timerFired
)

// idleTimer is the pending-disconnect handle of a session. It moves from
// scheduled to either cancelled or fired exactly once; whichever transition
// wins decides whether the teardown runs.
type idleTimer struct {
	state atomic.Int32
	t     *time.Timer
}

func newIdleTimer(d time.Duration, fire func(*idleTimer)) *idleTimer {
	it := &idleTimer{}
	it.t = time.AfterFunc(d, func() { fire(it) })
	return it
}

// cancel stops a scheduled timer. It reports false when the timer already
// fired or was cancelled, and is safe to call any number of times.
func (it *idleTimer) cancel() bool {
	if it == nil || !it.state.CompareAndSwap(timerScheduled, timerCancelled) {
		return false
	}
	it.t.Stop()
	return true
}

// markFired claims the timer for teardown. Only the first caller between
// cancel and markFired succeeds.
func (it *idleTimer) markFired() bool {
	return it.state.CompareAndSwap(timerScheduled, timerFired)
}
