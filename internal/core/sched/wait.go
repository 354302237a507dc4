package sched

import (
	"sync/atomic"
	"time"
)

// WaitResult is the terminal state of a WaitUntil.
type WaitResult int

const (
	WaitSatisfied WaitResult = iota
	WaitTimedOut
	WaitCancelled
)

func (r WaitResult) String() string {
	switch r {
	case WaitSatisfied:
		return "satisfied"
	case WaitTimedOut:
		return "timed-out"
	case WaitCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Token cancels a pending wait. The zero value is ready to use.
type Token struct {
	cancelled atomic.Bool
}

func NewToken() *Token { return &Token{} }

func (t *Token) Cancel() { t.cancelled.Store(true) }

func (t *Token) Cancelled() bool { return t != nil && t.cancelled.Load() }

// WaitUntil polls cond every poll interval and calls done exactly once with
// the outcome: satisfied when cond holds, timed out once timeout has elapsed
// without it holding, cancelled when tok is cancelled. Cancellation and the
// condition are checked before the timeout on each poll.
func (s *Scheduler) WaitUntil(cond func() bool, poll, timeout time.Duration, tok *Token, done func(WaitResult)) *Timer {
	start := s.now
	var t *Timer
	t = s.Every(poll, func() {
		var res WaitResult
		switch {
		case tok.Cancelled():
			res = WaitCancelled
		case cond():
			res = WaitSatisfied
		case s.now-start >= timeout:
			res = WaitTimedOut
		default:
			return
		}
		t.Stop()
		done(res)
	})
	return t
}
