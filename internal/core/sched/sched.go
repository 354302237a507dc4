// Package sched runs callbacks on simulation time. Time only moves when the
// tick loop calls Advance, so every timer, poll and timeout follows the
// variable wall-clock step the loop measured, and tests can drive it with
// fixed steps.
package sched

import (
	"container/heap"
	"time"
)

// minPeriod keeps a zero or negative period from spinning Advance forever.
const minPeriod = time.Millisecond

// Timer is a pending callback. A periodic timer reschedules itself until
// stopped.
type Timer struct {
	s       *Scheduler
	due     time.Duration
	period  time.Duration
	seq     uint64
	fn      func()
	index   int
	stopped bool
}

// Stop cancels the timer. It reports whether the timer was still pending.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped {
		return false
	}
	t.stopped = true
	if t.index >= 0 {
		heap.Remove(&t.s.queue, t.index)
	}
	return true
}

// Scheduler is owned by the tick goroutine; it has no internal locking.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	queue timerHeap
}

func New() *Scheduler {
	return &Scheduler{}
}

// Now returns elapsed simulation time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Len returns the number of pending timers.
func (s *Scheduler) Len() int { return len(s.queue) }

// After runs fn once, d after the current simulation time.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	return s.push(s.now+d, 0, fn)
}

// Every runs fn each period, first after one period.
func (s *Scheduler) Every(period time.Duration, fn func()) *Timer {
	if period < minPeriod {
		period = minPeriod
	}
	return s.push(s.now+period, period, fn)
}

func (s *Scheduler) push(due, period time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{s: s, due: due, period: period, seq: s.seq, fn: fn, index: -1}
	heap.Push(&s.queue, t)
	return t
}

// Advance moves simulation time forward by dt and fires every timer that
// falls due, in due-time order (ties in scheduling order). While a callback
// runs, Now reports its due time, so timers it schedules are relative to
// that instant. Returns the number of callbacks fired.
func (s *Scheduler) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	fired := 0
	for len(s.queue) > 0 {
		next := s.queue[0]
		if next.due > target {
			break
		}
		heap.Pop(&s.queue)
		s.now = next.due
		if next.period > 0 {
			next.due += next.period
			heap.Push(&s.queue, next)
		} else {
			next.stopped = true
		}
		next.fn()
		fired++
	}
	s.now = target
	return fired
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
