package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AfterFiresInOrder(t *testing.T) {
	s := New()
	var got []string
	s.After(300*time.Millisecond, func() { got = append(got, "c") })
	s.After(100*time.Millisecond, func() { got = append(got, "a") })
	s.After(100*time.Millisecond, func() { got = append(got, "b") })

	assert.Equal(t, 0, s.Advance(99*time.Millisecond))
	assert.Equal(t, 2, s.Advance(time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, got)

	s.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1100*time.Millisecond, s.Now())
}

func TestScheduler_ChainedTimersUseDueTime(t *testing.T) {
	s := New()
	var firedAt []time.Duration
	s.After(time.Second, func() {
		firedAt = append(firedAt, s.Now())
		s.After(time.Second, func() { firedAt = append(firedAt, s.Now()) })
	})

	// One large step covers both links of the chain.
	s.Advance(5 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, firedAt)
}

func TestScheduler_EveryAndStop(t *testing.T) {
	s := New()
	n := 0
	tm := s.Every(100*time.Millisecond, func() { n++ })

	s.Advance(350 * time.Millisecond)
	assert.Equal(t, 3, n)

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	s.Advance(time.Second)
	assert.Equal(t, 3, n)
}

func TestScheduler_StopFromInsideCallback(t *testing.T) {
	s := New()
	n := 0
	var tm *Timer
	tm = s.Every(10*time.Millisecond, func() {
		n++
		if n == 2 {
			tm.Stop()
		}
	})
	s.Advance(time.Second)
	assert.Equal(t, 2, n)
}

func TestWaitUntil(t *testing.T) {
	tests := []struct {
		name      string
		condAfter time.Duration
		cancelAt  time.Duration
		want      WaitResult
		wantAt    time.Duration
	}{
		{name: "satisfied", condAfter: 250 * time.Millisecond, want: WaitSatisfied, wantAt: 300 * time.Millisecond},
		{name: "timed out", condAfter: time.Hour, want: WaitTimedOut, wantAt: 5 * time.Second},
		{name: "cancelled", condAfter: time.Hour, cancelAt: 1050 * time.Millisecond, want: WaitCancelled, wantAt: 1100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tok := NewToken()
			if tt.cancelAt > 0 {
				s.After(tt.cancelAt, tok.Cancel)
			}
			var results []WaitResult
			var at time.Duration
			s.WaitUntil(func() bool { return s.Now() >= tt.condAfter },
				100*time.Millisecond, 5*time.Second, tok,
				func(r WaitResult) {
					results = append(results, r)
					at = s.Now()
				})

			for i := 0; i < 1000; i++ {
				s.Advance(10 * time.Millisecond)
			}
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0])
			assert.Equal(t, tt.wantAt, at)
			assert.Equal(t, 0, s.Len())
		})
	}
}
