package system

import (
	"fmt"
	"time"
)

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	phases  [phaseCount][]System
	ticks   uint64
	elapsed time.Duration
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to its phase. It panics on a phase outside the known
// range, which is a programming error.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || int(p) >= phaseCount {
		panic(fmt.Sprintf("system: unknown phase %d", p))
	}
	r.phases[p] = append(r.phases[p], s)
}

func (r *Runner) Tick(dt time.Duration) {
	for _, systems := range r.phases {
		for _, s := range systems {
			s.Update(dt)
		}
	}
	r.ticks++
	r.elapsed += dt
}

// Ticks returns the number of completed ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Elapsed is the sum of all tick deltas.
func (r *Runner) Elapsed() time.Duration { return r.elapsed }

// Len is the number of registered systems.
func (r *Runner) Len() int {
	n := 0
	for _, systems := range r.phases {
		n += len(systems)
	}
	return n
}
