package system

import (
	"time"

	"github.com/apemallet/balls/internal/core/sched"
	coresys "github.com/apemallet/balls/internal/core/system"
)

// TimerSystem advances simulation time: catch polls, cull sweeps, refills,
// roll phases and the bust reset all fire from here, after the physics step
// has moved the balls. Phase 4 (PostUpdate).
type TimerSystem struct {
	sched *sched.Scheduler
}

func NewTimerSystem(s *sched.Scheduler) *TimerSystem {
	return &TimerSystem{sched: s}
}

func (s *TimerSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *TimerSystem) Update(dt time.Duration) { s.sched.Advance(dt) }
