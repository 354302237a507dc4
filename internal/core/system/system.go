package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain command queue
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: crank, wheel spin
	PhasePhysics                 // 3: step the rigid-body world
	PhasePostUpdate              // 4: timers, polls, sweeps, roll phases
	PhasePersist                 // 5: hand winners to the archive
	PhaseCleanup                 // 6: destroy queued entities

	phaseCount = int(PhaseCleanup) + 1
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePhysics:
		return "physics"
	case PhasePostUpdate:
		return "post-update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every simulation system implements.
// dt is the wall-clock time elapsed since the previous tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
