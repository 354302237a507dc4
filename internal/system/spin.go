package system

import (
	"time"

	coresys "github.com/apemallet/balls/internal/core/system"
	"github.com/apemallet/balls/internal/scripting"
)

// Anger is the crank state the resting spin target depends on.
type Anger interface {
	Anger() float64
	Busting() bool
}

// Override is the roll orchestrator's spin override.
type Override interface {
	Target() (float64, bool)
}

// Spinner is the wheel.
type Spinner interface {
	Update(dt time.Duration, target float64)
}

// SpinTargeter computes the resting target; *scripting.Engine satisfies it.
type SpinTargeter interface {
	SpinTarget(ctx scripting.SpinContext) float64
}

// CrankSystem advances the crank: anger decay and handle forces. Phase 2
// (Update), registered before SpinSystem so the wheel sees this tick's anger.
type CrankSystem struct {
	crank interface{ Update(time.Duration) }
}

func NewCrankSystem(crank interface{ Update(time.Duration) }) *CrankSystem {
	return &CrankSystem{crank: crank}
}

func (s *CrankSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CrankSystem) Update(dt time.Duration) { s.crank.Update(dt) }

// SpinSystem eases the wheel toward the roll override, or toward the
// anger-driven resting target when no roll phase is active. Phase 2 (Update).
type SpinSystem struct {
	wheel    Spinner
	override Override
	anger    Anger
	targeter SpinTargeter // nil: scripting.FallbackSpin
	idle     float64
	gain     float64
	target   float64
}

func NewSpinSystem(wheel Spinner, override Override, anger Anger, targeter SpinTargeter, idle, gain float64) *SpinSystem {
	return &SpinSystem{wheel: wheel, override: override, anger: anger, targeter: targeter, idle: idle, gain: gain}
}

func (s *SpinSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpinSystem) Update(dt time.Duration) {
	target, ok := s.override.Target()
	if !ok {
		ctx := scripting.SpinContext{
			Anger:   s.anger.Anger(),
			Idle:    s.idle,
			Gain:    s.gain,
			Busting: s.anger.Busting(),
		}
		if s.targeter != nil {
			target = s.targeter.SpinTarget(ctx)
		} else {
			target = scripting.FallbackSpin(ctx)
		}
	}
	s.target = target
	s.wheel.Update(dt, target)
}

// Target is the target applied on the last tick.
func (s *SpinSystem) Target() float64 { return s.target }
