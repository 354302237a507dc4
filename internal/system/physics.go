package system

import (
	"time"

	coresys "github.com/apemallet/balls/internal/core/system"
	"github.com/apemallet/balls/internal/physics"
)

// PhysicsSystem steps the rigid-body engine by the tick's wall-clock delta.
// Phase 3 (Physics).
type PhysicsSystem struct {
	engine physics.Engine
}

func NewPhysicsSystem(engine physics.Engine) *PhysicsSystem {
	return &PhysicsSystem{engine: engine}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) { s.engine.Step(dt) }
