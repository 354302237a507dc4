package world

import (
	"math/rand"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/ecs"
	"github.com/apemallet/balls/internal/core/sched"
	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/physics"
)

// State is a ball's lifecycle position.
type State uint8

const (
	StateEmpty    State = iota // created, no body yet
	StateEntering              // falling on the empty layer toward the wheel mouth
	StateActive                // on the ball layer, counts toward capacity
	StateSelected              // roll winner, ghost layer, drifting out
	StateEjected               // reached the wheel while it was full, ghost layer
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEntering:
		return "entering"
	case StateActive:
		return "active"
	case StateSelected:
		return "selected"
	case StateEjected:
		return "ejected"
	}
	return "unknown"
}

// Ball is the population's per-ball component. Position and velocity live
// in Body and are owned by the physics engine.
type Ball struct {
	ID     ecs.EntityID
	Radius float64
	Layer  layer.Tag
	State  State
	Color  string
	Body   physics.Body
	// Stuck is set when the catch poll timed out; the ball stays Entering.
	Stuck bool

	catch *sched.Token
}

// SetLayer moves the ball to tag. The engine applies it on the next step.
func (b *Ball) SetLayer(t layer.Tag) {
	b.Layer = t
	if b.Body != nil {
		b.Body.SetFilter(t.Filter())
	}
}

// Position is the body position, or the origin before the body exists.
func (b *Ball) Position() physics.Vec {
	if b.Body == nil {
		return physics.Vec{}
	}
	return b.Body.Position()
}

// Factory creates balls. It allocates identities from the ecs world, so they
// increase strictly and are never reused.
type Factory struct {
	ecs      *ecs.World
	rng      *rand.Rand
	theme    *palette.Theme
	min, max float64
	material physics.Material
}

// NewFactory scales the configured radius range by planck.
func NewFactory(w *ecs.World, rng *rand.Rand, theme *palette.Theme, cfg config.BallsConfig, planck float64) *Factory {
	return &Factory{
		ecs:   w,
		rng:   rng,
		theme: theme,
		min:   cfg.MinRadius * planck,
		max:   cfg.MaxRadius * planck,
		material: physics.Material{
			Density:     cfg.Density,
			Restitution: cfg.Restitution,
			Friction:    cfg.Friction,
			FrictionAir: cfg.FrictionAir,
		},
	}
}

// Create returns a new bodiless ball on the ball layer.
func (f *Factory) Create() *Ball {
	id := f.ecs.CreateEntity()
	return &Ball{
		ID:     id,
		Radius: f.min + f.rng.Float64()*(f.max-f.min),
		Layer:  layer.Ball,
		State:  StateEmpty,
		Color:  f.theme.Current().BallColor(uint64(id)),
	}
}

// BodySpec describes the ball's collider at pos on its current layer.
func (f *Factory) BodySpec(b *Ball, pos physics.Vec) physics.BodySpec {
	return physics.BodySpec{
		Label:    "ball",
		Parts:    []physics.Part{{Kind: physics.PartCircle, Radius: b.Radius}},
		Position: pos,
		Filter:   b.Layer.Filter(),
		Material: f.material,
	}
}
