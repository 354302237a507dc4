// Package physicstest provides an in-memory physics.Engine for tests. It has
// no contact solver: bodies only move when a test places them or, when
// Gravity is set, by plain Euler integration of dynamic bodies.
package physicstest

import (
	"time"

	"github.com/apemallet/balls/internal/physics"
)

// Force is one ApplyForce call recorded by a Body.
type Force struct {
	At    physics.Vec
	Force physics.Vec
}

type Body struct {
	Spec    physics.BodySpec
	pos     physics.Vec
	vel     physics.Vec
	angle   float64
	w       float64
	filter  physics.Filter
	pending []Force
	// Forces holds every force applied since creation.
	Forces  []Force
	Removed bool
}

func (b *Body) Position() physics.Vec        { return b.pos }
func (b *Body) Angle() float64               { return b.angle }
func (b *Body) AngularVelocity() float64     { return b.w }
func (b *Body) Velocity() physics.Vec        { return b.vel }
func (b *Body) SetPosition(p physics.Vec)    { b.pos = p }
func (b *Body) Rotate(delta float64)         { b.angle += delta }
func (b *Body) SetAngularVelocity(w float64) { b.w = w }
func (b *Body) SetVelocity(v physics.Vec)    { b.vel = v }
func (b *Body) SetAngle(a float64)           { b.angle = a }
func (b *Body) Filter() physics.Filter       { return b.filter }
func (b *Body) SetFilter(f physics.Filter)   { b.filter = f }

func (b *Body) ApplyForce(at, force physics.Vec) {
	f := Force{At: at, Force: force}
	b.pending = append(b.pending, f)
	b.Forces = append(b.Forces, f)
}

func (b *Body) LocalToWorld(local physics.Vec) physics.Vec {
	return b.pos.Add(local.Rotate(b.angle))
}

// Pin records a Pin call.
type Pin struct {
	Body, Anchor *Body
	Local        physics.Vec
	AnchorLocal  physics.Vec
}

type Engine struct {
	Gravity physics.Vec
	// CreateErr, when set, is returned by CreateBody. FailLabel narrows it
	// to bodies carrying that label.
	CreateErr error
	FailLabel string
	Steps     int
	Elapsed   time.Duration
	Pins      []Pin

	bodies []*Body
}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) CreateBody(spec physics.BodySpec) (physics.Body, error) {
	if e.CreateErr != nil && (e.FailLabel == "" || e.FailLabel == spec.Label) {
		return nil, e.CreateErr
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	b := &Body{Spec: spec, pos: spec.Position, angle: spec.Angle, filter: spec.Filter}
	e.bodies = append(e.bodies, b)
	return b, nil
}

func (e *Engine) Remove(pb physics.Body) {
	b, ok := pb.(*Body)
	if !ok {
		return
	}
	for i, o := range e.bodies {
		if o == b {
			e.bodies = append(e.bodies[:i], e.bodies[i+1:]...)
			b.Removed = true
			return
		}
	}
}

func (e *Engine) Pin(body physics.Body, local physics.Vec, anchor physics.Body, anchorLocal physics.Vec) error {
	b, _ := body.(*Body)
	a, _ := anchor.(*Body)
	e.Pins = append(e.Pins, Pin{Body: b, Anchor: a, Local: local, AnchorLocal: anchorLocal})
	return nil
}

func (e *Engine) Step(dt time.Duration) {
	e.Steps++
	e.Elapsed += dt
	sec := dt.Seconds()
	for _, b := range e.bodies {
		b.pending = b.pending[:0]
		if b.Spec.Static {
			continue
		}
		if !b.Spec.Floating {
			b.vel = b.vel.Add(e.Gravity.Scale(sec))
		}
		b.pos = b.pos.Add(b.vel.Scale(sec))
	}
}

// Bodies returns the live bodies in creation order.
func (e *Engine) Bodies() []*Body {
	out := make([]*Body, len(e.bodies))
	copy(out, e.bodies)
	return out
}

// Find returns the first live body whose spec carries label.
func (e *Engine) Find(label string) *Body {
	for _, b := range e.bodies {
		if b.Spec.Label == label {
			return b
		}
	}
	return nil
}
