// Package chipmunk implements physics.Engine on top of the Chipmunk2D port
// github.com/jakecoffman/cp.
package chipmunk

import (
	"fmt"
	"math"
	"time"

	"github.com/apemallet/balls/internal/physics"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// Engine owns one cp.Space. Single-goroutine access only (tick loop).
type Engine struct {
	space   *cp.Space
	maxStep time.Duration
	log     *zap.Logger
	bodies  int
}

// New creates an engine. Steps longer than maxStep are split into equal
// substeps so a stalled frame cannot tunnel balls through the ring.
func New(gravity physics.Vec, maxStep time.Duration, log *zap.Logger) *Engine {
	space := cp.NewSpace()
	space.SetGravity(vec(gravity))
	if maxStep <= 0 {
		maxStep = time.Second / 60
	}
	return &Engine{space: space, maxStep: maxStep, log: log}
}

func (e *Engine) CreateBody(spec physics.BodySpec) (physics.Body, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("create %q: %w", spec.Label, err)
	}

	var cb *cp.Body
	switch {
	case spec.Static && spec.Sensor:
		cb = cp.NewStaticBody()
	case spec.Static:
		// Kinematic so contacts see the angular velocity; the no-op
		// position integrator leaves rotation to explicit Rotate calls.
		cb = cp.NewKinematicBody()
		cb.SetPositionUpdateFunc(func(*cp.Body, float64) {})
	default:
		cb = cp.NewBody(0, 0)
		air, floating := spec.Material.FrictionAir, spec.Floating
		if air > 0 || floating {
			cb.SetVelocityUpdateFunc(func(b *cp.Body, gravity cp.Vector, damping, dt float64) {
				if floating {
					gravity = cp.Vector{}
				}
				cp.BodyUpdateVelocity(b, gravity, damping*math.Pow(1-air, dt*60), dt)
			})
		}
	}
	cb.SetPosition(vec(spec.Position))
	cb.SetAngle(spec.Angle)
	e.space.AddBody(cb)

	b := &body{b: cb, filter: spec.Filter, static: spec.Static}
	for _, p := range spec.Parts {
		s := e.space.AddShape(newShape(cb, p))
		s.SetElasticity(spec.Material.Restitution)
		s.SetFriction(spec.Material.Friction)
		s.SetFilter(shapeFilter(spec.Filter))
		s.SetSensor(spec.Sensor)
		if !spec.Static {
			if p.Mass > 0 {
				s.SetMass(p.Mass)
			} else {
				s.SetDensity(density(spec.Material))
			}
		}
		b.shapes = append(b.shapes, s)
	}
	e.bodies++
	e.log.Debug("body created",
		zap.String("label", spec.Label),
		zap.Int("parts", len(spec.Parts)),
		zap.Bool("static", spec.Static))
	return b, nil
}

func (e *Engine) Remove(pb physics.Body) {
	b, ok := pb.(*body)
	if !ok || b.removed {
		return
	}
	for _, c := range b.constraints {
		e.space.RemoveConstraint(c)
	}
	for _, s := range b.shapes {
		e.space.RemoveShape(s)
	}
	e.space.RemoveBody(b.b)
	b.removed = true
	e.bodies--
}

func (e *Engine) Pin(pb physics.Body, local physics.Vec, anchor physics.Body, anchorLocal physics.Vec) error {
	b, ok := pb.(*body)
	if !ok {
		return fmt.Errorf("pin: foreign body %T", pb)
	}
	a, ok := anchor.(*body)
	if !ok {
		return fmt.Errorf("pin: foreign anchor %T", anchor)
	}
	c := e.space.AddConstraint(cp.NewPivotJoint2(b.b, a.b, vec(local), vec(anchorLocal)))
	b.constraints = append(b.constraints, c)
	return nil
}

func (e *Engine) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	n := int(math.Ceil(float64(dt) / float64(e.maxStep)))
	sub := dt.Seconds() / float64(n)
	for i := 0; i < n; i++ {
		e.space.Step(sub)
	}
}

// Bodies returns the number of bodies created and not removed.
func (e *Engine) Bodies() int { return e.bodies }

func newShape(cb *cp.Body, p physics.Part) *cp.Shape {
	if p.Kind == physics.PartCircle {
		return cp.NewCircle(cb, p.Radius, vec(p.Offset))
	}
	outline := p.Outline()
	verts := make([]cp.Vector, len(outline))
	for i, v := range outline {
		verts[i] = vec(v)
	}
	return cp.NewPolyShape(cb, len(verts), verts, cp.NewTransformIdentity(), 0)
}

func density(m physics.Material) float64 {
	if m.Density > 0 {
		return m.Density
	}
	return 0.001
}

func shapeFilter(f physics.Filter) cp.ShapeFilter {
	return cp.NewShapeFilter(cp.NO_GROUP, uint(f.Category), uint(f.Mask))
}

func vec(v physics.Vec) cp.Vector { return cp.Vector{X: v.X, Y: v.Y} }

func fromVec(v cp.Vector) physics.Vec { return physics.Vec{X: v.X, Y: v.Y} }
