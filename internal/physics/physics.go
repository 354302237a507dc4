// Package physics is the contract between the raffle core and the rigid-body
// engine that simulates it. The core only creates bodies, nudges them and
// reads their poses back; solving contacts is the engine's business.
package physics

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidBody = errors.New("invalid body spec")

// Vec is a 2D vector in world units. Y grows downward (screen space).
type Vec struct {
	X, Y float64
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return v.Sub(o).Len() }
func (v Vec) Rotate(rad float64) Vec {
	s, c := math.Sincos(rad)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Filter is a collision category/mask pair. Two bodies collide iff each
// mask contains the other's category.
type Filter struct {
	Category uint32
	Mask     uint32
}

// Material holds surface and damping properties. FrictionAir is the fraction
// of velocity lost per 1/60 s.
type Material struct {
	Density        float64
	Restitution    float64
	Friction       float64
	FrictionAir    float64
	FrictionStatic float64
}

type PartKind int

const (
	PartCircle PartKind = iota
	PartRect
	PartPolygon
)

// Part is one convex collider of a body, expressed in the body's local frame.
// Vertices of a polygon are relative to Offset and rotated by Angle.
type Part struct {
	Kind     PartKind
	Offset   Vec
	Angle    float64
	Width    float64
	Height   float64
	Radius   float64
	Vertices []Vec
	Mass     float64 // zero: derive from density
}

// Outline returns the part's corner points in the body frame. Circles
// return nil.
func (p Part) Outline() []Vec {
	var local []Vec
	switch p.Kind {
	case PartRect:
		hw, hh := p.Width/2, p.Height/2
		local = []Vec{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	case PartPolygon:
		local = p.Vertices
	default:
		return nil
	}
	out := make([]Vec, len(local))
	for i, v := range local {
		out[i] = v.Rotate(p.Angle).Add(p.Offset)
	}
	return out
}

// BodySpec describes a body to create.
type BodySpec struct {
	Label    string
	Parts    []Part
	Position Vec
	Angle    float64
	Static   bool
	Sensor   bool
	Floating bool // dynamic but ignores gravity
	Filter   Filter
	Material Material
}

func (s BodySpec) Validate() error {
	if len(s.Parts) == 0 {
		return ErrInvalidBody
	}
	for _, p := range s.Parts {
		switch p.Kind {
		case PartCircle:
			if p.Radius <= 0 {
				return ErrInvalidBody
			}
		case PartRect:
			if p.Width <= 0 || p.Height <= 0 {
				return ErrInvalidBody
			}
		case PartPolygon:
			if len(p.Vertices) < 3 {
				return ErrInvalidBody
			}
		default:
			return ErrInvalidBody
		}
	}
	return nil
}

// Body is a live body owned by an Engine.
type Body interface {
	Position() Vec
	Angle() float64
	AngularVelocity() float64
	Velocity() Vec
	SetPosition(p Vec)
	// Rotate turns the body by delta radians about its origin.
	Rotate(delta float64)
	SetAngularVelocity(w float64)
	// ApplyForce applies force at a world point until the next step.
	ApplyForce(at, force Vec)
	Filter() Filter
	SetFilter(f Filter)
	LocalToWorld(local Vec) Vec
}

// Engine simulates bodies. Static bodies are moved only through Rotate and
// SetPosition; their angular velocity is visible to contacts but never
// integrated. Implementations are driven from a single goroutine.
type Engine interface {
	CreateBody(spec BodySpec) (Body, error)
	Remove(b Body)
	// Pin joins a point of body (local coordinates) to a point of anchor.
	Pin(body Body, local Vec, anchor Body, anchorLocal Vec) error
	Step(dt time.Duration)
}
