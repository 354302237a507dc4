package chipmunk

import (
	"github.com/apemallet/balls/internal/physics"
	"github.com/jakecoffman/cp"
)

type body struct {
	b           *cp.Body
	shapes      []*cp.Shape
	constraints []*cp.Constraint
	filter      physics.Filter
	static      bool
	removed     bool
}

func (b *body) Position() physics.Vec    { return fromVec(b.b.Position()) }
func (b *body) Angle() float64           { return b.b.Angle() }
func (b *body) AngularVelocity() float64 { return b.b.AngularVelocity() }
func (b *body) Velocity() physics.Vec    { return fromVec(b.b.Velocity()) }
func (b *body) Filter() physics.Filter   { return b.filter }

func (b *body) SetPosition(p physics.Vec) {
	b.b.SetPosition(vec(p))
}

func (b *body) Rotate(delta float64) {
	b.b.SetAngle(b.b.Angle() + delta)
}

func (b *body) SetAngularVelocity(w float64) {
	b.b.SetAngularVelocity(w)
}

func (b *body) ApplyForce(at, force physics.Vec) {
	if b.static {
		return
	}
	b.b.ApplyForceAtWorldPoint(vec(force), vec(at))
}

// SetFilter retags every shape; cp picks the new filter up on the next
// collision pass.
func (b *body) SetFilter(f physics.Filter) {
	b.filter = f
	sf := shapeFilter(f)
	for _, s := range b.shapes {
		s.SetFilter(sf)
	}
}

func (b *body) LocalToWorld(local physics.Vec) physics.Vec {
	return fromVec(b.b.LocalToWorld(vec(local)))
}
