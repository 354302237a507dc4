// Package layer is the collision layer registry: five tags that decide which
// body classes touch. Retagging a body is how a ball passes through solid
// geometry without the solver ever seeing an overlap it has to resolve.
package layer

import "github.com/apemallet/balls/internal/physics"

type Tag uint8

const (
	Ball      Tag = iota // active balls: balls + walls
	Wall                 // wheel ring: balls + walls
	GhostBall            // selected / ejected balls: tray only
	GhostWall            // tray: ghost balls only
	Empty                // entering balls: nothing
)

// All lists every tag in declaration order.
var All = []Tag{Ball, Wall, GhostBall, GhostWall, Empty}

func (t Tag) Category() uint32 {
	return 1 << uint32(t)
}

func (t Tag) Mask() uint32 {
	switch t {
	case Ball, Wall:
		return Ball.Category() | Wall.Category()
	case GhostBall:
		return GhostWall.Category()
	case GhostWall:
		return GhostBall.Category()
	}
	return 0
}

func (t Tag) Filter() physics.Filter {
	return physics.Filter{Category: t.Category(), Mask: t.Mask()}
}

// Collides applies the engine rule: each side's mask must admit the other's
// category.
func Collides(a, b Tag) bool {
	return a.Mask()&b.Category() != 0 && b.Mask()&a.Category() != 0
}

// FromFilter maps a filter back to its tag.
func FromFilter(f physics.Filter) (Tag, bool) {
	for _, t := range All {
		if t.Filter() == f {
			return t, true
		}
	}
	return 0, false
}

func (t Tag) String() string {
	switch t {
	case Ball:
		return "ball"
	case Wall:
		return "wall"
	case GhostBall:
		return "ghost-ball"
	case GhostWall:
		return "ghost-wall"
	case Empty:
		return "empty"
	}
	return "unknown"
}
