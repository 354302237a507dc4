package layer

import (
	"math/bits"
	"testing"

	"github.com/apemallet/balls/internal/physics"
	"github.com/stretchr/testify/assert"
)

func TestOneCategoryBitPerTag(t *testing.T) {
	seen := uint32(0)
	for _, tag := range All {
		c := tag.Category()
		assert.Equal(t, 1, bits.OnesCount32(c), tag.String())
		assert.Zero(t, seen&c, "%s shares a category bit", tag)
		seen |= c
	}
}

func TestCollisionMatrix(t *testing.T) {
	tests := []struct {
		a, b Tag
		want bool
	}{
		{Ball, Ball, true},
		{Ball, Wall, true},
		{Wall, Wall, true},
		{Ball, GhostWall, false},
		{GhostBall, Ball, false},
		{GhostBall, Wall, false},
		{GhostBall, GhostWall, true},
		{GhostBall, GhostBall, false},
		{GhostWall, Wall, false},
		{Empty, Ball, false},
		{Empty, Wall, false},
		{Empty, GhostWall, false},
		{Empty, Empty, false},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"/"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Collides(tt.a, tt.b))
			assert.Equal(t, tt.want, Collides(tt.b, tt.a), "rule is symmetric")
		})
	}
}

func TestFromFilter(t *testing.T) {
	for _, tag := range All {
		got, ok := FromFilter(tag.Filter())
		assert.True(t, ok)
		assert.Equal(t, tag, got)
	}
	_, ok := FromFilter(physics.Filter{Category: GhostBall.Category()})
	assert.False(t, ok)
}
