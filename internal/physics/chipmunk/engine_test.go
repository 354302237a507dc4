package chipmunk

import (
	"math"
	"testing"
	"time"

	"github.com/apemallet/balls/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEngine_DynamicBodyFalls(t *testing.T) {
	e := New(physics.Vec{Y: 1000}, time.Second/120, zap.NewNop())
	b, err := e.CreateBody(physics.BodySpec{
		Label:    "ball",
		Parts:    []physics.Part{{Kind: physics.PartCircle, Radius: 5}},
		Position: physics.Vec{X: 0, Y: 0},
		Filter:   physics.Filter{Category: 1, Mask: 1},
		Material: physics.Material{Restitution: 0.9, FrictionAir: 0.02},
	})
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		e.Step(time.Second / 60)
	}
	assert.Greater(t, b.Position().Y, 0.0)
	assert.Equal(t, 1, e.Bodies())

	e.Remove(b)
	e.Remove(b)
	assert.Equal(t, 0, e.Bodies())
}

func TestEngine_StaticBodyRotatesOnlyWhenTold(t *testing.T) {
	e := New(physics.Vec{Y: 1000}, time.Second/120, zap.NewNop())
	b, err := e.CreateBody(physics.BodySpec{
		Label:  "wheel",
		Parts:  []physics.Part{{Kind: physics.PartRect, Offset: physics.Vec{X: 50}, Width: 10, Height: 4}},
		Static: true,
		Filter: physics.Filter{Category: 2, Mask: 3},
	})
	require.NoError(t, err)

	b.SetAngularVelocity(2)
	e.Step(time.Second / 2)
	assert.InDelta(t, 0, b.Angle(), 1e-9, "angular velocity is not integrated for static bodies")
	assert.Equal(t, physics.Vec{}, b.Position())

	b.Rotate(math.Pi / 2)
	assert.InDelta(t, math.Pi/2, b.Angle(), 1e-9)
	p := b.LocalToWorld(physics.Vec{X: 50})
	assert.InDelta(t, 0, p.X, 1e-6)
	assert.InDelta(t, 50, p.Y, 1e-6)
}

func TestEngine_RejectsInvalidSpec(t *testing.T) {
	e := New(physics.Vec{}, 0, zap.NewNop())
	_, err := e.CreateBody(physics.BodySpec{Label: "nothing"})
	assert.ErrorIs(t, err, physics.ErrInvalidBody)
}
