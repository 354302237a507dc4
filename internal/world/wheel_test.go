package world

import (
	"math"
	"testing"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/physics/physicstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWheel(t *testing.T) (*Wheel, *physicstest.Body, config.WheelConfig) {
	t.Helper()
	engine := physicstest.New()
	cfg := config.Default().Wheel
	w, err := NewWheel(engine, cfg, testArea.Center, 1, testPalettes[0])
	require.NoError(t, err)
	body := engine.Find("wheel")
	require.NotNil(t, body)
	return w, body, cfg
}

func TestNewWheel_StaticRingOnWallLayer(t *testing.T) {
	w, body, cfg := newTestWheel(t)
	assert.True(t, body.Spec.Static)
	assert.Equal(t, layer.Wall.Filter(), body.Filter())
	assert.Equal(t, testArea.Center, body.Position())
	assert.Equal(t, w.Ring().Segments+w.Ring().Ticks, len(body.Spec.Parts))
	assert.Equal(t, cfg.Radius, w.Radius())
	assert.Equal(t, cfg.IdleSpin, w.Spin())
}

func TestWheelUpdate_EasesTowardTarget(t *testing.T) {
	w, body, cfg := newTestWheel(t)
	dt := 16 * time.Millisecond

	prev := w.Spin()
	for i := 0; i < 60; i++ {
		w.Update(dt, 1)
		assert.Greater(t, w.Spin(), prev, "spin rises monotonically toward the target")
		assert.Less(t, w.Spin(), 1.0)
		prev = w.Spin()
	}
	assert.InDelta(t, w.Spin()*cfg.SpinScale, body.AngularVelocity(), 1e-12)
	assert.Greater(t, body.Angle(), 0.0)
}

func TestWheelUpdate_RotationMatchesAngularVelocity(t *testing.T) {
	w, body, cfg := newTestWheel(t)
	before := body.Angle()
	w.Update(100*time.Millisecond, cfg.IdleSpin)
	assert.InDelta(t, cfg.IdleSpin*cfg.SpinScale*0.1, body.Angle()-before, 1e-12)
}

func TestWheelUpdate_LongTickClampsAtTarget(t *testing.T) {
	w, _, _ := newTestWheel(t)
	w.Update(10*time.Second, -0.5)
	assert.Equal(t, -0.5, w.Spin(), "no overshoot past the target")
}

func TestLerp(t *testing.T) {
	cases := []struct {
		a, b, t, want float64
	}{
		{0.2, -0.5, 1, -0.5},
		{0.2, -0.5, 3, -0.5},
		{0.2, 0.6, 0, 0.2},
		{0, 1, 0.25, 0.25},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, lerp(c.a, c.b, c.t))
	}
}

func TestWheelUpdate_ZeroDeltaIsNoOp(t *testing.T) {
	w, body, _ := newTestWheel(t)
	w.Update(0, 1)
	assert.Equal(t, 0.0, body.Angle())
	assert.Equal(t, config.Default().Wheel.IdleSpin, w.Spin())
}

func TestWheelReTheme(t *testing.T) {
	w, body, _ := newTestWheel(t)
	w.Update(time.Second, 1)
	angle, spin := body.Angle(), w.Spin()

	w.ReTheme(testPalettes[1])
	assert.Equal(t, testPalettes[1].MainForeground, w.Color())
	w.ReTheme(testPalettes[1])
	assert.Equal(t, testPalettes[1].MainForeground, w.Color())
	assert.Equal(t, angle, body.Angle())
	assert.Equal(t, spin, w.Spin())
}

func TestTray_FourGhostWallsWithDropGap(t *testing.T) {
	engine := physicstest.New()
	gap := 150.0
	tray, err := NewTray(engine, testArea, gap)
	require.NoError(t, err)

	body := engine.Find("tray")
	require.NotNil(t, body)
	assert.True(t, body.Spec.Static)
	assert.Equal(t, layer.GhostWall.Filter(), body.Filter())
	require.Len(t, tray.Parts(), 4)

	// The floor halves stop short of the centre by half the gap.
	for _, p := range tray.Parts()[2:] {
		inner := math.Inf(1)
		for _, v := range p.Outline() {
			inner = math.Min(inner, math.Abs(v.X))
		}
		assert.InDelta(t, gap/2, inner, trayThickness)
		assert.Greater(t, p.Offset.Y, testArea.Radius, "floor sits below the wheel")
	}
	// Side walls clear the ring.
	for _, p := range tray.Parts()[:2] {
		assert.Greater(t, math.Abs(p.Offset.X)-p.Width/2, testArea.Radius)
	}
}

func TestTray_CreateError(t *testing.T) {
	engine := physicstest.New()
	engine.CreateErr = physics.ErrInvalidBody
	_, err := NewTray(engine, testArea, 100)
	assert.ErrorIs(t, err, physics.ErrInvalidBody)
}
