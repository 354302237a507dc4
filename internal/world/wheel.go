package world

import (
	"fmt"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/geometry"
	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/physics"
)

// Wheel is the rotating ring. Spin is in config units; the body turns at
// spin*SpinScale rad/s.
type Wheel struct {
	body   physics.Body
	ring   geometry.Ring
	center physics.Vec

	spin   float64
	scale  float64
	easing float64
	color  string
}

func NewWheel(engine physics.Engine, cfg config.WheelConfig, center physics.Vec, planck float64, pal palette.Palette) (*Wheel, error) {
	ring := geometry.BuildRing(geometry.RingSpec{
		Radius:         cfg.Radius * planck,
		ThicknessFrac:  cfg.ThicknessFrac,
		TickLengthFrac: cfg.TickLengthFrac,
		TickCount:      cfg.TickCount,
	})
	body, err := engine.CreateBody(physics.BodySpec{
		Label:    "wheel",
		Parts:    ring.Parts,
		Position: center,
		Static:   true,
		Filter:   layer.Wall.Filter(),
		Material: physics.Material{Restitution: cfg.Restitution, Friction: cfg.Friction},
	})
	if err != nil {
		return nil, fmt.Errorf("wheel body: %w", err)
	}
	return &Wheel{
		body:   body,
		ring:   ring,
		center: center,
		spin:   cfg.IdleSpin,
		scale:  cfg.SpinScale,
		easing: cfg.SpinEasing,
		color:  pal.MainForeground,
	}, nil
}

// Update eases the spin toward target and applies it as both a rotation
// delta and an angular velocity, so the ring keeps coasting between ticks.
func (w *Wheel) Update(dt time.Duration, target float64) {
	sec := dt.Seconds()
	if sec <= 0 {
		return
	}
	w.spin = lerp(w.spin, target, min(1, w.easing*sec))
	rate := w.spin * w.scale
	w.body.Rotate(rate * sec)
	w.body.SetAngularVelocity(rate)
}

// ReTheme recolors ring and ticks. Physics is untouched.
func (w *Wheel) ReTheme(pal palette.Palette) {
	w.color = pal.MainForeground
}

// Remove takes the ring out of engine.
func (w *Wheel) Remove(engine physics.Engine) { engine.Remove(w.body) }

func (w *Wheel) Spin() float64       { return w.spin }
func (w *Wheel) Angle() float64      { return w.body.Angle() }
func (w *Wheel) Center() physics.Vec { return w.center }
func (w *Wheel) Radius() float64     { return w.ring.Radius }
func (w *Wheel) Ring() geometry.Ring { return w.ring }
func (w *Wheel) Color() string       { return w.color }

// lerp lands exactly on b at t >= 1.
func lerp(a, b, t float64) float64 {
	if t >= 1 {
		return b
	}
	return a + (b-a)*t
}
