package world

import (
	"fmt"
	"math"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/apemallet/balls/internal/core/sched"
	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/physics"
	"go.uber.org/zap"
)

// Crank is the hand crank beside the wheel: a base, shaft and handle body
// pinned at its base centre to a collision-free socket. Angle zero points
// the shaft straight up.
type Crank struct {
	cfg    config.CrankConfig
	body   physics.Body
	socket physics.Body
	handle physics.Vec // handle point, body frame
	parts  []physics.Part

	anger   float64
	busting bool

	sched *sched.Scheduler
	bus   *event.Bus
	log   *zap.Logger
}

func NewCrank(engine physics.Engine, cfg config.CrankConfig, at physics.Vec, planck float64,
	s *sched.Scheduler, bus *event.Bus, log *zap.Logger) (*Crank, error) {
	size := cfg.Scale * planck
	parts := []physics.Part{
		{Kind: physics.PartRect, Width: 0.6 * size, Height: 0.25 * size},                                 // base
		{Kind: physics.PartRect, Offset: physics.Vec{Y: -0.5 * size}, Width: 0.12 * size, Height: size},  // shaft
		{Kind: physics.PartRect, Offset: physics.Vec{Y: -size}, Width: 0.45 * size, Height: 0.15 * size}, // handle
	}

	socket, err := engine.CreateBody(physics.BodySpec{
		Label:    "crank-socket",
		Parts:    []physics.Part{{Kind: physics.PartCircle, Radius: 0.05 * size}},
		Position: at,
		Static:   true,
		Sensor:   true,
		Filter:   layer.Empty.Filter(),
	})
	if err != nil {
		return nil, fmt.Errorf("crank socket: %w", err)
	}
	body, err := engine.CreateBody(physics.BodySpec{
		Label:    "crank",
		Parts:    parts,
		Position: at,
		Floating: true,
		Filter:   layer.Empty.Filter(),
		Material: physics.Material{Density: 0.002, FrictionAir: 0.05},
	})
	if err != nil {
		engine.Remove(socket)
		return nil, fmt.Errorf("crank body: %w", err)
	}
	if err := engine.Pin(body, physics.Vec{}, socket, physics.Vec{}); err != nil {
		engine.Remove(body)
		engine.Remove(socket)
		return nil, fmt.Errorf("crank pin: %w", err)
	}

	return &Crank{
		cfg:    cfg,
		body:   body,
		socket: socket,
		handle: physics.Vec{Y: -size},
		parts:  parts,
		sched:  s,
		bus:    bus,
		log:    log,
	}, nil
}

// Smack pushes the handle along its direction of travel and raises anger by
// one step, busting past the threshold. During a bust the push still lands
// but anger is left alone.
func (c *Crank) Smack() {
	c.push(c.cfg.SmackForce)
	if c.busting {
		return
	}
	c.anger = min(1, c.anger+c.cfg.SmackStep)
	if c.anger >= c.cfg.BustThreshold {
		c.Bust()
	}
}

// Bust spikes anger and schedules the reset. The reset cannot be cancelled.
func (c *Crank) Bust() {
	if c.busting {
		return
	}
	c.busting = true
	c.anger = c.cfg.BustSpike
	c.log.Info("crank bust", zap.Float64("anger", c.anger))
	event.Emit(c.bus, event.CrankBust{})
	c.sched.After(c.cfg.BustReset, func() {
		c.anger = 0
		c.busting = false
	})
}

// Update decays anger, damps the handle near a detent and applies the
// reactive and idle forces. Decay is held while a bust is pending.
func (c *Crank) Update(dt time.Duration) {
	sec := dt.Seconds()
	if sec <= 0 {
		return
	}
	if !c.busting {
		c.anger = max(0, c.anger*max(0, 1-c.cfg.DecayRate*sec)-c.cfg.DecayLinear*sec)
	}
	if c.inDetent(c.body.Angle()) {
		c.body.SetAngularVelocity(c.body.AngularVelocity() * c.cfg.DetentDamping)
	}
	c.push(-c.cfg.ReactiveForce*c.anger*wrapAngle(c.body.Angle()) + c.cfg.IdleForce)
}

// inDetent reports whether angle lies within the window of a detent.
// Detents sit where angle+π is a multiple of 2π/Detents.
func (c *Crank) inDetent(angle float64) bool {
	if c.cfg.Detents <= 0 {
		return false
	}
	step := 2 * math.Pi / float64(c.cfg.Detents)
	off := math.Mod(angle+math.Pi, step)
	if off < 0 {
		off += step
	}
	return min(off, step-off) < c.cfg.DetentWindow
}

// push applies magnitude along the handle's tangent, positive in the
// direction of increasing angle.
func (c *Crank) push(magnitude float64) {
	if magnitude == 0 {
		return
	}
	a := c.body.Angle()
	tangent := physics.Vec{X: math.Cos(a), Y: math.Sin(a)}
	c.body.ApplyForce(c.body.LocalToWorld(c.handle), tangent.Scale(magnitude))
}

func (c *Crank) Anger() float64        { return c.anger }
func (c *Crank) Busting() bool         { return c.busting }
func (c *Crank) Angle() float64        { return c.body.Angle() }
func (c *Crank) Position() physics.Vec { return c.body.Position() }
func (c *Crank) Handle() physics.Vec   { return c.body.LocalToWorld(c.handle) }
func (c *Crank) Parts() []physics.Part { return c.parts }

// wrapAngle maps a to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
