// Package sim assembles one prize-wheel simulation: the wheel, tray, crank,
// ball population and roll orchestrator, driven by a single tick loop.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/ecs"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/apemallet/balls/internal/core/sched"
	coresys "github.com/apemallet/balls/internal/core/system"
	"github.com/apemallet/balls/internal/names"
	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/roll"
	"github.com/apemallet/balls/internal/scripting"
	"github.com/apemallet/balls/internal/system"
	"github.com/apemallet/balls/internal/world"
	"go.uber.org/zap"
)

var (
	ErrEngineUnavailable = errors.New("sim: physics engine unavailable")
	ErrStopped           = errors.New("sim: stopped")
)

// maxTickDelta caps the delta of a tick after a stall (suspended laptop,
// debugger) so one tick cannot fling every ball out of the wheel.
const maxTickDelta = 250 * time.Millisecond

// Scripts supplies the tunable formulas; *scripting.Engine implements it.
type Scripts interface {
	SpinTarget(ctx scripting.SpinContext) float64
	RollPhases(defaults []config.PhaseConfig) []config.PhaseConfig
}

// Deps are the collaborators a simulation is built from. Engine and Theme
// are required.
type Deps struct {
	Engine  physics.Engine
	Theme   *palette.Theme
	Names   *names.Source // nil labels balls by identity
	Scripts Scripts       // nil uses the built-in spin formula and config phases
	Rand    *rand.Rand    // nil seeds from cfg.Sim.Seed or the clock
	Log     *zap.Logger
}

// Sim is one simulation instance. Run owns it; other goroutines talk to it
// through the context-taking methods, which queue commands for the tick loop.
type Sim struct {
	cfg config.Config
	log *zap.Logger

	engine physics.Engine
	ecs    *ecs.World
	sched  *sched.Scheduler
	bus    *event.Bus
	runner *coresys.Runner
	theme  *palette.Theme
	names  *names.Source
	area   world.Area

	pop   *world.Population
	wheel *world.Wheel
	tray  *world.Tray
	crank *world.Crank
	roll  *roll.Orchestrator
	spin  *system.SpinSystem

	commands chan system.Command
	done     chan struct{}
}

// New builds a simulation. Configuration and geometry errors are fatal: no
// partially built simulation is returned.
func New(cfg config.Config, deps Deps) (*Sim, error) {
	if deps.Engine == nil {
		return nil, ErrEngineUnavailable
	}
	if deps.Theme == nil {
		return nil, errors.New("sim: theme is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	rng := deps.Rand
	if rng == nil {
		seed := cfg.Sim.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	if deps.Scripts != nil {
		cfg.Roll.Phases = deps.Scripts.RollPhases(cfg.Roll.Phases)
	}

	planck := cfg.Sim.Planck()
	area := world.Area{
		Width:  cfg.Sim.Width,
		Height: cfg.Sim.Height,
		Center: physics.Vec{X: cfg.Sim.Width / 2, Y: cfg.Sim.Height / 2},
		Radius: cfg.Wheel.Radius * planck,
		Planck: planck,
	}

	s := &Sim{
		cfg:      cfg,
		log:      log,
		engine:   deps.Engine,
		ecs:      ecs.NewWorld(),
		sched:    sched.New(),
		bus:      event.NewBus(),
		runner:   coresys.NewRunner(),
		theme:    deps.Theme,
		names:    deps.Names,
		area:     area,
		commands: make(chan system.Command, 64),
		done:     make(chan struct{}),
	}

	var err error
	if s.wheel, err = world.NewWheel(s.engine, cfg.Wheel, area.Center, planck, s.theme.Current()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	if s.tray, err = world.NewTray(s.engine, area, 3*cfg.Balls.MaxRadius*planck); err != nil {
		s.wheel.Remove(s.engine)
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	crankAt := area.Center.Add(physics.Vec{X: cfg.Crank.Offset * planck})
	if s.crank, err = world.NewCrank(s.engine, cfg.Crank, crankAt, planck, s.sched, s.bus, log); err != nil {
		s.tray.Remove(s.engine)
		s.wheel.Remove(s.engine)
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	factory := world.NewFactory(s.ecs, rng, s.theme, cfg.Balls, planck)
	s.pop = world.NewPopulation(cfg.Balls, area, s.engine, s.ecs, factory, s.sched, s.bus, log)
	s.roll = roll.New(cfg.Roll, s.pop, s.names, s.sched, s.bus, log)

	var targeter system.SpinTargeter
	if deps.Scripts != nil {
		targeter = deps.Scripts
	}
	s.spin = system.NewSpinSystem(s.wheel, s.roll, s.crank, targeter, cfg.Wheel.IdleSpin, cfg.Wheel.AngerGain)

	s.runner.Register(system.NewInputSystem(s.commands, cfg.Sim.MaxCommandsPerTick, log))
	s.runner.Register(system.NewEventDispatchSystem(s.bus))
	s.runner.Register(system.NewCrankSystem(s.crank))
	s.runner.Register(s.spin)
	s.runner.Register(system.NewPhysicsSystem(s.engine))
	s.runner.Register(system.NewTimerSystem(s.sched))
	s.runner.Register(system.NewCleanupSystem(s.ecs, log))

	s.pop.Start()
	log.Info("simulation ready",
		zap.Int("capacity", cfg.Balls.Capacity),
		zap.Float64("wheel_radius", area.Radius),
		zap.Int("segments", s.wheel.Ring().Segments),
		zap.Int("ticks", s.wheel.Ring().Ticks),
		zap.Int("roll_phases", len(cfg.Roll.Phases)))
	return s, nil
}

// Register adds a system to the tick loop, e.g. the winner archive. Call
// before Run.
func (s *Sim) Register(sys coresys.System) { s.runner.Register(sys) }

// Bus is the notification bus. Handlers run on the tick goroutine.
func (s *Sim) Bus() *event.Bus { return s.bus }

// Theme is the palette context the simulation colors from.
func (s *Sim) Theme() *palette.Theme { return s.theme }

// Run drives the tick loop until ctx is done. Each tick receives the
// wall-clock time since the previous one.
func (s *Sim) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.pop.Stop()

	ticker := time.NewTicker(s.cfg.Sim.TickRate)
	defer ticker.Stop()

	s.log.Info("tick loop started", zap.Duration("tick", s.cfg.Sim.TickRate))
	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			s.Tick(min(now.Sub(last), maxTickDelta))
			last = now
		case <-ctx.Done():
			s.log.Info("tick loop stopped", zap.Uint64("ticks", s.runner.Ticks()))
			return nil
		}
	}
}

// Tick runs one tick. It must not be called while Run is active.
func (s *Sim) Tick(dt time.Duration) {
	s.runner.Tick(dt)
}

// do runs fn on the tick goroutine and waits for it.
func (s *Sim) do(ctx context.Context, fn func()) error {
	ack := make(chan struct{})
	cmd := system.Command(func() {
		fn()
		close(ack)
	})
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, done <-chan struct{}, ch <-chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Roll runs the roll protocol and returns its result once the winner has
// been revealed. A result with Found false means no ball was active.
// Cancelling ctx stops waiting; the roll itself runs to completion.
func (s *Sim) Roll(ctx context.Context) (roll.Result, error) {
	res := make(chan roll.Result, 1)
	var startErr error
	if err := s.do(ctx, func() {
		startErr = s.roll.Roll(func(r roll.Result) { res <- r })
	}); err != nil {
		return roll.Result{}, err
	}
	if startErr != nil {
		return roll.Result{}, startErr
	}
	return await(ctx, s.done, res)
}

// Flush drains the wheel and refills it, returning the number of balls
// drained.
func (s *Sim) Flush(ctx context.Context) (int, error) {
	res := make(chan int, 1)
	var startErr error
	if err := s.do(ctx, func() {
		startErr = s.roll.Flush(func(n int) { res <- n })
	}); err != nil {
		return 0, err
	}
	if startErr != nil {
		return 0, startErr
	}
	return await(ctx, s.done, res)
}

// Smack hits the crank handle.
func (s *Sim) Smack(ctx context.Context) error {
	return s.do(ctx, s.crank.Smack)
}

// ReTheme recolors the wheel and every ball from the theme's current
// palette. Call it whenever the palette changed.
func (s *Sim) ReTheme(ctx context.Context) error {
	return s.do(ctx, s.reTheme)
}

func (s *Sim) reTheme() {
	s.wheel.ReTheme(s.theme.Current())
	s.pop.Recolor()
}

// CycleTheme switches to the next palette and recolors, returning the new
// palette's name.
func (s *Sim) CycleTheme(ctx context.Context) (string, error) {
	var name string
	err := s.do(ctx, func() {
		name = s.theme.Cycle().Name
		s.reTheme()
	})
	return name, err
}

// Discard removes a selected or ejected ball before it drifted out.
func (s *Sim) Discard(ctx context.Context, id ecs.EntityID) (bool, error) {
	var ok bool
	err := s.do(ctx, func() { ok = s.pop.Discard(id) })
	return ok, err
}

// Snapshot copies the drawable state.
func (s *Sim) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() { snap = s.snapshot() })
	return snap, err
}

// OnBust registers fn for crank busts and returns its unsubscribe func.
// fn runs on the tick goroutine and must not block.
func (s *Sim) OnBust(fn func()) (unsubscribe func()) {
	return event.Subscribe(s.bus, func(event.CrankBust) { fn() })
}

// OnReveal registers fn for revealed winners and returns its unsubscribe
// func. fn runs on the tick goroutine and must not block.
func (s *Sim) OnReveal(fn func(event.WinnerRevealed)) (unsubscribe func()) {
	return event.Subscribe(s.bus, fn)
}
