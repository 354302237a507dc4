// Package roll runs the timed raffle protocols on simulation time: a roll
// spins the wheel through its phases and picks the lowest active ball, a
// flush clears the wheel and refills it.
package roll

import (
	"errors"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/ecs"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/apemallet/balls/internal/core/sched"
	"github.com/apemallet/balls/internal/world"
	"go.uber.org/zap"
)

// ErrBusy is returned when a roll or flush is already in flight.
var ErrBusy = errors.New("roll: protocol already in flight")

// Result is the outcome of one roll. Found is false when no ball was active
// at selection time; BallID is then zero, which no ball ever carries.
type Result struct {
	BallID ecs.EntityID
	Name   string
	Found  bool
}

// Population is the part of the ball manager the protocols drive.
type Population interface {
	Lowest() (*world.Ball, bool)
	Select(id ecs.EntityID) bool
	Discard(id ecs.EntityID) bool
	InState(s world.State) []*world.Ball
	TryAddBall() (ecs.EntityID, bool)
	Capacity() int
}

// Namer labels winners.
type Namer interface {
	NameOf(id uint64) string
}

// Orchestrator owns the spin override and the in-flight protocol. All
// methods and callbacks run on the tick goroutine.
type Orchestrator struct {
	cfg   config.RollConfig
	pop   Population
	names Namer
	sched *sched.Scheduler
	bus   *event.Bus
	log   *zap.Logger

	override *float64
	running  string
	last     Result
}

func New(cfg config.RollConfig, pop Population, names Namer, s *sched.Scheduler, bus *event.Bus, log *zap.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, pop: pop, names: names, sched: s, bus: bus, log: log}
}

// Target returns the spin the current phase asks for. ok is false when no
// phase overrides the resting target.
func (o *Orchestrator) Target() (target float64, ok bool) {
	if o.override == nil {
		return 0, false
	}
	return *o.override, true
}

// Running names the protocol in flight, or "" when idle.
func (o *Orchestrator) Running() string { return o.running }

// Last is the result of the most recent completed roll.
func (o *Orchestrator) Last() Result { return o.last }

// Roll starts a roll. done, when non-nil, receives the result once the
// winner has been moved to the selected layer (or found missing).
func (o *Orchestrator) Roll(done func(Result)) error {
	if o.running != "" {
		return ErrBusy
	}
	o.running = "roll"
	o.log.Info("roll started", zap.Int("phases", len(o.cfg.Phases)))
	o.runPhases(0, func() { o.choose(done) })
	return nil
}

// runPhases sets each phase's target in turn, then calls next.
func (o *Orchestrator) runPhases(i int, next func()) {
	if i >= len(o.cfg.Phases) {
		o.override = nil
		next()
		return
	}
	p := o.cfg.Phases[i]
	if p.Idle {
		o.override = nil
	} else {
		target := p.Target
		o.override = &target
	}
	o.log.Debug("roll phase",
		zap.String("phase", p.Name),
		zap.Float64("target", p.Target),
		zap.Bool("idle", p.Idle),
		zap.Duration("duration", p.Duration))
	o.sched.After(p.Duration, func() { o.runPhases(i+1, next) })
}

// choose picks the lowest active ball now and reveals it after the
// selection delay.
func (o *Orchestrator) choose(done func(Result)) {
	winner, ok := o.pop.Lowest()
	if !ok {
		o.log.Warn("roll found no active ball")
		o.finish(Result{}, done)
		return
	}
	id := winner.ID
	o.sched.After(o.cfg.SelectDelay, func() {
		if !o.pop.Select(id) {
			// Culled or otherwise gone during the delay.
			o.log.Warn("roll winner lost before reveal", zap.Uint64("ball", uint64(id)))
			o.finish(Result{}, done)
			return
		}
		res := Result{BallID: id, Name: o.names.NameOf(uint64(id)), Found: true}
		o.log.Info("winner revealed", zap.Uint64("ball", uint64(id)), zap.String("name", res.Name))
		event.Emit(o.bus, event.WinnerRevealed{BallID: id, Name: res.Name})
		o.finish(res, done)
	})
}

func (o *Orchestrator) finish(res Result, done func(Result)) {
	o.running = ""
	o.last = res
	event.Emit(o.bus, event.RollFinished{BallID: res.BallID, Found: res.Found})
	if done != nil {
		done(res)
	}
}

// Flush discards previously selected balls, drains every active ball to
// selected and refills to capacity, one admission per stagger interval.
// done receives the number of balls drained.
func (o *Orchestrator) Flush(done func(drained int)) error {
	if o.running != "" {
		return ErrBusy
	}
	o.running = "flush"

	for _, b := range o.pop.InState(world.StateSelected) {
		o.pop.Discard(b.ID)
	}
	drained := 0
	for _, b := range o.pop.InState(world.StateActive) {
		if o.pop.Select(b.ID) {
			drained++
		}
	}
	o.log.Info("flush", zap.Int("drained", drained))

	o.refill(o.pop.Capacity(), func() {
		o.running = ""
		if done != nil {
			done(drained)
		}
	})
	return nil
}

// refill tries one admission per stagger until n attempts were made.
// Refused admissions still use up an attempt; the population's own refill
// timer covers any shortfall.
func (o *Orchestrator) refill(n int, next func()) {
	if n <= 0 {
		next()
		return
	}
	o.pop.TryAddBall()
	o.sched.After(max(o.cfg.FlushStagger, time.Millisecond), func() { o.refill(n-1, next) })
}
