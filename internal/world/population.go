package world

import (
	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/ecs"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/apemallet/balls/internal/core/sched"
	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/physics"
	"go.uber.org/zap"
)

// Area is the play area and the wheel it contains, in world units.
type Area struct {
	Width, Height float64
	Center        physics.Vec // wheel centre
	Radius        float64     // wheel radius
	Planck        float64
}

// BallView is a read-only copy of a ball for consumers outside the tick loop.
type BallView struct {
	ID       ecs.EntityID
	State    State
	Layer    layer.Tag
	Position physics.Vec
	Radius   float64
	Color    string
	Stuck    bool
}

// Population owns the live balls. It is driven from the tick goroutine only:
// every method, timer callback and destroy hook runs there.
type Population struct {
	cfg      config.BallsConfig
	area     Area
	capacity int

	engine  physics.Engine
	ecs     *ecs.World
	factory *Factory
	sched   *sched.Scheduler
	bus     *event.Bus
	log     *zap.Logger

	balls  *ecs.PtrComponentStore[Ball]
	timers []*sched.Timer
}

func NewPopulation(cfg config.BallsConfig, area Area, engine physics.Engine, w *ecs.World,
	factory *Factory, s *sched.Scheduler, bus *event.Bus, log *zap.Logger) *Population {
	p := &Population{
		cfg:      cfg,
		area:     area,
		capacity: cfg.Capacity,
		engine:   engine,
		ecs:      w,
		factory:  factory,
		sched:    s,
		bus:      bus,
		log:      log,
		balls:    ecs.NewPtrComponentStore[Ball](),
	}
	w.Track(p.balls)
	w.OnDestroy(p.release)
	return p
}

// Start arms the periodic cull sweep and refill.
func (p *Population) Start() {
	p.timers = append(p.timers,
		p.sched.Every(p.cfg.CullInterval, func() { p.Sweep() }),
		p.sched.Every(p.cfg.RefillInterval, func() { p.TryAddBall() }),
	)
}

func (p *Population) Stop() {
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}

func (p *Population) Capacity() int { return p.capacity }

// CurrentCapacity counts balls on the ball layer inside the wheel. It is
// computed fresh on every call.
func (p *Population) CurrentCapacity() int {
	n := 0
	p.balls.Each(func(_ ecs.EntityID, b *Ball) {
		if b.Layer == layer.Ball && b.Body != nil &&
			b.Body.Position().Dist(p.area.Center) <= p.area.Radius {
			n++
		}
	})
	return n
}

// Entering counts balls still in flight, stuck ones included.
func (p *Population) Entering() int {
	return p.count(StateEntering)
}

func (p *Population) count(s State) int {
	n := 0
	p.balls.Each(func(_ ecs.EntityID, b *Ball) {
		if b.State == s {
			n++
		}
	})
	return n
}

// TryAddBall spawns one ball at the top centre of the play area unless the
// wheel plus the balls already entering would reach capacity. It returns
// the new identity, or false when admission was refused.
func (p *Population) TryAddBall() (ecs.EntityID, bool) {
	if p.CurrentCapacity()+p.Entering() >= p.capacity {
		return 0, false
	}

	b := p.factory.Create()
	b.Layer = layer.Empty
	body, err := p.engine.CreateBody(p.factory.BodySpec(b, physics.Vec{X: p.area.Width / 2, Y: -b.Radius}))
	if err != nil {
		p.log.Error("spawn ball", zap.Uint64("ball", uint64(b.ID)), zap.Error(err))
		p.ecs.Pool().Destroy(b.ID)
		return 0, false
	}
	b.Body = body
	b.State = StateEntering
	b.catch = sched.NewToken()
	p.balls.Set(b.ID, b)
	event.Emit(p.bus, event.BallSpawned{BallID: b.ID})

	line := p.area.Center.Y - p.area.Radius*p.cfg.CatchLine
	id := b.ID
	p.sched.WaitUntil(
		func() bool { return body.Position().Y >= line },
		p.cfg.CatchPoll, p.cfg.CatchTimeout, b.catch,
		func(res sched.WaitResult) { p.caught(id, res) },
	)
	return id, true
}

func (p *Population) caught(id ecs.EntityID, res sched.WaitResult) {
	b, ok := p.balls.Get(id)
	if !ok || b.State != StateEntering {
		return
	}
	switch res {
	case sched.WaitSatisfied:
		p.promote(b)
	case sched.WaitTimedOut:
		b.Stuck = true
		p.log.Warn("ball stuck entering",
			zap.Uint64("ball", uint64(id)),
			zap.Float64("y", b.Position().Y))
		event.Emit(p.bus, event.BallStuck{BallID: id})
	}
}

// promote re-checks capacity: sweeps and rolls may have interleaved since
// admission.
func (p *Population) promote(b *Ball) {
	if p.CurrentCapacity() >= p.capacity {
		b.State = StateEjected
		b.SetLayer(layer.GhostBall)
		p.log.Debug("ball ejected at capacity", zap.Uint64("ball", uint64(b.ID)))
		event.Emit(p.bus, event.BallEjected{BallID: b.ID})
		return
	}
	b.State = StateActive
	b.SetLayer(layer.Ball)
	event.Emit(p.bus, event.BallAdmitted{BallID: b.ID})
}

// Sweep queues every ball below the play area for destruction and returns
// how many were queued.
func (p *Population) Sweep() int {
	limit := p.area.Height + p.cfg.CullMargin*p.area.Planck
	n := 0
	p.balls.Each(func(id ecs.EntityID, b *Ball) {
		if p.ecs.PendingDestruction(id) || b.Position().Y <= limit {
			return
		}
		p.log.Debug("ball culled",
			zap.Uint64("ball", uint64(id)),
			zap.Stringer("state", b.State))
		event.Emit(p.bus, event.BallCulled{BallID: id, State: b.State.String()})
		p.ecs.MarkForDestruction(id)
		n++
	})
	return n
}

// Select moves an Active ball to the selected ghost layer.
func (p *Population) Select(id ecs.EntityID) bool {
	b, ok := p.balls.Get(id)
	if !ok || b.State != StateActive {
		return false
	}
	b.State = StateSelected
	b.SetLayer(layer.GhostBall)
	return true
}

// Discard queues a Selected or Ejected ball for removal before it has
// drifted out on its own.
func (p *Population) Discard(id ecs.EntityID) bool {
	b, ok := p.balls.Get(id)
	if !ok || (b.State != StateSelected && b.State != StateEjected) {
		return false
	}
	p.ecs.MarkForDestruction(id)
	return true
}

func (p *Population) Get(id ecs.EntityID) (*Ball, bool) {
	return p.balls.Get(id)
}

func (p *Population) Len() int { return p.balls.Len() }

// InState returns balls in s, in admission order.
func (p *Population) InState(s State) []*Ball {
	var out []*Ball
	p.balls.Each(func(_ ecs.EntityID, b *Ball) {
		if b.State == s {
			out = append(out, b)
		}
	})
	return out
}

// Lowest returns the Active ball with the greatest vertical position. Ties
// go to the ball admitted first.
func (p *Population) Lowest() (*Ball, bool) {
	var best *Ball
	p.balls.Each(func(_ ecs.EntityID, b *Ball) {
		if b.State != StateActive || b.Body == nil {
			return
		}
		if best == nil || b.Body.Position().Y > best.Body.Position().Y {
			best = b
		}
	})
	return best, best != nil
}

// Recolor reassigns every ball color from the theme's current palette.
func (p *Population) Recolor() {
	pal := p.factory.theme.Current()
	p.balls.Each(func(id ecs.EntityID, b *Ball) {
		b.Color = pal.BallColor(uint64(id))
	})
}

func (p *Population) Snapshot() []BallView {
	out := make([]BallView, 0, p.balls.Len())
	p.balls.Each(func(id ecs.EntityID, b *Ball) {
		out = append(out, BallView{
			ID:       id,
			State:    b.State,
			Layer:    b.Layer,
			Position: b.Position(),
			Radius:   b.Radius,
			Color:    b.Color,
			Stuck:    b.Stuck,
		})
	})
	return out
}

// release is the ecs destroy hook: the ball's catch poll stops and its body
// leaves the engine before the store entry is cleared.
func (p *Population) release(id ecs.EntityID) {
	b, ok := p.balls.Get(id)
	if !ok {
		return
	}
	b.catch.Cancel()
	if b.Body != nil {
		p.engine.Remove(b.Body)
		b.Body = nil
	}
}
