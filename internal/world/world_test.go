package world

import (
	"math/rand"
	"testing"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/ecs"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/apemallet/balls/internal/core/sched"
	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/physics/physicstest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testPalettes = []palette.Palette{
	{Name: "day", MainForeground: "#111111", DomAndAlts: []string{"#aa0000", "#00aa00", "#0000aa"}},
	{Name: "night", MainForeground: "#eeeeee", DomAndAlts: []string{"#ff00ff", "#00ffff"}},
}

var testArea = Area{
	Width:  1000,
	Height: 1000,
	Center: physics.Vec{X: 500, Y: 500},
	Radius: 350,
	Planck: 1,
}

type fixture struct {
	engine *physicstest.Engine
	ecs    *ecs.World
	sched  *sched.Scheduler
	bus    *event.Bus
	theme  *palette.Theme
	pop    *Population
	cfg    config.BallsConfig
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	theme, err := palette.NewTheme(testPalettes, "")
	require.NoError(t, err)

	cfg := config.Default().Balls
	cfg.Capacity = capacity
	f := &fixture{
		engine: physicstest.New(),
		ecs:    ecs.NewWorld(),
		sched:  sched.New(),
		bus:    event.NewBus(),
		theme:  theme,
		cfg:    cfg,
	}
	factory := NewFactory(f.ecs, rand.New(rand.NewSource(1)), theme, cfg, testArea.Planck)
	f.pop = NewPopulation(cfg, testArea, f.engine, f.ecs, factory, f.sched, f.bus, zap.NewNop())
	return f
}

func (f *fixture) body(t *testing.T, id ecs.EntityID) *physicstest.Body {
	t.Helper()
	b, ok := f.pop.Get(id)
	require.True(t, ok, "ball %d", id)
	fb, ok := b.Body.(*physicstest.Body)
	require.True(t, ok)
	return fb
}

// admit spawns a ball, drops it into the wheel and lets the catch poll see it.
func (f *fixture) admit(t *testing.T) ecs.EntityID {
	t.Helper()
	id, ok := f.pop.TryAddBall()
	require.True(t, ok)
	f.body(t, id).SetPosition(testArea.Center)
	f.sched.Advance(f.cfg.CatchPoll)
	return id
}

// dispatch delivers everything emitted so far.
func (f *fixture) dispatch() {
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
}
