package world

import (
	"testing"
	"time"

	"github.com/apemallet/balls/internal/core/ecs"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateAssignsRadiusLayerAndColor(t *testing.T) {
	f := newFixture(t, 4)
	var last ecs.EntityID
	for i := 0; i < 50; i++ {
		b := f.pop.factory.Create()
		assert.Greater(t, b.ID, last, "identities strictly increase")
		last = b.ID
		assert.GreaterOrEqual(t, b.Radius, f.cfg.MinRadius)
		assert.LessOrEqual(t, b.Radius, f.cfg.MaxRadius)
		assert.Equal(t, layer.Ball, b.Layer)
		assert.Equal(t, testPalettes[0].BallColor(uint64(b.ID)), b.Color)
	}
}

func TestTryAddBall_SpawnsEnteringAtTopCentre(t *testing.T) {
	f := newFixture(t, 4)
	id, ok := f.pop.TryAddBall()
	require.True(t, ok)

	b, _ := f.pop.Get(id)
	assert.Equal(t, StateEntering, b.State)
	assert.Equal(t, layer.Empty, b.Layer)
	assert.Equal(t, layer.Empty.Filter(), b.Body.Filter())
	assert.Equal(t, testArea.Width/2, b.Position().X)
	assert.Less(t, b.Position().Y, 0.0)
	assert.Equal(t, 0, f.pop.CurrentCapacity())
	assert.Equal(t, 1, f.pop.Entering())
}

func TestTryAddBall_FourSequentialAdmissionsFillCapacity(t *testing.T) {
	f := newFixture(t, 4)
	for i := 0; i < 4; i++ {
		f.admit(t)
	}
	assert.Equal(t, 4, f.pop.CurrentCapacity())
	assert.Len(t, f.pop.InState(StateActive), 4)
	for _, b := range f.pop.InState(StateActive) {
		assert.Equal(t, layer.Ball.Filter(), b.Body.Filter())
	}
}

func TestTryAddBall_NoOpAtCapacity(t *testing.T) {
	f := newFixture(t, 8)
	for i := 0; i < 8; i++ {
		f.admit(t)
	}
	require.Equal(t, 8, f.pop.CurrentCapacity())
	bodies := len(f.engine.Bodies())

	_, ok := f.pop.TryAddBall()
	assert.False(t, ok)
	assert.Equal(t, 8, f.pop.Len())
	assert.Len(t, f.engine.Bodies(), bodies)
}

func TestTryAddBall_EnteringBallsHoldTheirSlot(t *testing.T) {
	f := newFixture(t, 2)
	_, ok := f.pop.TryAddBall()
	require.True(t, ok)
	_, ok = f.pop.TryAddBall()
	require.True(t, ok)

	_, ok = f.pop.TryAddBall()
	assert.False(t, ok, "two balls in flight fill a capacity of two")
}

func TestCatchPoll_WaitsForTheLine(t *testing.T) {
	f := newFixture(t, 2)
	id, _ := f.pop.TryAddBall()
	body := f.body(t, id)

	line := testArea.Center.Y - testArea.Radius*f.cfg.CatchLine
	body.SetPosition(physics.Vec{X: 500, Y: line - 1})
	f.sched.Advance(time.Second)
	b, _ := f.pop.Get(id)
	assert.Equal(t, StateEntering, b.State)

	body.SetPosition(physics.Vec{X: 500, Y: line + 30})
	f.sched.Advance(f.cfg.CatchPoll)
	assert.Equal(t, StateActive, b.State)
	assert.Equal(t, 1, f.pop.CurrentCapacity())
}

func TestCatchPoll_TimeoutLeavesBallStuck(t *testing.T) {
	f := newFixture(t, 2)
	var stuck []ecs.EntityID
	event.Subscribe(f.bus, func(e event.BallStuck) { stuck = append(stuck, e.BallID) })

	id, _ := f.pop.TryAddBall()
	f.sched.Advance(f.cfg.CatchTimeout - f.cfg.CatchPoll)
	b, _ := f.pop.Get(id)
	assert.False(t, b.Stuck)

	f.sched.Advance(f.cfg.CatchPoll)
	f.dispatch()
	assert.True(t, b.Stuck)
	assert.Equal(t, StateEntering, b.State)
	assert.Equal(t, layer.Empty, b.Layer)
	assert.Equal(t, []ecs.EntityID{id}, stuck)

	// Polling is over: crossing the line later changes nothing.
	f.body(t, id).SetPosition(testArea.Center)
	f.sched.Advance(10 * time.Second)
	assert.Equal(t, StateEntering, b.State)
	assert.Equal(t, 0, f.pop.CurrentCapacity())
}

func TestPromote_EjectsWhenWheelFilledMeanwhile(t *testing.T) {
	f := newFixture(t, 1)
	first := f.admit(t)

	// The first ball bounces out of the wheel region, freeing the gate.
	f.body(t, first).SetPosition(physics.Vec{X: 500, Y: 950})
	second, ok := f.pop.TryAddBall()
	require.True(t, ok)

	// It falls back in before the second ball is caught.
	f.body(t, first).SetPosition(testArea.Center)
	f.body(t, second).SetPosition(testArea.Center)
	f.sched.Advance(f.cfg.CatchPoll)

	b, _ := f.pop.Get(second)
	assert.Equal(t, StateEjected, b.State)
	assert.Equal(t, layer.GhostBall, b.Layer)
	assert.Equal(t, 1, f.pop.CurrentCapacity())
}

func TestSweep_CullsBallsBelowPlayArea(t *testing.T) {
	f := newFixture(t, 4)
	gone := f.admit(t)
	kept := f.admit(t)
	entering, _ := f.pop.TryAddBall()

	var culled []event.BallCulled
	event.Subscribe(f.bus, func(e event.BallCulled) { culled = append(culled, e) })

	goneBody := f.body(t, gone)
	goneBody.SetPosition(physics.Vec{X: 500, Y: testArea.Height + f.cfg.CullMargin + 1})
	f.body(t, entering).SetPosition(physics.Vec{X: 500, Y: testArea.Height + f.cfg.CullMargin + 5})
	f.body(t, kept).SetPosition(physics.Vec{X: 500, Y: testArea.Height + f.cfg.CullMargin})

	assert.Equal(t, 2, f.pop.Sweep())
	assert.Equal(t, 0, f.pop.Sweep(), "queued balls are not culled twice")
	assert.Equal(t, 3, f.pop.Len(), "removal waits for the destroy queue")

	f.ecs.FlushDestroyQueue()
	f.dispatch()
	assert.Equal(t, 1, f.pop.Len())
	assert.True(t, goneBody.Removed)
	_, ok := f.pop.Get(kept)
	assert.True(t, ok)
	require.Len(t, culled, 2)
	assert.Equal(t, "active", culled[0].State)
	assert.Equal(t, "entering", culled[1].State)

	// The culled entering ball's poll was cancelled with it.
	f.sched.Advance(10 * time.Second)
	assert.Equal(t, 1, f.pop.Len())
}

func TestSelectAndDiscard(t *testing.T) {
	f := newFixture(t, 4)
	id := f.admit(t)
	entering, _ := f.pop.TryAddBall()

	assert.False(t, f.pop.Select(entering), "only active balls can be selected")
	assert.False(t, f.pop.Discard(id), "active balls are not discarded")

	require.True(t, f.pop.Select(id))
	b, _ := f.pop.Get(id)
	assert.Equal(t, StateSelected, b.State)
	assert.Equal(t, layer.GhostBall.Filter(), b.Body.Filter())
	assert.Equal(t, 0, f.pop.CurrentCapacity())
	assert.False(t, f.pop.Select(id), "a selected ball is never selected again")

	require.True(t, f.pop.Discard(id))
	f.ecs.FlushDestroyQueue()
	_, ok := f.pop.Get(id)
	assert.False(t, ok)
}

func TestLowest(t *testing.T) {
	f := newFixture(t, 4)
	_, ok := f.pop.Lowest()
	assert.False(t, ok)

	a := f.admit(t)
	b := f.admit(t)
	c := f.admit(t)
	f.body(t, a).SetPosition(physics.Vec{X: 450, Y: 700})
	f.body(t, b).SetPosition(physics.Vec{X: 500, Y: 700})
	f.body(t, c).SetPosition(physics.Vec{X: 550, Y: 600})

	low, ok := f.pop.Lowest()
	require.True(t, ok)
	assert.Equal(t, a, low.ID, "ties go to the first admitted")

	f.pop.Select(a)
	low, _ = f.pop.Lowest()
	assert.Equal(t, b, low.ID)
}

func TestRecolorIsIdempotent(t *testing.T) {
	f := newFixture(t, 4)
	f.admit(t)
	f.admit(t)

	f.theme.Cycle()
	f.pop.Recolor()
	first := f.pop.Snapshot()
	f.pop.Recolor()
	assert.Equal(t, first, f.pop.Snapshot())
	for _, v := range first {
		assert.Equal(t, testPalettes[1].BallColor(uint64(v.ID)), v.Color)
	}
}

func TestStart_RefillsAndSweeps(t *testing.T) {
	f := newFixture(t, 3)
	f.pop.Start()
	defer f.pop.Stop()

	f.sched.Advance(10 * f.cfg.RefillInterval)
	assert.Equal(t, 3, f.pop.Len(), "refill stops once in-flight balls fill capacity")

	var fallen []ecs.EntityID
	for _, b := range f.pop.InState(StateEntering) {
		b.Body.SetPosition(physics.Vec{X: 500, Y: 5000})
		fallen = append(fallen, b.ID)
	}
	require.Len(t, fallen, 3)
	// The refill timer keeps admitting while the fallen balls sit outside
	// the wheel, so only the fallen ones are checked.
	f.sched.Advance(f.cfg.CullInterval)
	f.ecs.FlushDestroyQueue()
	for _, id := range fallen {
		_, ok := f.pop.Get(id)
		assert.False(t, ok, "ball %d culled", id)
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	f := newFixture(t, 3)
	for i := 0; i < 40; i++ {
		if id, ok := f.pop.TryAddBall(); ok {
			f.body(t, id).SetPosition(testArea.Center)
		}
		if i%5 == 0 {
			for _, b := range f.pop.InState(StateActive) {
				f.pop.Select(b.ID)
				break
			}
		}
		f.sched.Advance(f.cfg.CatchPoll)
		assert.LessOrEqual(t, f.pop.CurrentCapacity(), 3)
		assert.LessOrEqual(t, len(f.pop.InState(StateActive)), 3)
	}
}
