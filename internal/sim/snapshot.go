package sim

import (
	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/roll"
	"github.com/apemallet/balls/internal/world"
)

// Ball is a drawable ball with its participant labels.
type Ball struct {
	world.BallView
	Name  string
	Label string
}

type Wheel struct {
	Center physics.Vec
	Radius float64
	Angle  float64
	Spin   float64
	Target float64
	Color  string
	Parts  []physics.Part // body frame
}

type Crank struct {
	Position physics.Vec
	Handle   physics.Vec
	Angle    float64
	Anger    float64
	Busting  bool
	Parts    []physics.Part // body frame
}

// Snapshot is a copy of everything a front end draws. It shares no
// mutable state with the simulation.
type Snapshot struct {
	Tick     uint64
	Area     world.Area
	Palette  palette.Palette
	Balls    []Ball
	Wheel    Wheel
	Tray     []physics.Part // wheel-centred frame
	Crank    Crank
	Capacity int
	Active   int // current capacity: ball layer, inside the wheel
	Entering int
	Running  string
	Last     roll.Result
}

func (s *Sim) snapshot() Snapshot {
	views := s.pop.Snapshot()
	balls := make([]Ball, len(views))
	for i, v := range views {
		balls[i] = Ball{
			BallView: v,
			Name:     s.names.NameOf(uint64(v.ID)),
			Label:    s.names.ShortOf(uint64(v.ID)),
		}
	}
	return Snapshot{
		Tick:    s.runner.Ticks(),
		Area:    s.area,
		Palette: s.theme.Current(),
		Balls:   balls,
		Wheel: Wheel{
			Center: s.wheel.Center(),
			Radius: s.wheel.Radius(),
			Angle:  s.wheel.Angle(),
			Spin:   s.wheel.Spin(),
			Target: s.spin.Target(),
			Color:  s.wheel.Color(),
			Parts:  s.wheel.Ring().Parts,
		},
		Tray: s.tray.Parts(),
		Crank: Crank{
			Position: s.crank.Position(),
			Handle:   s.crank.Handle(),
			Angle:    s.crank.Angle(),
			Anger:    s.crank.Anger(),
			Busting:  s.crank.Busting(),
			Parts:    s.crank.Parts(),
		},
		Capacity: s.pop.Capacity(),
		Active:   s.pop.CurrentCapacity(),
		Entering: s.pop.Entering(),
		Running:  s.roll.Running(),
		Last:     s.roll.Last(),
	}
}
