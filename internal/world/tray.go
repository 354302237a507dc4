package world

import (
	"fmt"
	"math"

	"github.com/apemallet/balls/internal/layer"
	"github.com/apemallet/balls/internal/physics"
)

// trayThickness is in planck units.
const trayThickness = 20

// Tray is the invisible ghost-wall catcher under the wheel: two side walls
// and two floor halves sloping toward a central drop gap. Only ghost balls
// touch it, so selected and ejected balls are funnelled out of the play area.
type Tray struct {
	body  physics.Body
	parts []physics.Part
}

// NewTray sizes the tray around the wheel. gap is the drop opening width.
func NewTray(engine physics.Engine, area Area, gap float64) (*Tray, error) {
	parts := trayParts(area, gap)
	body, err := engine.CreateBody(physics.BodySpec{
		Label:    "tray",
		Parts:    parts,
		Position: area.Center,
		Static:   true,
		Filter:   layer.GhostWall.Filter(),
		Material: physics.Material{Friction: 0.05},
	})
	if err != nil {
		return nil, fmt.Errorf("tray body: %w", err)
	}
	return &Tray{body: body, parts: parts}, nil
}

func (t *Tray) Remove(engine physics.Engine) { engine.Remove(t.body) }

// Parts are in the tray frame, centred on the wheel.
func (t *Tray) Parts() []physics.Part { return t.parts }

func trayParts(area Area, gap float64) []physics.Part {
	th := trayThickness * area.Planck
	r := area.Radius
	half := r + th      // inner face of the side walls
	floorY := r + 2*th  // floor height at the walls
	wallH := floorY + r // walls rise to the wheel's upper half
	run := half - gap/2 // horizontal span of each floor half
	drop := math.Min(r/4, 2*th)
	slope := math.Atan2(drop, run)
	length := math.Hypot(run, drop)
	mid := gap/2 + run/2

	return []physics.Part{
		{Kind: physics.PartRect, Offset: physics.Vec{X: -half - th/2, Y: floorY - wallH/2}, Width: th, Height: wallH},
		{Kind: physics.PartRect, Offset: physics.Vec{X: half + th/2, Y: floorY - wallH/2}, Width: th, Height: wallH},
		{Kind: physics.PartRect, Offset: physics.Vec{X: -mid, Y: floorY + drop/2}, Angle: slope, Width: length, Height: th},
		{Kind: physics.PartRect, Offset: physics.Vec{X: mid, Y: floorY + drop/2}, Angle: -slope, Width: length, Height: th},
	}
}
