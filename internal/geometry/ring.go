// Package geometry builds the collider layout of the wheel ring.
package geometry

import (
	"math"

	"github.com/apemallet/balls/internal/physics"
)

const (
	// segmentDensity is ring segments per unit of radius.
	segmentDensity = 0.3
	// DefaultTickRadiusFactor pulls ticks just inside the ring.
	DefaultTickRadiusFactor = 0.98
)

// RingSpec sizes a ring. Fractions are relative to Radius.
type RingSpec struct {
	Radius           float64
	ThicknessFrac    float64
	TickLengthFrac   float64
	TickCount        int     // approximate; <= 0 picks DefaultTickCount
	TickRadiusFactor float64 // <= 0 picks DefaultTickRadiusFactor
}

// Ring is the output of BuildRing. Parts are in the wheel's local frame,
// centred on the origin: segments first at their angular order, each tick
// right after the segment it sits on.
type Ring struct {
	Parts         []physics.Part
	Segments      int
	Ticks         int
	TickSpacing   int
	TickAngles    []float64
	SegmentLength float64
	Thickness     float64
	TickLength    float64
	Radius        float64
}

// SegmentCount is the unitless (fractional) number of segments around a
// ring of the given radius.
func SegmentCount(radius float64) float64 {
	return segmentDensity * radius
}

// DefaultTickCount scales the tick count with the square root of the radius.
func DefaultTickCount(radius float64) int {
	return int(math.Round(0.4 * math.Sqrt(radius)))
}

// TickSpacing is the number of segments between ticks. It never returns
// less than 1, even for rings too small to hold the requested tick count.
func TickSpacing(segments float64, ticks int) int {
	if ticks < 1 {
		ticks = 1
	}
	spacing := int(math.Round(segments / float64(ticks)))
	if spacing < 1 {
		return 1
	}
	return spacing
}

// SegmentLength is the long side of a rectangular segment such that
// neighbours meet on the outer edge: the chord between two adjacent unit
// ring samples, pushed out to the segment's bounding radius.
func SegmentLength(radius, thickness, segments float64) float64 {
	pitch := 2 * math.Pi / segments
	px, py := math.Cos(pitch), math.Sin(pitch)
	mx, my := (px-1)/2+1, py/2
	effective := 1 / math.Hypot(mx, my)
	chord := math.Hypot(px-1, py)
	return (radius + thickness/2) * effective * chord
}

// BuildRing lays out the ring. Radius must be positive.
func BuildRing(spec RingSpec) Ring {
	radius := spec.Radius
	degree := SegmentCount(radius)
	thickness := spec.ThicknessFrac * radius
	tickLength := spec.TickLengthFrac * radius

	ticks := spec.TickCount
	if ticks <= 0 {
		ticks = DefaultTickCount(radius)
	}
	tickFactor := spec.TickRadiusFactor
	if tickFactor <= 0 {
		tickFactor = DefaultTickRadiusFactor
	}
	spacing := TickSpacing(degree, ticks)
	segLen := SegmentLength(radius, thickness, degree)

	r := Ring{
		Parts:         make([]physics.Part, 0, int(math.Ceil(degree))+ticks),
		TickSpacing:   spacing,
		SegmentLength: segLen,
		Thickness:     thickness,
		TickLength:    tickLength,
		Radius:        radius,
	}

	for i := 0; float64(i) < degree; i++ {
		theta := float64(i) / degree * 2 * math.Pi
		at := physics.Vec{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}

		r.Parts = append(r.Parts, physics.Part{
			Kind:   physics.PartRect,
			Offset: at,
			Angle:  theta + math.Pi/2,
			Width:  segLen,
			Height: thickness,
		})
		r.Segments++

		// Skip the last partial stretch so the first and last ticks never
		// crowd each other at the seam.
		if i%spacing == 0 && degree-float64(i) > 0.5*float64(spacing) {
			r.Parts = append(r.Parts, physics.Part{
				Kind:     physics.PartPolygon,
				Offset:   at.Scale(tickFactor),
				Angle:    theta + math.Pi/2,
				Vertices: flag(thickness, tickLength),
			})
			r.Ticks++
			r.TickAngles = append(r.TickAngles, theta)
		}
	}
	return r
}

// flag is a tick: full ring thickness at the rim tapering to half that at
// the inner tip. Local +Y points toward the wheel centre once rotated.
func flag(thickness, length float64) []physics.Vec {
	hw, hl := thickness/2, length/2
	return []physics.Vec{
		{X: -hw, Y: -hl},
		{X: hw, Y: -hl},
		{X: hw / 2, Y: hl},
		{X: -hw / 2, Y: hl},
	}
}
