// Package render draws simulation snapshots on a terminal screen.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/sim"
	"github.com/apemallet/balls/internal/world"
	"github.com/gdamore/tcell/v2"
)

// Action is what a key press asks the front end to do.
type Action int

const (
	ActionNone Action = iota
	ActionSmack
	ActionRoll
	ActionFlush
	ActionTheme
	ActionQuit
)

// statusRows are reserved at the bottom of the screen.
const statusRows = 2

// KeyAction maps a key press to an action.
func KeyAction(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyEnter:
		return ActionRoll
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			return ActionSmack
		case 'r', 'R':
			return ActionRoll
		case 'f', 'F':
			return ActionFlush
		case 't', 'T':
			return ActionTheme
		case 'q', 'Q':
			return ActionQuit
		}
	}
	return ActionNone
}

// Renderer draws onto a tcell screen. Terminal cells are about twice as
// tall as wide, so world Y is halved.
type Renderer struct {
	screen tcell.Screen
	colors map[string]tcell.Color
}

func New(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen, colors: make(map[string]tcell.Color)}
}

// view maps world coordinates onto the cells above the status rows.
type view struct {
	scale      float64
	cols, rows int
}

func newView(area world.Area, cols, rows int) view {
	rows -= statusRows
	if rows < 1 || cols < 1 || area.Width <= 0 || area.Height <= 0 {
		return view{}
	}
	scale := math.Min(float64(cols)/area.Width, 2*float64(rows)/area.Height)
	return view{scale: scale, cols: cols, rows: rows}
}

func (v view) cell(p physics.Vec) (x, y int, ok bool) {
	x = int(math.Floor(p.X * v.scale))
	y = int(math.Floor(p.Y * v.scale / 2))
	return x, y, x >= 0 && y >= 0 && x < v.cols && y < v.rows
}

func (r *Renderer) color(hex string) tcell.Color {
	if c, ok := r.colors[hex]; ok {
		return c
	}
	c := tcell.GetColor(hex)
	r.colors[hex] = c
	return c
}

func (r *Renderer) style(fg, bg string) tcell.Style {
	st := tcell.StyleDefault
	if fg != "" {
		st = st.Foreground(r.color(fg))
	}
	if bg != "" {
		st = st.Background(r.color(bg))
	}
	return st
}

// Draw renders snap with msg on the status line and shows the frame.
func (r *Renderer) Draw(snap sim.Snapshot, msg string) {
	r.screen.Clear()
	cols, rows := r.screen.Size()
	v := newView(snap.Area, cols, rows)
	bg := snap.Palette.MainBackground
	r.screen.Fill(' ', r.style("", bg))

	if v.scale > 0 {
		r.drawWheel(v, snap, bg)
		r.drawParts(v, snap.Wheel.Center, 0, snap.Tray, '=', r.style(snap.Palette.Alt1, bg))
		r.drawParts(v, snap.Crank.Position, snap.Crank.Angle, snap.Crank.Parts, '#', r.crankStyle(snap, bg))
		r.drawBalls(v, snap, bg)
	}
	r.drawStatus(snap, msg, cols, rows, bg)
	r.screen.Show()
}

func (r *Renderer) drawWheel(v view, snap sim.Snapshot, bg string) {
	st := r.style(snap.Wheel.Color, bg)
	w := snap.Wheel
	// One dot per cell of circumference is enough to close the ring.
	steps := max(16, int(2*math.Pi*w.Radius*v.scale))
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		p := w.Center.Add(physics.Vec{X: math.Cos(a), Y: math.Sin(a)}.Scale(w.Radius))
		if x, y, ok := v.cell(p); ok {
			r.screen.SetContent(x, y, '·', nil, st)
		}
	}
	for _, part := range w.Parts {
		if part.Kind != physics.PartRect {
			continue
		}
		// Ticks sit inside the ring; segments straddle it.
		if part.Offset.Len() >= w.Radius*0.98 {
			continue
		}
		p := w.Center.Add(part.Offset.Rotate(w.Angle))
		if x, y, ok := v.cell(p); ok {
			r.screen.SetContent(x, y, '+', nil, st)
		}
	}
}

func (r *Renderer) crankStyle(snap sim.Snapshot, bg string) tcell.Style {
	if snap.Crank.Busting {
		return r.style("", bg).Foreground(tcell.ColorRed).Bold(true)
	}
	return r.style(snap.Palette.Alt1, bg)
}

func (r *Renderer) drawParts(v view, at physics.Vec, angle float64, parts []physics.Part, ch rune, st tcell.Style) {
	for _, part := range parts {
		outline := part.Outline()
		if len(outline) == 0 {
			continue
		}
		for i := range outline {
			a := at.Add(outline[i].Rotate(angle))
			b := at.Add(outline[(i+1)%len(outline)].Rotate(angle))
			r.line(v, a, b, ch, st)
		}
	}
}

func (r *Renderer) line(v view, a, b physics.Vec, ch rune, st tcell.Style) {
	steps := max(1, int(a.Dist(b)*v.scale))
	for i := 0; i <= steps; i++ {
		p := a.Add(b.Sub(a).Scale(float64(i) / float64(steps)))
		if x, y, ok := v.cell(p); ok {
			r.screen.SetContent(x, y, ch, nil, st)
		}
	}
}

func (r *Renderer) drawBalls(v view, snap sim.Snapshot, bg string) {
	for _, b := range snap.Balls {
		x, y, ok := v.cell(b.Position)
		if !ok {
			continue
		}
		st := r.style(b.Color, bg)
		ch := '●'
		switch b.State {
		case world.StateEntering:
			ch = '○'
			if b.Stuck {
				st = st.Dim(true)
			}
		case world.StateSelected:
			ch = '★'
			st = st.Bold(true)
		case world.StateEjected:
			ch = '×'
		}
		r.screen.SetContent(x, y, ch, nil, st)
		if b.State == world.StateSelected || b.State == world.StateActive {
			r.text(x+1, y, b.Label, st)
		}
	}
}

func (r *Renderer) drawStatus(snap sim.Snapshot, msg string, cols, rows int, bg string) {
	st := r.style(snap.Palette.MainForeground, bg)
	line := fmt.Sprintf("%s  balls %d/%d (+%d)  anger %s",
		snap.Palette.Name, snap.Active, snap.Capacity, snap.Entering, Gauge(snap.Crank.Anger, 10))
	if snap.Running != "" {
		line += "  " + snap.Running + "…"
	}
	if snap.Last.Found {
		line += "  last: " + snap.Last.Name
	}
	r.text(0, rows-2, clip(line, cols), st)
	if msg == "" {
		msg = "space smack · r roll · f flush · t theme · q quit"
	}
	r.text(0, rows-1, clip(msg, cols), st.Dim(true))
}

func (r *Renderer) text(x, y int, s string, st tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, st)
		x++
	}
}

// Gauge renders anger as a bar of width cells. Values past 1 (a bust)
// fill the bar and mark it.
func Gauge(anger float64, width int) string {
	n := int(math.Round(math.Min(1, math.Max(0, anger)) * float64(width)))
	bar := "[" + strings.Repeat("|", n) + strings.Repeat(" ", width-n) + "]"
	if anger > 1 {
		bar += "!"
	}
	return bar
}

func clip(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:max(0, n)])
}
