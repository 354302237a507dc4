package render

import (
	"strings"
	"testing"

	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/roll"
	"github.com/apemallet/balls/internal/sim"
	"github.com/apemallet/balls/internal/world"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(cols, rows)
	t.Cleanup(screen.Fini)
	return screen
}

func row(screen tcell.Screen, y int) string {
	cols, _ := screen.Size()
	var sb strings.Builder
	for x := 0; x < cols; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(ch)
	}
	return sb.String()
}

func testSnapshot() sim.Snapshot {
	area := world.Area{Width: 100, Height: 100, Center: physics.Vec{X: 50, Y: 50}, Radius: 40, Planck: 0.1}
	return sim.Snapshot{
		Area:    area,
		Palette: palette.Palette{Name: "day", MainForeground: "#101010", Alt1: "#808080"},
		Balls: []sim.Ball{
			{BallView: world.BallView{ID: 1, State: world.StateActive, Position: physics.Vec{X: 50, Y: 80}, Color: "#aa0000"}, Label: "AL"},
			{BallView: world.BallView{ID: 2, State: world.StateSelected, Position: physics.Vec{X: 20, Y: 40}, Color: "#00aa00"}, Label: "GH"},
			{BallView: world.BallView{ID: 3, State: world.StateEntering, Position: physics.Vec{X: 50, Y: -5}}},
		},
		Wheel:    sim.Wheel{Center: area.Center, Radius: 40, Color: "#101010"},
		Capacity: 3,
		Active:   1,
		Entering: 1,
		Crank:    sim.Crank{Anger: 0.5},
		Last:     roll.Result{BallID: 2, Name: "Grace Hopper", Found: true},
	}
}

func TestKeyAction(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want Action
	}{
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), ActionSmack},
		{tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), ActionRoll},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), ActionRoll},
		{tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone), ActionFlush},
		{tcell.NewEventKey(tcell.KeyRune, 't', tcell.ModNone), ActionTheme},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionQuit},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionQuit},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionNone},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, KeyAction(c.ev), c.ev.Name())
	}
}

func TestGauge(t *testing.T) {
	assert.Equal(t, "[    ]", Gauge(0, 4))
	assert.Equal(t, "[||  ]", Gauge(0.5, 4))
	assert.Equal(t, "[||||]", Gauge(1, 4))
	assert.Equal(t, "[||||]!", Gauge(10, 4))
	assert.Equal(t, "[    ]", Gauge(-1, 4))
}

func TestDraw(t *testing.T) {
	screen := newScreen(t, 100, 52)
	New(screen).Draw(testSnapshot(), "")

	// scale 1, rows halved
	ch, _, st, _ := screen.GetContent(50, 40)
	assert.Equal(t, '●', ch)
	fg, _, _ := st.Decompose()
	assert.Equal(t, tcell.GetColor("#aa0000"), fg)
	assert.Equal(t, "AL", string([]rune(row(screen, 40))[51:53]))

	ch, _, _, _ = screen.GetContent(20, 20)
	assert.Equal(t, '★', ch)

	ch, _, _, _ = screen.GetContent(90, 25)
	assert.Equal(t, '·', ch, "ring passes through the rightmost point")

	status := row(screen, 50)
	assert.Contains(t, status, "day")
	assert.Contains(t, status, "balls 1/3 (+1)")
	assert.Contains(t, status, "[|||||     ]")
	assert.Contains(t, status, "last: Grace Hopper")
	assert.Contains(t, row(screen, 51), "r roll")
}

func TestDraw_MessageAndTinyScreen(t *testing.T) {
	screen := newScreen(t, 30, 2)
	New(screen).Draw(testSnapshot(), "rolling")
	assert.True(t, strings.HasPrefix(row(screen, 1), "rolling"))
	assert.True(t, strings.HasPrefix(row(screen, 0), "day"))
}
