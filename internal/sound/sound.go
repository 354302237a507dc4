// Package sound plays short tones for simulation notifications. Audio is
// optional: when the speaker cannot be opened every cue is a no-op.
package sound

import (
	"sync"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/core/event"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(44100)

type Cue int

const (
	CueAdmit Cue = iota
	CueReveal
	CueBust
)

func (c Cue) String() string {
	switch c {
	case CueAdmit:
		return "admit"
	case CueReveal:
		return "reveal"
	case CueBust:
		return "bust"
	default:
		return "unknown"
	}
}

type note struct {
	freq float64
	dur  time.Duration
}

var cues = map[Cue][]note{
	CueAdmit:  {{660, 40 * time.Millisecond}},
	CueReveal: {{523.25, 120 * time.Millisecond}, {659.25, 120 * time.Millisecond}, {783.99, 240 * time.Millisecond}},
	CueBust:   {{220, 150 * time.Millisecond}, {110, 300 * time.Millisecond}},
}

// Player mixes cues into the speaker.
type Player struct {
	mu     sync.Mutex
	volume float64
	out    func(beep.Streamer) // nil until Init succeeds
	log    *zap.Logger
}

func NewPlayer(cfg config.AudioConfig, log *zap.Logger) *Player {
	return &Player{volume: cfg.Volume, log: log}
}

// Init opens the speaker. A failure leaves the player silent.
func (p *Player) Init() error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	p.mu.Lock()
	p.out = func(s beep.Streamer) { speaker.Play(s) }
	p.mu.Unlock()
	return nil
}

// Close silences the player and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	p.out = nil
	speaker.Clear()
	speaker.Close()
}

// Play queues c. It never blocks on audio output.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return
	}
	s, err := p.streamer(c)
	if err != nil {
		p.log.Debug("cue dropped", zap.Stringer("cue", c), zap.Error(err))
		return
	}
	out(s)
}

func (p *Player) streamer(c Cue) (beep.Streamer, error) {
	notes := cues[c]
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		tone, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(sampleRate.N(n.dur), tone))
	}
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: p.volume - 1}, nil
}

// Attach plays cues for admissions, reveals and busts published on bus.
// The returned func detaches.
func (p *Player) Attach(bus *event.Bus) (detach func()) {
	unsubs := []func(){
		event.Subscribe(bus, func(event.BallAdmitted) { p.Play(CueAdmit) }),
		event.Subscribe(bus, func(event.WinnerRevealed) { p.Play(CueReveal) }),
		event.Subscribe(bus, func(event.CrankBust) { p.Play(CueBust) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
