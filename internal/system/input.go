package system

import (
	"time"

	coresys "github.com/apemallet/balls/internal/core/system"
	"go.uber.org/zap"
)

// Command is a mutation requested from outside the tick goroutine. It runs
// on the tick goroutine during the input phase.
type Command func()

// InputSystem drains the command queue, up to maxPerTick commands per tick
// so a burst of key presses cannot stall the simulation. Phase 0 (Input).
type InputSystem struct {
	queue      <-chan Command
	maxPerTick int
	log        *zap.Logger
	processed  uint64
}

func NewInputSystem(queue <-chan Command, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{queue: queue, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd := <-s.queue:
			cmd()
			s.processed++
		default:
			return
		}
	}
	if n := len(s.queue); n > 0 {
		s.log.Debug("command backlog", zap.Int("queued", n))
	}
}

// Processed returns the number of commands run so far.
func (s *InputSystem) Processed() uint64 { return s.processed }
