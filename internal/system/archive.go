package system

import (
	"context"
	"time"

	"github.com/apemallet/balls/internal/core/event"
	coresys "github.com/apemallet/balls/internal/core/system"
	"github.com/apemallet/balls/internal/persist"
	"go.uber.org/zap"
)

// WinnerRecorder stores winner batches; *persist.WinnerRepo implements it.
type WinnerRecorder interface {
	Record(ctx context.Context, rows []persist.WinnerRow) error
}

// ArchiveSystem collects revealed winners on the tick goroutine and hands
// them in batches to Run, which writes them off the tick goroutine so a
// slow database never stalls the wheel. Phase 5 (Persist).
type ArchiveSystem struct {
	pending []persist.WinnerRow
	out     chan []persist.WinnerRow
	palette func() string
	now     func() time.Time
	log     *zap.Logger
	unsub   func()
}

// NewArchiveSystem subscribes to reveals. palette names the palette shown
// at reveal time.
func NewArchiveSystem(bus *event.Bus, palette func() string, queueSize int, log *zap.Logger) *ArchiveSystem {
	s := &ArchiveSystem{
		out:     make(chan []persist.WinnerRow, max(queueSize, 1)),
		palette: palette,
		now:     time.Now,
		log:     log,
	}
	s.unsub = event.Subscribe(bus, s.onReveal)
	return s
}

func (s *ArchiveSystem) onReveal(e event.WinnerRevealed) {
	s.pending = append(s.pending, persist.WinnerRow{
		BallID:     int64(e.BallID),
		Name:       e.Name,
		Palette:    s.palette(),
		Present:    true,
		RevealedAt: s.now(),
	})
}

func (s *ArchiveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *ArchiveSystem) Update(_ time.Duration) {
	if len(s.pending) == 0 {
		return
	}
	select {
	case s.out <- s.pending:
		s.pending = nil
	default:
		// Writer is behind; keep the batch and retry next tick.
		s.log.Debug("winner archive backlog", zap.Int("pending", len(s.pending)))
	}
}

// Pending returns the number of winners not yet handed to the writer.
func (s *ArchiveSystem) Pending() int { return len(s.pending) }

// Run writes batches until ctx is done, then writes whatever batches are
// still queued with a short grace timeout.
func (s *ArchiveSystem) Run(ctx context.Context, rec WinnerRecorder) {
	for {
		select {
		case batch := <-s.out:
			s.write(ctx, rec, batch)
		case <-ctx.Done():
			grace, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			for {
				select {
				case batch := <-s.out:
					s.write(grace, rec, batch)
				default:
					return
				}
			}
		}
	}
}

func (s *ArchiveSystem) write(ctx context.Context, rec WinnerRecorder, batch []persist.WinnerRow) {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rec.Record(wctx, batch); err != nil {
		s.log.Error("archive winners", zap.Int("count", len(batch)), zap.Error(err))
		return
	}
	s.log.Debug("winners archived", zap.Int("count", len(batch)))
}

// Close stops collecting reveals.
func (s *ArchiveSystem) Close() { s.unsub() }
