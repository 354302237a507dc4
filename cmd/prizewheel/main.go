package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/apemallet/balls/internal/config"
	"github.com/apemallet/balls/internal/names"
	"github.com/apemallet/balls/internal/palette"
	"github.com/apemallet/balls/internal/persist"
	"github.com/apemallet/balls/internal/physics"
	"github.com/apemallet/balls/internal/physics/chipmunk"
	"github.com/apemallet/balls/internal/render"
	"github.com/apemallet/balls/internal/scripting"
	"github.com/apemallet/balls/internal/sim"
	"github.com/apemallet/balls/internal/sound"
	"github.com/apemallet/balls/internal/system"
	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const frameRate = 33 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := max(3, 46-len([]rune(title))-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	v := fmt.Sprint(value)
	dotsLen := max(3, 42-len([]rune(label))-len([]rune(v)))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), v)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main ──────────────────────────────────────────────────────────

func run() error {
	cfgPath := "config/prizewheel.toml"
	if p := os.Getenv("PRIZEWHEEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if len(os.Args) > 1 {
		return runCommand(cfg, log, os.Args[1], os.Args[2:])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Data
	printSection("data")
	pals, err := palette.Load(cfg.Theme.File)
	if err != nil {
		return fmt.Errorf("load palettes: %w", err)
	}
	theme, err := palette.NewTheme(pals, cfg.Theme.Initial)
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	printStat("palettes", len(pals))

	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var nameList []string
	if cfg.Names.File != "" {
		if nameList, err = names.Load(cfg.Names.File); err != nil {
			return fmt.Errorf("load names: %w", err)
		}
	}
	printStat("names", len(nameList))

	var scripts sim.Scripts
	if cfg.Scripting.Enabled {
		eng, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer eng.Close()
		scripts = eng
		printOK("lua scripts loaded")
	}

	// Simulation
	engine := chipmunk.New(physics.Vec{Y: cfg.Sim.Gravity}, cfg.Sim.MaxStep, log)
	s, err := sim.New(*cfg, sim.Deps{
		Engine:  engine,
		Theme:   theme,
		Names:   names.NewSource(nameList, rng),
		Scripts: scripts,
		Rand:    rng,
		Log:     log,
	})
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	printStat("capacity", cfg.Balls.Capacity)

	// Winner archive
	archived := make(chan struct{})
	if cfg.Database.Enabled {
		printSection("database")
		db, err := openDB(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		archive := system.NewArchiveSystem(s.Bus(), func() string { return s.Theme().Current().Name }, 16, log)
		defer archive.Close()
		s.Register(archive)
		go func() {
			defer close(archived)
			archive.Run(ctx, persist.NewWinnerRepo(db))
		}()
		printOK("winner archive on")
	} else {
		close(archived)
	}

	// Sound
	if cfg.Audio.Enabled {
		player := sound.NewPlayer(cfg.Audio, log)
		if err := player.Init(); err != nil {
			// Non-fatal, the wheel runs silent.
			log.Warn("audio init failed", zap.Error(err))
		}
		defer player.Close()
		detach := player.Attach(s.Bus())
		defer detach()
	}

	// Screen
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()

	simCtx, stopSim := context.WithCancel(ctx)
	simDone := make(chan error, 1)
	go func() { simDone <- s.Run(simCtx) }()

	frontErr := frontEnd(ctx, s, screen, log)

	stopSim()
	if err := <-simDone; err != nil {
		log.Error("tick loop", zap.Error(err))
	}
	cancel()
	<-archived
	log.Info("shutdown complete")
	return frontErr
}

// frontEnd draws frames and turns keys into simulation commands until the
// user quits or a signal arrives.
func frontEnd(ctx context.Context, s *sim.Sim, screen tcell.Screen, log *zap.Logger) error {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	// Command results arrive from their own goroutines; handlers on the
	// tick goroutine must never block on this channel.
	msgs := make(chan string, 8)
	notify := func(msg string) {
		select {
		case msgs <- msg:
		default:
		}
	}
	defer s.OnBust(func() { notify("the crank busts!") })()

	r := render.New(screen)
	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()

	msg := ""
	for {
		select {
		case <-ticker.C:
			snap, err := s.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			r.Draw(snap, msg)

		case m := <-msgs:
			msg = m

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if quit := dispatch(ctx, s, render.KeyAction(ev), notify, log); quit {
					return nil
				}
			}

		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// dispatch runs one action. Commands that wait on simulation time run on
// their own goroutine and report through notify.
func dispatch(ctx context.Context, s *sim.Sim, a render.Action, notify func(string), log *zap.Logger) (quit bool) {
	switch a {
	case render.ActionQuit:
		return true
	case render.ActionSmack:
		go func() {
			if err := s.Smack(ctx); err != nil {
				log.Debug("smack", zap.Error(err))
			}
		}()
	case render.ActionRoll:
		notify("rolling…")
		go func() {
			res, err := s.Roll(ctx)
			switch {
			case err != nil:
				notify("roll: " + err.Error())
			case !res.Found:
				notify("no ball in the wheel")
			default:
				notify("winner: " + res.Name)
			}
		}()
	case render.ActionFlush:
		notify("flushing…")
		go func() {
			n, err := s.Flush(ctx)
			if err != nil {
				notify("flush: " + err.Error())
				return
			}
			notify(fmt.Sprintf("flushed %d balls", n))
		}()
	case render.ActionTheme:
		go func() {
			name, err := s.CycleTheme(ctx)
			if err != nil {
				notify("theme: " + err.Error())
				return
			}
			notify("palette " + name)
		}()
	}
	return false
}

func openDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persist.DB, error) {
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(dbCtx, db.Pool, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	printStat("schema version", version)
	return db, nil
}

// runCommand handles the offline subcommands:
//
//	history [days]   print recent winners per day
//	absent <id>      mark an archived winner as not present
//	present <id>     undo absent
func runCommand(cfg *config.Config, log *zap.Logger, name string, args []string) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("%s: database is disabled in config", name)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := persist.NewWinnerRepo(db)

	switch name {
	case "history":
		days := 7
		if len(args) > 0 {
			if days, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("history: days: %w", err)
			}
		}
		entries, err := repo.History(ctx, days, time.Now())
		if err != nil {
			return err
		}
		for _, e := range entries {
			printSection(e.Date.Format("2006-01-02"))
			for _, w := range e.Winners {
				label := w.RevealedAt.Format("15:04") + " " + w.Name
				if !w.Present {
					label += " (absent)"
				}
				printStat(label, w.ID)
			}
		}
		return nil

	case "absent", "present":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <id>", name)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%s: id: %w", name, err)
		}
		if err := repo.MarkPresent(ctx, id, name == "present"); err != nil {
			return err
		}
		printOK(fmt.Sprintf("winner %d marked %s", id, name))
		return nil
	}
	return fmt.Errorf("unknown command %q", name)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// The terminal belongs to the wheel while it runs.
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
