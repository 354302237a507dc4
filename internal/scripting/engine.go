package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apemallet/balls/internal/config"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable wheel formulas.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Core formulas first, then optional overrides.
	for _, sub := range []string{"core", "local"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// SpinContext is the input of calc_spin_target.
type SpinContext struct {
	Anger   float64
	Idle    float64
	Gain    float64
	Busting bool
}

// FallbackSpin is the resting target used without a script: idle plus
// anger scaled by gain.
func FallbackSpin(ctx SpinContext) float64 {
	return ctx.Idle + ctx.Anger*ctx.Gain
}

// SpinTarget calls the Lua calc_spin_target function.
func (e *Engine) SpinTarget(ctx SpinContext) float64 {
	fn := e.vm.GetGlobal("calc_spin_target")
	if fn == lua.LNil {
		return FallbackSpin(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("anger", lua.LNumber(ctx.Anger))
	t.RawSetString("idle", lua.LNumber(ctx.Idle))
	t.RawSetString("gain", lua.LNumber(ctx.Gain))
	t.RawSetString("busting", lua.LBool(ctx.Busting))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_spin_target error", zap.Error(err))
		return FallbackSpin(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_spin_target returned non-number", zap.String("type", result.Type().String()))
		return FallbackSpin(ctx)
	}
	return float64(n)
}

// RollPhases calls the Lua roll_phases function, which may replace the
// configured roll phases. defaults are returned when the function is
// missing or its result is unusable.
func (e *Engine) RollPhases(defaults []config.PhaseConfig) []config.PhaseConfig {
	fn := e.vm.GetGlobal("roll_phases")
	if fn == lua.LNil {
		return defaults
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		e.log.Error("lua roll_phases error", zap.Error(err))
		return defaults
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua roll_phases returned non-table")
		return defaults
	}

	var phases []config.PhaseConfig
	for i := 1; i <= rt.Len(); i++ {
		pt, ok := rt.RawGetInt(i).(*lua.LTable)
		if !ok {
			e.log.Error("lua roll_phases entry is not a table", zap.Int("index", i))
			return defaults
		}
		p := config.PhaseConfig{
			Name:     lStr(pt, "name"),
			Target:   lFloat(pt, "target"),
			Idle:     lua.LVAsBool(pt.RawGetString("idle")),
			Duration: time.Duration(lFloat(pt, "seconds") * float64(time.Second)),
		}
		if p.Duration <= 0 {
			e.log.Error("lua roll_phases entry needs positive seconds", zap.Int("index", i))
			return defaults
		}
		phases = append(phases, p)
	}
	if len(phases) == 0 {
		return defaults
	}
	return phases
}

// lFloat reads a numeric field from a Lua table.
func lFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
