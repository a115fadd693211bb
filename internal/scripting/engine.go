// Package scripting hosts the Lua damage-formula collaborator. Go gathers the
// combat context; Lua owns the arithmetic, so formulas can be tuned without a
// rebuild. When a script or function is missing, built-in fallbacks keep
// combat running.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree. A missing directory is not an error: the engine falls back
// to built-in formulas.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "combat"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEmptyEngine creates an engine with no scripts loaded; every call takes
// the fallback path. Test seam.
func NewEmptyEngine(log *zap.Logger) *Engine {
	return &Engine{vm: lua.NewState(lua.Options{SkipOpenLibs: false}), log: log}
}

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

// MonsterDamageContext is pre-packed input for calc_monster_damage.
type MonsterDamageContext struct {
	BaseDamage    int
	Multiplier    float64
	AttackerLevel int
}

// PlayerDamageContext is pre-packed input for calc_player_damage_taken.
type PlayerDamageContext struct {
	BaseDamage     int
	Armor          int
	SkillReduction int
	IsMagic        bool
}

// CalcMonsterDamage returns the final damage a monster deals. Never negative.
func (e *Engine) CalcMonsterDamage(ctx MonsterDamageContext) int {
	fn := e.vm.GetGlobal("calc_monster_damage")
	if fn == lua.LNil {
		return fallbackMonsterDamage(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("multiplier", lua.LNumber(ctx.Multiplier))
	t.RawSetString("level", lua.LNumber(ctx.AttackerLevel))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("calc_monster_damage failed", zap.Error(err))
		return fallbackMonsterDamage(ctx)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return clampDamage(ret)
}

// CalcPlayerDamageTaken returns the final damage the player takes after
// equipment and skill mitigation. Never negative.
func (e *Engine) CalcPlayerDamageTaken(ctx PlayerDamageContext) int {
	fn := e.vm.GetGlobal("calc_player_damage_taken")
	if fn == lua.LNil {
		return fallbackPlayerDamage(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("armor", lua.LNumber(ctx.Armor))
	t.RawSetString("skill_reduction", lua.LNumber(ctx.SkillReduction))
	t.RawSetString("is_magic", lua.LBool(ctx.IsMagic))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("calc_player_damage_taken failed", zap.Error(err))
		return fallbackPlayerDamage(ctx)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return clampDamage(ret)
}

func clampDamage(v lua.LValue) int {
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0
	}
	d := int(n)
	if d < 0 {
		return 0
	}
	return d
}

func fallbackMonsterDamage(ctx MonsterDamageContext) int {
	d := int(float64(ctx.BaseDamage) * ctx.Multiplier)
	if d < 0 {
		return 0
	}
	return d
}

func fallbackPlayerDamage(ctx PlayerDamageContext) int {
	d := ctx.BaseDamage - ctx.SkillReduction
	if !ctx.IsMagic {
		d -= ctx.Armor
	}
	if d < 0 {
		return 0
	}
	return d
}
