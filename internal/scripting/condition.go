package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/KentRRhodes/fafo/internal/game/stats"
)

// ConditionSource compiles Lua boolean expressions into stat-effect
// conditions. Each compiled condition owns a sandboxed VM guarded by a
// mutex, so conditions are safe for concurrent evaluation.
type ConditionSource struct {
	logger *zap.Logger
}

// NewConditionSource creates a ConditionSource.
//
// Precondition: logger must be non-nil.
func NewConditionSource(logger *zap.Logger) *ConditionSource {
	return &ConditionSource{logger: logger}
}

// Compile turns expr into a stats.Condition. The expression sees one
// function, stat(name), returning the entity's base value for that stat
// (nil when undefined), and must evaluate to a boolean.
//
// Example: `stat("vitality") < 5 and stat("power") >= 2`
//
// Precondition: expr must be non-empty.
// Postcondition: Returns a condition that never panics; evaluation errors
// are returned to the effect engine, which treats the effect as inapplicable.
func (s *ConditionSource) Compile(name, expr string) (stats.Condition, error) {
	L := newSandboxedState()

	fn, err := L.LoadString("return " + expr)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("compiling condition %q: %w", name, err)
	}

	var mu sync.Mutex
	return func(e stats.Entity) (bool, error) {
		mu.Lock()
		defer mu.Unlock()

		L.SetGlobal("stat", L.NewFunction(func(L *lua.LState) int {
			statName := L.CheckString(1)
			if v, ok := e.BaseStat(statName); ok {
				L.Push(lua.LNumber(v))
			} else {
				L.Push(lua.LNil)
			}
			return 1
		}))

		L.Push(fn)
		if err := L.PCall(0, 1, nil); err != nil {
			s.logger.Debug("condition evaluation failed",
				zap.String("condition", name),
				zap.Error(err),
			)
			return false, fmt.Errorf("evaluating condition %q: %w", name, err)
		}

		ret := L.Get(-1)
		L.Pop(1)

		b, ok := ret.(lua.LBool)
		if !ok {
			return false, fmt.Errorf("condition %q returned %s, want boolean", name, ret.Type())
		}
		return bool(b), nil
	}, nil
}
