package transform

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormdrain/internal/bounds"
)

// LuaFuncName is the global function a transform script must define. It
// receives min and max and returns the new min and max:
//
//	function transform(min, max)
//	  return min * 1000, max * 1000
//	end
const LuaFuncName = "transform"

// DefaultLuaTimeout bounds a single call into a script.
const DefaultLuaTimeout = 100 * time.Millisecond

// Lua is a range transform implemented by a sandboxed Lua script.
//
// A Lua value owns one interpreter. Calls are serialized, so one value
// can be shared by several filters.
type Lua struct {
	mu      sync.Mutex
	L       *lua.LState
	fn      lua.LValue
	timeout time.Duration
	closed  bool
}

// LuaOption configures a Lua transform.
type LuaOption func(*Lua)

// WithTimeout limits how long a single call may run.
func WithTimeout(d time.Duration) LuaOption {
	return func(l *Lua) {
		l.timeout = d
	}
}

// NewLua compiles src and looks up its transform function.
func NewLua(src string, opts ...LuaOption) (*Lua, error) {
	l := &Lua{timeout: DefaultLuaTimeout}
	for _, opt := range opts {
		opt(l)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	l.L = L

	if err := l.doString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("load transform script: %w", err)
	}

	fn := L.GetGlobal(LuaFuncName)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoTransformFunc
	}
	l.fn = fn
	return l, nil
}

// openSafeLibraries opens base, table, string and math, then removes the
// base functions that can load code from outside the script.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (l *Lua) doString(src string) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	l.L.SetContext(ctx)
	defer l.L.RemoveContext()

	return recoverLua(func() error {
		return l.L.DoString(src)
	})
}

// Apply runs the script on r. The unset range is returned unchanged
// without calling the script.
func (l *Lua) Apply(r bounds.Range) (bounds.Range, error) {
	if !r.IsSet() {
		return r, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return bounds.Range{}, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	l.L.SetContext(ctx)
	defer l.L.RemoveContext()

	top := l.L.GetTop()
	err := recoverLua(func() error {
		return l.L.CallByParam(lua.P{
			Fn:      l.fn,
			NRet:    2,
			Protect: true,
		}, lua.LNumber(r.Min), lua.LNumber(r.Max))
	})
	if err != nil {
		l.L.SetTop(top)
		return bounds.Range{}, fmt.Errorf("lua transform: %w", err)
	}

	lo, hi := l.L.Get(-2), l.L.Get(-1)
	l.L.SetTop(top)

	loN, ok1 := lo.(lua.LNumber)
	hiN, ok2 := hi.(lua.LNumber)
	if !ok1 || !ok2 {
		return bounds.Range{}, fmt.Errorf("%w: got %s, %s", ErrBadResult, lo.Type(), hi.Type())
	}
	return bounds.NewRange(float64(loN), float64(hiN)), nil
}

// Func returns Apply as a Func.
func (l *Lua) Func() Func {
	return l.Apply
}

// Close releases the interpreter.
func (l *Lua) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.L.Close()
	l.closed = true
	return nil
}

func recoverLua(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
