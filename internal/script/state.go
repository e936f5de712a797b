package script

import (
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// DefaultCallStackSize bounds Lua call depth.
const DefaultCallStackSize = 256

// State wraps gopher-lua with the safe library set and the sandbox.
//
// gopher-lua's LState is not goroutine-safe. The mutex guards calls made
// from Go; native functions invoked by Lua must use the LState they are
// handed rather than State methods.
type State struct {
	L *lua.LState

	mu sync.Mutex

	closed bool
}

// NewState creates a new sandboxed Lua state.
func NewState() (*State, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: DefaultCallStackSize,
	})
	state := &State{L: L}

	if err := openSafeLibraries(L); err != nil {
		L.Close()
		return nil, err
	}

	NewSandbox(L).Install()

	return state, nil
}

// openSafeLibraries opens only the libraries that cannot reach the
// outside world. io, os, debug, package and channel stay closed.
func openSafeLibraries(L *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
		{lua.CoroutineLibName, lua.OpenCoroutine},
	}
	for _, lib := range libs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("open %q library: %w", lib.name, err)
		}
	}
	return nil
}

// DoString compiles and runs a chunk. name appears in error messages.
func (s *State) DoString(code, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	return s.doWithRecovery(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
}

// CallFunction calls fn with no arguments and discards its results.
func (s *State) CallFunction(fn *lua.LFunction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	return s.doWithRecovery(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}

	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.L.SetGlobal(name, value)
}

// RegisterFunc registers a Go function as a global Lua function.
func (s *State) RegisterFunc(name string, fn lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.L.SetGlobal(name, s.L.NewFunction(fn))
}

// Close releases the Lua state. Further calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
