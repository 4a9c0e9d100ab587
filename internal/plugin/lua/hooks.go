// Package lua runs user hook scripts in a sandboxed interpreter.
//
// A hook script may define two functions:
//
//	on_record(filetype, sequence, keys)
//	  Called before a sequence is recorded. Return a string to
//	  rewrite the filetype, false to drop the sequence, or nil to
//	  record it unchanged.
//
//	report_note()
//	  Called when an analysis report is generated. The returned
//	  string is appended to the analysis prompt.
//
// The sandbox opens only the base, table, string, and math libraries
// and strips the loaders (dofile, loadfile, load, loadstring). A hook
// that raises an error is disabled for the rest of the session.
package lua

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// WarnFunc receives hook failures.
type WarnFunc func(hook string, err error)

// Hooks is a loaded hook script. The zero value (and a nil *Hooks)
// behaves as a script that defines no hooks.
type Hooks struct {
	mu sync.Mutex
	L  *lua.LState

	onRecord   lua.LValue
	reportNote lua.LValue
	disabled   map[string]bool

	warn WarnFunc
}

// Load reads and runs a hook script. An empty path returns nil Hooks
// and no error.
func Load(path string, warn WarnFunc) (*Hooks, error) {
	if path == "" {
		return nil, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lua: read hook script: %w", err)
	}
	return LoadString(string(src), warn)
}

// LoadString runs a hook script from source.
func LoadString(src string, warn WarnFunc) (*Hooks, error) {
	if warn == nil {
		warn = func(string, error) {}
	}

	L, err := newSandboxedState()
	if err != nil {
		return nil, err
	}

	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("lua: hook script: %w", err)
	}

	return &Hooks{
		L:          L,
		onRecord:   L.GetGlobal("on_record"),
		reportNote: L.GetGlobal("report_note"),
		disabled:   make(map[string]bool),
		warn:       warn,
	}, nil
}

// newSandboxedState builds an interpreter with only the safe libraries.
func newSandboxedState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("lua: open %s: %w", lib.name, err)
		}
	}

	// Base brings the script loaders along; hooks must not load code
	// from disk.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L, nil
}

// OnRecord runs the on_record hook. It returns the filetype to record
// under and whether the sequence should be recorded at all. Without a
// hook the inputs pass through unchanged.
func (h *Hooks) OnRecord(filetype, sequence string, keys int) (string, bool) {
	if h == nil {
		return filetype, true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	fn, ok := h.callable("on_record", h.onRecord)
	if !ok {
		return filetype, true
	}

	err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(filetype), lua.LString(sequence), lua.LNumber(keys))
	if err != nil {
		h.disable("on_record", err)
		return filetype, true
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)

	switch v := ret.(type) {
	case lua.LString:
		return string(v), true
	case lua.LBool:
		if !v {
			return filetype, false
		}
	}
	return filetype, true
}

// ReportNote runs the report_note hook and returns its string, or ""
// when no hook is defined or it fails.
func (h *Hooks) ReportNote() string {
	if h == nil {
		return ""
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	fn, ok := h.callable("report_note", h.reportNote)
	if !ok {
		return ""
	}

	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		h.disable("report_note", err)
		return ""
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)

	if s, ok := ret.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// Close releases the interpreter.
func (h *Hooks) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.L != nil {
		h.L.Close()
		h.L = nil
	}
}

// callable returns the hook function if it exists, is a function, and
// has not been disabled by a previous error.
func (h *Hooks) callable(name string, v lua.LValue) (*lua.LFunction, bool) {
	if h.L == nil || h.disabled[name] {
		return nil, false
	}
	fn, ok := v.(*lua.LFunction)
	return fn, ok
}

func (h *Hooks) disable(name string, err error) {
	h.disabled[name] = true
	h.warn(name, err)
}
