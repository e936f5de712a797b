package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evscript/internal/device"
	"github.com/dshills/evscript/internal/event"
	"github.com/dshills/evscript/internal/output"
)

// Native function names.
const (
	FuncDeviceName = "device_name"
	FuncPollNext   = "poll_next"
	FuncEmit       = "emit"
)

func (h *Host) natives() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		FuncDeviceName: h.deviceName,
		FuncPollNext:   h.pollNext,
		FuncEmit:       h.emit,
	}
}

// deviceName implements device_name(dev) -> string.
func (h *Host) deviceName(L *lua.LState) int {
	h.checkAlive(L)
	dev := h.checkDevice(L, 1)
	L.Push(lua.LString(dev.Name()))
	return 1
}

// pollNext implements poll_next({dev, ...}) -> {event, ...}. It blocks
// until one of the devices has events and returns that device's batch.
func (h *Host) pollNext(L *lua.LState) int {
	h.checkAlive(L)
	tbl := L.CheckTable(1)

	n := tbl.Len()
	if n == 0 {
		L.ArgError(1, "expected at least one device")
		return 0
	}
	devs := make([]*device.Device, n)
	for i := 1; i <= n; i++ {
		e, ok := h.handles.lookup(tbl.RawGetInt(i), KindDevice)
		if !ok {
			L.ArgError(1, fmt.Sprintf("element %d is not a device", i))
			return 0
		}
		devs[i-1] = e.device
	}

	batch, err := device.Next(devs)
	if err != nil {
		h.fail(L, FuncPollNext, err)
		return 0
	}
	L.Push(batchToTable(L, batch))
	return 1
}

// emit implements emit(out, record) -> boolean.
func (h *Host) emit(L *lua.LState) int {
	h.checkAlive(L)
	if _, ok := h.handles.lookup(L.Get(1), KindOutput); !ok {
		L.ArgError(1, "expected output handle")
		return 0
	}

	ok, err := h.relay.Emit(toGoValue(L.Get(2)))
	if err != nil {
		h.fail(L, FuncEmit, err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (h *Host) checkDevice(L *lua.LState, n int) *device.Device {
	e, ok := h.handles.lookup(L.Get(n), KindDevice)
	if !ok {
		L.ArgError(n, "expected device handle")
		return nil
	}
	return e.device
}

// checkAlive refuses every native call after a fatal failure, so a
// script that caught the first error cannot keep going.
func (h *Host) checkAlive(L *lua.LState) {
	if h.err != nil {
		L.RaiseError("%s", h.err.Error())
	}
}

// fail records a fatal failure, hands it to the fatal handler and, if the
// handler returns, raises it as a Lua error.
func (h *Host) fail(L *lua.LState, fn string, err error) {
	cerr := &CallError{Func: fn, Err: err}
	if h.err == nil {
		h.err = cerr
	}
	h.fatal(cerr)
	L.RaiseError("%s", cerr.Error())
}

func batchToTable(L *lua.LState, batch event.Batch) *lua.LTable {
	arr := L.CreateTable(len(batch), 0)
	for i, evt := range batch {
		t := L.CreateTable(0, 3)
		t.RawSetString(output.FieldKind, lua.LNumber(evt.Kind))
		t.RawSetString(output.FieldCode, lua.LNumber(evt.Code))
		t.RawSetString(output.FieldValue, lua.LNumber(evt.Value))
		arr.RawSetInt(i+1, t)
	}
	return arr
}

// toGoValue converts a Lua value to a Go value. Tables with keys 1..n
// become slices, other tables maps keyed by string. Functions and cycles
// become nil.
func toGoValue(lv lua.LValue) any {
	return toGoValueWithVisited(lv, make(map[*lua.LTable]bool))
}

func toGoValueWithVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN, count := 0, 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				maxN = max(maxN, n)
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = toGoValueWithVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoValueWithVisited(v, visited)
	})
	return m
}
