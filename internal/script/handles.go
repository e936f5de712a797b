package script

import (
	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evscript/internal/device"
)

// Kind names what a handle refers to.
type Kind string

// Handle kinds.
const (
	KindDevice Kind = "device"
	KindOutput Kind = "output"
)

// lockedMetatable is what getmetatable returns for a handle.
const lockedMetatable = "locked"

type handleEntry struct {
	kind   Kind
	device *device.Device
}

// handleTable maps the ids carried by Lua userdata to host resources.
// The id is the only thing stored in the userdata, so script code has
// nothing to dereference.
type handleTable struct {
	entries    map[uuid.UUID]handleEntry
	metatables map[Kind]*lua.LTable
}

func newHandleTable() *handleTable {
	return &handleTable{
		entries:    make(map[uuid.UUID]handleEntry),
		metatables: make(map[Kind]*lua.LTable),
	}
}

// wrap registers a resource and returns its userdata.
func (t *handleTable) wrap(L *lua.LState, kind Kind, dev *device.Device) *lua.LUserData {
	id := uuid.New()
	t.entries[id] = handleEntry{kind: kind, device: dev}

	ud := L.NewUserData()
	ud.Value = id
	L.SetMetatable(ud, t.metatable(L, kind))
	return ud
}

func (t *handleTable) metatable(L *lua.LState, kind Kind) *lua.LTable {
	if mt, ok := t.metatables[kind]; ok {
		return mt
	}
	mt := L.NewTable()
	L.SetField(mt, "__metatable", lua.LString(lockedMetatable))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(kind))
		return 1
	}))
	t.metatables[kind] = mt
	return mt
}

// lookup resolves v to a registered handle of the given kind.
func (t *handleTable) lookup(v lua.LValue, kind Kind) (handleEntry, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return handleEntry{}, false
	}
	id, ok := ud.Value.(uuid.UUID)
	if !ok {
		return handleEntry{}, false
	}
	e, ok := t.entries[id]
	if !ok || e.kind != kind {
		return handleEntry{}, false
	}
	return e, true
}

func (t *handleTable) len() int {
	return len(t.entries)
}
