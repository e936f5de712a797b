package script

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/evscript/internal/device"
	"github.com/dshills/evscript/internal/output"
)

// Globals bound before the script loads.
const (
	GlobalDevices = "evdevs"
	GlobalOutput  = "uinput"
	EntryPoint    = "main"
)

const supportLibName = "stdlib.lua"

//go:embed stdlib.lua
var supportLib string

// FatalHandler receives failures that must end the process.
type FatalHandler func(err error)

// Host runs one script against a fixed device set and output relay.
// All of its methods must be called from one goroutine.
type Host struct {
	state   *State
	devices []*device.Device
	relay   *output.Relay
	handles *handleTable
	log     *zap.SugaredLogger
	fatal   FatalHandler

	err error
	ran bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// WithFatalHandler replaces the default handler, which logs and exits
// with status 1.
func WithFatalHandler(fn FatalHandler) Option {
	return func(h *Host) {
		h.fatal = fn
	}
}

// NewHost prepares a sandboxed state with the native calls, the support
// library and the evdevs and uinput bindings installed.
func NewHost(devs []*device.Device, relay *output.Relay, opts ...Option) (*Host, error) {
	if len(devs) == 0 {
		return nil, device.ErrNoDevices
	}
	if relay == nil {
		return nil, errors.New("script: nil output relay")
	}

	h := &Host{
		devices: devs,
		relay:   relay,
		handles: newHandleTable(),
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.fatal == nil {
		h.fatal = func(err error) {
			h.log.Errorw("fatal error in script host", "error", err)
			_ = h.log.Sync()
			os.Exit(1)
		}
	}

	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("create lua state: %w", err)
	}
	h.state = state

	if err := h.install(); err != nil {
		state.Close()
		return nil, err
	}
	return h, nil
}

func (h *Host) install() error {
	for name, fn := range h.natives() {
		h.state.RegisterFunc(name, fn)
	}
	installConstants(h.state.L)

	if err := h.state.DoString(supportLib, supportLibName); err != nil {
		return fmt.Errorf("load support library: %w", err)
	}

	L := h.state.L
	devs := L.CreateTable(len(h.devices), 0)
	for i, dev := range h.devices {
		devs.RawSetInt(i+1, h.handles.wrap(L, KindDevice, dev))
	}
	h.state.SetGlobal(GlobalDevices, devs)
	h.state.SetGlobal(GlobalOutput, h.handles.wrap(L, KindOutput, nil))
	return nil
}

// Run loads source under name, then calls its main function and returns
// when main does. A host runs at most one script.
func (h *Host) Run(source, name string) error {
	if h.ran {
		return ErrAlreadyRan
	}
	h.ran = true

	if err := h.state.DoString(source, name); err != nil {
		return h.result(fmt.Errorf("load %s: %w", name, err))
	}

	main, err := h.entryPoint()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	h.log.Debugw("calling main", "script", name, "devices", len(h.devices))
	if err := h.state.CallFunction(main); err != nil {
		return h.result(fmt.Errorf("%s: %w", name, err))
	}
	return h.result(nil)
}

// result prefers a recorded fatal failure over whatever Lua made of it.
func (h *Host) result(err error) error {
	if h.err != nil {
		return h.err
	}
	return err
}

func (h *Host) entryPoint() (*lua.LFunction, error) {
	v := h.state.GetGlobal(EntryPoint)
	fn, ok := v.(*lua.LFunction)
	if !ok || fn.IsG {
		return nil, fmt.Errorf("%w (main is %s)", ErrNoEntryPoint, v.Type())
	}
	if n := fn.Proto.NumParameters; n != 0 {
		return nil, fmt.Errorf("%w (main declares %d)", ErrEntryPointArity, n)
	}
	return fn, nil
}

// Close releases the Lua state. Devices and the relay belong to the caller.
func (h *Host) Close() error {
	return h.state.Close()
}
