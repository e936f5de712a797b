// Package script hosts the user's Lua program.
//
// The host gives a script exactly three native calls and nothing else that
// touches the outside world:
//
//	device_name(dev)         -> string
//	poll_next({dev, ...})    -> {{kind=, code=, value=}, ...}
//	emit(out, {kind=, code=, value=}) -> boolean
//
// Devices and the output are opaque handles. A script receives them as the
// globals evdevs (an array of device handles in command-line order) and
// uinput (the output handle) and cannot create its own.
//
// A bundled support library is loaded into the same global namespace
// before the script. It defines the EV, SYN, KEY, BTN, REL and ABS code
// tables plus a handful of pure-Lua helpers. The script must define a
// global function main taking no parameters; the host calls it once and
// returns when it returns.
//
// Basic usage:
//
//	host, err := script.NewHost(devices, relay, script.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer host.Close()
//
//	err = host.Run(source, "remap.lua")
//
// Failures of the devices or the output device inside a native call are
// fatal. They are handed to the host's FatalHandler, which by default logs
// and exits, so a script cannot swallow them with pcall.
package script
