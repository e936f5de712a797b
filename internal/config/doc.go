// Package config loads evscript's settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← EVSCRIPT_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← $XDG_CONFIG_HOME/evscript/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// A missing config file is not an error. Unknown keys in a config file are.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//	    return err
//	}
//
// Example file:
//
//	[log]
//	level = "debug"
//
//	[uinput]
//	path = "/dev/uinput"
//	name = "evscript remapper"
//	vendor = 69
//
//	[sandbox]
//	chroot_dir = "/dev/input"
package config
