package config

import "fmt"

// Environment variables that override the config file.
const (
	EnvUInputPath = "EVSCRIPT_UINPUT_PATH"
	EnvLogLevel   = "EVSCRIPT_LOG_LEVEL"
	EnvChrootDir  = "EVSCRIPT_CHROOT_DIR"
)

// LookupFunc reports the value of an environment variable. os.LookupEnv
// satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from the environment and revalidates.
// Empty values are treated as set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	mapping := map[string]*string{
		EnvUInputPath: &c.UInput.Path,
		EnvLogLevel:   &c.Log.Level,
		EnvChrootDir:  &c.Sandbox.ChrootDir,
	}
	for env, dst := range mapping {
		if val, ok := lookup(env); ok {
			*dst = val
		}
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
