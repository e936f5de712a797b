package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/evscript/internal/logging"
	"github.com/dshills/evscript/internal/privilege"
	"github.com/dshills/evscript/internal/uinput"
)

// FileName is the config file looked up in the XDG config directories.
const FileName = "evscript/config.toml"

// Config holds all evscript settings.
type Config struct {
	Log     LogConfig     `toml:"log"`
	UInput  UInputConfig  `toml:"uinput"`
	Sandbox SandboxConfig `toml:"sandbox"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// UInputConfig configures the synthetic output device.
type UInputConfig struct {
	Path    string `toml:"path"`
	Name    string `toml:"name"`
	BusType uint16 `toml:"bus_type"`
	Vendor  uint16 `toml:"vendor"`
	Product uint16 `toml:"product"`
	Version uint16 `toml:"version"`
}

// SandboxConfig configures the privilege reduction.
type SandboxConfig struct {
	ChrootDir string `toml:"chroot_dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	id := uinput.DefaultConfig()
	return &Config{
		Log: LogConfig{Level: "info"},
		UInput: UInputConfig{
			Path:    uinput.DefaultPath,
			Name:    id.Name,
			BusType: id.BusType,
			Vendor:  id.Vendor,
			Product: id.Product,
			Version: id.Version,
		},
		Sandbox: SandboxConfig{ChrootDir: privilege.DefaultRootDir},
	}
}

// Load reads the config file at path over the defaults. An empty path
// searches the XDG config directories; finding nothing there yields the
// defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := xdg.SearchConfigFile(FileName)
		if err != nil {
			return Default(), nil
		}
		path = found
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	defer f.Close()

	return parse(path, f)
}

// LoadFromReader reads configuration from an io.Reader over the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	return parse("<reader>", r)
}

func parse(source string, r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		msg := err.Error()
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			msg = fmt.Sprintf("line %d, column %d: %s", row, col, derr.Error())
		}
		return nil, &ParseError{Path: source, Message: msg, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.UInput.Path == "" {
		return fmt.Errorf("%w: uinput.path is empty", ErrInvalidValue)
	}
	if c.Sandbox.ChrootDir == "" {
		return fmt.Errorf("%w: sandbox.chroot_dir is empty", ErrInvalidValue)
	}
	if _, ok := logging.LookupLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	if err := c.Identity().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// Identity returns the output device identity.
func (c *Config) Identity() uinput.Config {
	return uinput.Config{
		Name:    c.UInput.Name,
		BusType: c.UInput.BusType,
		Vendor:  c.UInput.Vendor,
		Product: c.UInput.Product,
		Version: c.UInput.Version,
	}
}
