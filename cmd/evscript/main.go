// Package main is the entry point for evscript.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/evscript/internal/config"
	"github.com/dshills/evscript/internal/device"
	"github.com/dshills/evscript/internal/logging"
	"github.com/dshills/evscript/internal/output"
	"github.com/dshills/evscript/internal/privilege"
	"github.com/dshills/evscript/internal/script"
	"github.com/dshills/evscript/internal/uinput"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// stdinName selects standard input as the script source.
const stdinName = "-"

type options struct {
	File       string
	Devices    deviceList
	ConfigPath string
	LogLevel   string
}

// deviceList collects repeated -d/-device flags in order.
type deviceList []string

func (d *deviceList) String() string {
	return strings.Join(*d, ",")
}

func (d *deviceList) Set(path string) error {
	*d = append(*d, path)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if len(opts.Devices) == 0 {
		fmt.Fprintln(os.Stderr, "No devices provided, exiting. Run with -h to see usage info.")
		return 1
	}

	source, name, err := readScript(opts.File, log)
	if err != nil {
		log.Errorw("cannot read script", "file", opts.File, "error", err)
		return 1
	}

	devs, err := openDevices(opts.Devices, log)
	if err != nil {
		log.Errorw("cannot open input device", "error", err)
		return 1
	}
	defer devs.Close()

	out, err := uinput.Create(cfg.UInput.Path, cfg.Identity())
	if err != nil {
		log.Errorw("cannot create output device", "path", cfg.UInput.Path, "error", err)
		return 1
	}
	defer out.Close()
	log.Infow("output device created", "path", cfg.UInput.Path, "name", cfg.UInput.Name)

	relay := output.NewRelay(out, log)
	host, err := script.NewHost(devs, relay, script.WithLogger(log))
	if err != nil {
		log.Errorw("cannot start script host", "error", err)
		return 1
	}
	defer host.Close()

	// The notify socket cannot be reached once the sandbox is in place.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnw("systemd notification failed", "error", err)
	} else if sent {
		log.Debugw("notified systemd of readiness")
	}

	reducer := privilege.NewReducer(privilege.Linux(),
		privilege.WithRootDir(cfg.Sandbox.ChrootDir),
		privilege.WithLogger(log),
	)
	if err := reducer.Reduce(); err != nil {
		log.Errorw("cannot drop privileges", "stage", reducer.Stage().String(), "error", err)
		return 1
	}

	err = host.Run(source, name)
	stats := relay.Stats()
	log.Infow("script finished", "emitted", stats.Emitted, "rejected", stats.Rejected)
	if err != nil {
		log.Errorw("script failed", "script", name, "error", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	opts := options{File: stdinName}
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.File, "file", stdinName, "Script file to run, - for standard input")
	flag.StringVar(&opts.File, "f", stdinName, "Script file to run (shorthand)")
	flag.Var(&opts.Devices, "device", "Input device to read events from (repeatable)")
	flag.Var(&opts.Devices, "d", "Input device to read events from (shorthand)")
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "evscript - sandboxed scripting for evdev input devices\n\n")
		fmt.Fprintf(os.Stderr, "Usage: evscript [options] -d DEVICE [-d DEVICE...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  evscript -f caps2esc.lua -d /dev/input/event0\n")
		fmt.Fprintf(os.Stderr, "  evscript -d /dev/input/event0 -d /dev/input/event3 < remap.lua\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("evscript %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		if _, ok := logging.LookupLevel(opts.LogLevel); !ok {
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	return opts
}

// loadConfig layers the config file, the environment and the flags.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// readScript returns the script source and the name used in its error
// messages.
func readScript(file string, log *zap.SugaredLogger) (string, string, error) {
	if file == stdinName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			log.Infow("reading script from the terminal, end it with Ctrl-D")
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(b), "stdin", nil
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return "", "", err
	}
	return string(b), file, nil
}

func openDevices(paths []string, log *zap.SugaredLogger) (device.Set, error) {
	devs := make(device.Set, 0, len(paths))
	for _, path := range paths {
		dev, err := device.Open(path)
		if err != nil {
			_ = devs.Close()
			return nil, err
		}
		log.Infow("opened input device", "path", path, "name", dev.Name())
		devs = append(devs, dev)
	}
	return devs, nil
}
