// Package cmd wires up the CLI flags and dispatches to a core mode.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"hpmdfu/config"
	"hpmdfu/internal/core"
	"hpmdfu/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X hpmdfu/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected hpmdfu mode.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags config.Config
	var ports string
	var quiet bool
	fs := flag.NewFlagSet("hpmdfu", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── device access ────────────────────────────────────────────
	fs.StringVarP(&flags.Driver, "driver", "d", config.DefaultDriver, "Transport driver")
	fs.StringVar(&flags.SimLayout, "sim-layout", config.DefaultSimLayout, "Port layout of the sim driver")
	fs.IntVar(&flags.SimDevices, "sim-devices", config.DefaultSimDevices, "Controllers the sim driver reports")
	fs.StringVarP(&ports, "ports", "p", "", "Ports to visit, e.g. 0,2-3 (default all)")

	// ── unlock key ───────────────────────────────────────────────
	fs.StringVarP(&flags.Key, "key", "k", "", "Unlock key as 8 hex digits")
	fs.StringVarP(&flags.Model, "model", "m", "", "Board identifier to derive the key from")

	// ── mode ─────────────────────────────────────────────────────
	fs.BoolVarP(&flags.List, "list", "l", false, "Report ports without issuing commands")
	fs.BoolVar(&flags.Console, "console", false, "Interactive register console")
	fs.StringVar(&flags.DumpTrace, "dump-trace", "", "Print a recorded trace file and exit")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Validate configuration and exit")
	fs.BoolVarP(&flags.Yes, "yes", "y", false, "Do not ask before rebooting devices")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&flags.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&quiet, "quiet", "q", false, "Only print errors")
	fs.StringVar(&flags.Trace, "trace", "", "Record register traffic to a file")
	fs.BoolVar(&flags.Stats, "stats", false, "Print metrics as JSON at exit")
	fs.StringVar(&flags.HistoryFile, "history", "", "Console history file")
	fs.StringVarP(&flags.ConfigFile, "config", "c", "", "YAML configuration file")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printUsage(stderr, fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "hpmdfu %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	// ── layer: defaults < file < env < flags ─────────────────────
	cfg := config.Defaults()
	if fs.Changed("config") {
		if err := config.LoadFile(cfg, flags.ConfigFile); err != nil {
			return err
		}
	} else if err := config.LoadFileIfExists(cfg, config.DefaultConfigFile); err != nil {
		return err
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}
	if err := applyFlags(cfg, &flags, fs, ports, quiet); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	if cfg.ConfigFile != "" {
		logger.Verbose("Loaded configuration from %s", cfg.ConfigFile)
	}
	if cfg.DryRun {
		logger.Info("Configuration OK")
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	if o, ok := mode.(interface{ SetOutput(io.Writer) }); ok {
		o.SetOutput(stdout)
	}
	return mode.Run(ctx)
}

// applyFlags copies every flag the user actually set over cfg.
func applyFlags(cfg, flags *config.Config, fs *flag.FlagSet, ports string, quiet bool) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = flags.Driver
		case "sim-layout":
			cfg.SimLayout = flags.SimLayout
		case "sim-devices":
			cfg.SimDevices = flags.SimDevices
		case "ports":
			var p []int
			if p, err = config.ParsePortList(ports); err != nil {
				err = fmt.Errorf("--ports: %w", err)
				return
			}
			cfg.Ports = p
		case "key":
			cfg.Key = flags.Key
		case "model":
			cfg.Model = flags.Model
		case "list":
			cfg.List = flags.List
		case "console":
			cfg.Console = flags.Console
		case "dump-trace":
			cfg.DumpTrace = flags.DumpTrace
		case "dry-run":
			cfg.DryRun = flags.DryRun
		case "yes":
			cfg.Yes = flags.Yes
		case "verbose":
			cfg.Verbose = 1 + flags.Verbose
		case "quiet":
			if quiet {
				cfg.Verbose = 0
			}
		case "trace":
			cfg.Trace = flags.Trace
		case "stats":
			cfg.Stats = flags.Stats
		case "history":
			cfg.HistoryFile = flags.HistoryFile
		}
	})
	return err
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `hpmdfu – reboot USB-C port partners into DFU mode v%s

Drives the Apple HPM (USB-C port) controllers of the host to send the
vendor message that puts an attached device into firmware-update mode.

Usage:
  hpmdfu [options]                  Reboot partners on every port
  hpmdfu -l [options]               List ports without issuing commands
  hpmdfu --console [options]        Interactive register console
  hpmdfu --dump-trace FILE          Print a recorded trace

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  HPMDFU_DRIVER, HPMDFU_PORTS, HPMDFU_KEY, HPMDFU_MODEL, HPMDFU_YES,
  HPMDFU_VERBOSE, HPMDFU_TRACE, ...   override %s, flags override both

Examples:
  hpmdfu -y                         Reboot every connected partner
  hpmdfu -p 0 -k 0x4a323933         Port 0 only, explicit key
  hpmdfu -l -v                      Show what is plugged in where
  hpmdfu --trace run.cbor -y        Keep a register trace of the run
`, config.DefaultConfigFile)
}
