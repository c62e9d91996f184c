package core

import (
	"errors"
	"fmt"
	"os"

	"hpmdfu/config"
	"hpmdfu/internal/hostkey"
	"hpmdfu/internal/metrics"
	"hpmdfu/internal/transport"
	"hpmdfu/util"
)

// Build constructs the appropriate Mode from a validated configuration.
// Nothing is opened here; every device and file is acquired in Run.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	switch {
	case cfg.DumpTrace != "":
		return buildDumpTrace(cfg, logger), nil
	case cfg.Console:
		return buildConsole(cfg, logger)
	case cfg.List:
		return buildList(cfg, logger)
	default:
		return buildDFU(cfg, logger)
	}
}

// ── mode builders ────────────────────────────────────────────────────

func buildDFU(cfg *config.Config, logger *util.Logger) (Mode, error) {
	acc, err := buildAccess(cfg, logger)
	if err != nil {
		return nil, err
	}
	keys, err := buildKeys(cfg, logger)
	if err != nil {
		return nil, err
	}

	m := &DFUMode{Access: acc, Keys: keys, Ports: cfg.Ports}
	if !cfg.Yes {
		m.Confirm = TerminalConfirm(os.Stdin, os.Stderr)
	}
	return m, nil
}

func buildList(cfg *config.Config, logger *util.Logger) (Mode, error) {
	acc, err := buildAccess(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ListMode{Access: acc, Ports: cfg.Ports}, nil
}

func buildConsole(cfg *config.Config, logger *util.Logger) (Mode, error) {
	acc, err := buildAccess(cfg, logger)
	if err != nil {
		return nil, err
	}
	keys, err := buildKeys(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ConsoleMode{Access: acc, Keys: keys, HistoryFile: cfg.HistoryFile}, nil
}

func buildDumpTrace(cfg *config.Config, logger *util.Logger) Mode {
	return &DumpTraceMode{Path: cfg.DumpTrace, Out: os.Stdout, Logger: logger}
}

// ── shared helpers ───────────────────────────────────────────────────

func buildAccess(cfg *config.Config, logger *util.Logger) (Access, error) {
	drv, err := buildDriver(cfg)
	if err != nil {
		return Access{}, err
	}
	return Access{
		Driver:    drv,
		TracePath: cfg.Trace,
		Out:       os.Stdout,
		Stats:     cfg.Stats,
		Logger:    logger,
		Metrics:   metrics.New(),
	}, nil
}

// buildDriver returns the simulator for "sim" and otherwise the
// registered driver of that name.
func buildDriver(cfg *config.Config) (transport.Driver, error) {
	if cfg.Driver != transport.SimDriverName {
		return transport.Lookup(cfg.Driver)
	}
	layout, err := transport.ParseSimLayout(cfg.SimLayout)
	if err != nil {
		return nil, fmt.Errorf("sim-layout: %w", err)
	}
	return transport.NewSimDriver(transport.SimConfig{
		Devices: cfg.SimDevices,
		Ports:   layout,
	}), nil
}

// buildKeys picks the unlock key source: an explicit key, then a board
// identifier, then the host's own board identifier.
func buildKeys(cfg *config.Config, logger *util.Logger) (hostkey.Source, error) {
	switch {
	case cfg.Key != "":
		k, err := config.ParseKey(cfg.Key)
		if err != nil {
			return nil, err
		}
		return hostkey.Static(k), nil
	case cfg.Model != "":
		return hostkey.Model(cfg.Model), nil
	case cfg.Driver == transport.SimDriverName:
		// The simulator takes any key, so a host without a board
		// identifier can still drive it.
		return hostkey.Func(func() (uint32, error) {
			k, err := hostkey.Platform().UnlockKey()
			if errors.Is(err, hostkey.ErrUnsupported) {
				logger.Verbose("No host board identifier; sending key 0 to the simulator")
				return 0, nil
			}
			return k, err
		}), nil
	default:
		return hostkey.Platform(), nil
	}
}
