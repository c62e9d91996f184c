// Package config defines the runtime configuration for hpmdfu and the
// helpers that parse its port lists and unlock keys.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	hpmerr "hpmdfu/internal/errors"
	"hpmdfu/internal/transport"
)

// Config holds every tuneable for a single hpmdfu run.
type Config struct {
	// ── Device access ────────────────────────────────────────────────
	Driver     string // transport driver name
	SimLayout  string // port layout for the sim driver, e.g. "sink,none"
	SimDevices int    // controllers the sim driver reports
	Ports      []int  // ports to visit; empty visits all

	// ── Unlock key ───────────────────────────────────────────────────
	Key   string // hex override, e.g. "0xdeadbeef"
	Model string // board identifier to derive the key from

	// ── Mode ─────────────────────────────────────────────────────────
	List      bool   // report ports, issue no commands
	Console   bool   // interactive register console
	DumpTrace string // print a trace file and exit
	DryRun    bool   // validate configuration and exit
	Yes       bool   // skip the confirmation prompt

	// ── Output ───────────────────────────────────────────────────────
	Verbose     int
	Trace       string // record register traffic to this file
	Stats       bool   // print the metrics snapshot at exit
	HistoryFile string // console history
	ConfigFile  string // YAML file the values were read from
}

// ── Port helpers ─────────────────────────────────────────────────────

// NumPorts bounds port indices to [0, NumPorts).
const NumPorts = 5

// ParsePortList accepts "2", "0-4" and comma-separated mixes such as
// "0,2-3".  The result is sorted with duplicates removed.
func ParsePortList(list string) ([]int, error) {
	seen := map[int]bool{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty entry in port list %q", list)
		}
		start, end := part, part
		if i := strings.IndexByte(part, '-'); i >= 0 {
			start, end = part[:i], part[i+1:]
		}
		lo, err := strconv.Atoi(start)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", start)
		}
		hi, err := strconv.Atoi(end)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", end)
		}
		if lo < 0 || hi >= NumPorts || lo > hi {
			return nil, fmt.Errorf("port range %s outside 0-%d", part, NumPorts-1)
		}
		for p := lo; p <= hi; p++ {
			seen[p] = true
		}
	}
	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports, nil
}

// ParseKey accepts a 32-bit key in hex, with or without a 0x prefix.
func ParseKey(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid 32-bit hex key %q", s)
	}
	return uint32(v), nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	modes := 0
	for _, on := range []bool{c.List, c.Console, c.DumpTrace != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return &hpmerr.ConfigError{
			Field:   "list",
			Message: "--list, --console and --dump-trace are mutually exclusive",
		}
	}

	// A trace dump never touches a device.
	if c.DumpTrace != "" {
		return nil
	}

	if c.Driver == "" {
		return &hpmerr.ConfigError{
			Field:   "driver",
			Message: "a transport driver is required",
			Hint:    fmt.Sprintf("registered drivers: %s", strings.Join(append([]string{transport.SimDriverName}, transport.Drivers()...), ", ")),
		}
	}
	if c.Driver == transport.SimDriverName {
		if _, err := transport.ParseSimLayout(c.SimLayout); err != nil {
			return &hpmerr.ConfigError{
				Field:   "sim-layout",
				Value:   c.SimLayout,
				Message: err.Error(),
				Hint:    `one entry per port, e.g. "sink,none,source+dbma"`,
			}
		}
		if c.SimDevices < 1 {
			return &hpmerr.ConfigError{Field: "sim-devices", Value: c.SimDevices, Message: "must be at least 1"}
		}
	}

	for _, p := range c.Ports {
		if p < 0 || p >= NumPorts {
			return &hpmerr.ConfigError{
				Field:   "ports",
				Value:   p,
				Message: fmt.Sprintf("out of range 0-%d", NumPorts-1),
				Hint:    "HPM controllers expose ports 0 through 4",
			}
		}
	}

	if c.Key != "" && c.Model != "" {
		return &hpmerr.ConfigError{
			Field:   "key",
			Value:   c.Key,
			Message: "--key and --model are mutually exclusive",
		}
	}
	if c.Key != "" {
		if _, err := ParseKey(c.Key); err != nil {
			return &hpmerr.ConfigError{
				Field:   "key",
				Value:   c.Key,
				Message: err.Error(),
				Hint:    "pass the key as 8 hex digits, e.g. --key 0xdeadbeef",
			}
		}
	}
	if c.Model != "" && len(strings.TrimSpace(c.Model)) < 4 {
		return &hpmerr.ConfigError{
			Field:   "model",
			Value:   c.Model,
			Message: "the board identifier needs at least 4 characters",
			Hint:    `e.g. --model J293AP`,
		}
	}
	return nil
}
