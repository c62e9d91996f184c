package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"

	hpmerr "hpmdfu/internal/errors"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the HPMDFU_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  Call it after the config file
// and before applying flags.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("HPMDFU_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv("HPMDFU_SIM_LAYOUT"); v != "" {
		cfg.SimLayout = v
	}
	if v := envInt("HPMDFU_SIM_DEVICES"); v > 0 {
		cfg.SimDevices = v
	}
	if v := os.Getenv("HPMDFU_PORTS"); v != "" {
		ports, err := ParsePortList(v)
		if err != nil {
			return &hpmerr.ConfigError{Field: "ports", Value: v, Message: err.Error(), Hint: "set via HPMDFU_PORTS"}
		}
		cfg.Ports = ports
	}

	// Unlock key
	if v := os.Getenv("HPMDFU_KEY"); v != "" {
		cfg.Key = v
	}
	if v := os.Getenv("HPMDFU_MODEL"); v != "" {
		cfg.Model = v
	}

	if envBool("HPMDFU_YES") {
		cfg.Yes = true
	}

	// Output
	if v := envInt("HPMDFU_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("HPMDFU_TRACE"); v != "" {
		cfg.Trace = v
	}
	if envBool("HPMDFU_STATS") {
		cfg.Stats = true
	}
	if v := os.Getenv("HPMDFU_HISTORY"); v != "" {
		cfg.HistoryFile = v
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
