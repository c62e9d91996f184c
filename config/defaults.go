package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultDriver is the transport driver used when none is named.
	DefaultDriver = "sim"

	// DefaultSimLayout is a single sink on port 0 and nothing else.
	DefaultSimLayout = "sink,none,none,none,none"

	// DefaultSimDevices is the number of simulated controllers.
	DefaultSimDevices = 1

	// DefaultConfigFile is read when it exists and no --config is given.
	DefaultConfigFile = "hpmdfu.yaml"
)

// Defaults returns a Config populated with the default values.
func Defaults() *Config {
	return &Config{
		Driver:     DefaultDriver,
		SimLayout:  DefaultSimLayout,
		SimDevices: DefaultSimDevices,
		Verbose:    1,
	}
}
