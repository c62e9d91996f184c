// Package transport provides the register-level link to an HPM
// controller.  A Transport moves bytes to and from numbered registers
// and fires 32-bit commands; it knows nothing about what the registers
// mean (which is the hpm package's job).
//
// Platform bindings plug in as a [Driver] and register themselves by
// name, the same way database/sql drivers do.
package transport

import (
	"fmt"
	"sort"
	"sync"
)

// BufferSize is the fixed register read size every binding uses.
const BufferSize = 64

// Transport is one open session to a single controller.  All methods
// block until the primitive completes; none of them may be called
// concurrently.
type Transport interface {
	// Read returns up to n bytes from register reg of port.
	Read(port int, reg byte, n int) ([]byte, error)

	// Write stores data into register reg of port.
	Write(port int, reg byte, data []byte) error

	// Issue fires a 32-bit command on port.
	Issue(port int, code uint32) error

	// Close releases the session.  Further calls fail.
	Close() error
}

// Candidate is a controller found by a driver but not yet opened.
type Candidate struct {
	ID   string // short name, e.g. "hpm0"
	Path string // registry or bus path, for logs
}

func (c Candidate) String() string {
	if c.Path != "" {
		return c.Path
	}
	return c.ID
}

// Driver enumerates and opens controllers for one platform binding.
type Driver interface {
	Enumerate() ([]Candidate, error)
	Open(c Candidate) (Transport, error)
}

// ── registry ─────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = map[string]Driver{} //nolint:gochecknoglobals
)

// Register makes a driver available under name.  It panics when name
// is empty, d is nil, or the name is already taken.
func Register(name string, d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if name == "" || d == nil {
		panic("transport: Register with empty name or nil driver")
	}
	if _, dup := drivers[name]; dup {
		panic("transport: Register called twice for driver " + name)
	}
	drivers[name] = d
}

// Lookup returns the driver registered under name.
func Lookup(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transport driver %q (registered: %v)", name, driverNames())
	}
	return d, nil
}

// Drivers returns the sorted names of registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return driverNames()
}

func driverNames() []string {
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
