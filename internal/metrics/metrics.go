// Package metrics provides lightweight, lock-free counters for tracking
// what an hpmdfu run did to the controllers it touched.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one hpmdfu run.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	devicesOpened  atomic.Int64
	devicesClosed  atomic.Int64
	deviceErrors   atomic.Int64
	portsVisited   atomic.Int64
	portsUnlocked  atomic.Int64
	portsTriggered atomic.Int64
	portErrors     atomic.Int64
	registerReads  atomic.Int64
	registerWrites atomic.Int64
	commands       atomic.Int64
	commandsFailed atomic.Int64
	vdmPolls       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Device metrics ───────────────────────────────────────────────────

// DeviceOpened records a controller that passed discovery.
func (c *Collector) DeviceOpened() {
	if c == nil {
		return
	}
	c.devicesOpened.Add(1)
}

// DeviceClosed records a released device handle.
func (c *Collector) DeviceClosed() {
	if c == nil {
		return
	}
	c.devicesClosed.Add(1)
}

// OpenDevices returns the number of handles opened but not yet released.
func (c *Collector) OpenDevices() int64 {
	if c == nil {
		return 0
	}
	return c.devicesOpened.Load() - c.devicesClosed.Load()
}

// DeviceError records a failure that abandoned a whole device.
func (c *Collector) DeviceError(msg string) {
	if c == nil {
		return
	}
	c.deviceErrors.Add(1)
	c.recordError(msg)
}

// ── Port metrics ─────────────────────────────────────────────────────

// PortVisited records the orchestrator starting work on a port.
func (c *Collector) PortVisited() {
	if c == nil {
		return
	}
	c.portsVisited.Add(1)
}

// PortUnlocked records a successful unlock handshake.
func (c *Collector) PortUnlocked() {
	if c == nil {
		return
	}
	c.portsUnlocked.Add(1)
}

// PortTriggered records a port whose partner accepted the reboot VDM.
func (c *Collector) PortTriggered() {
	if c == nil {
		return
	}
	c.portsTriggered.Add(1)
}

// PortError records a failure that abandoned a single port.
func (c *Collector) PortError(msg string) {
	if c == nil {
		return
	}
	c.portErrors.Add(1)
	c.recordError(msg)
}

// Triggered returns the number of ports triggered so far.
func (c *Collector) Triggered() int64 {
	if c == nil {
		return 0
	}
	return c.portsTriggered.Load()
}

// ── Register metrics ─────────────────────────────────────────────────

// RegisterRead records one transport Read.
func (c *Collector) RegisterRead() {
	if c == nil {
		return
	}
	c.registerReads.Add(1)
}

// RegisterWrite records one transport Write.
func (c *Collector) RegisterWrite() {
	if c == nil {
		return
	}
	c.registerWrites.Add(1)
}

// CommandIssued records one command and whether the controller
// accepted it.
func (c *Collector) CommandIssued(ok bool) {
	if c == nil {
		return
	}
	c.commands.Add(1)
	if !ok {
		c.commandsFailed.Add(1)
	}
}

// VDMPoll records one read of the VDM status register while waiting
// for a reply.
func (c *Collector) VDMPoll() {
	if c == nil {
		return
	}
	c.vdmPolls.Add(1)
}

// ── Errors ───────────────────────────────────────────────────────────

func (c *Collector) recordError(msg string) {
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns port and device errors combined.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.portErrors.Load() + c.deviceErrors.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	DevicesOpened    int64  `json:"devices_opened"`
	DevicesClosed    int64  `json:"devices_closed"`
	DeviceErrors     int64  `json:"device_errors"`
	PortsVisited     int64  `json:"ports_visited"`
	PortsUnlocked    int64  `json:"ports_unlocked"`
	PortsTriggered   int64  `json:"ports_triggered"`
	PortErrors       int64  `json:"port_errors"`
	RegisterReads    int64  `json:"register_reads"`
	RegisterWrites   int64  `json:"register_writes"`
	Commands         int64  `json:"commands"`
	CommandsFailed   int64  `json:"commands_failed"`
	VDMPolls         int64  `json:"vdm_polls"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:         time.Since(c.startTime).Truncate(time.Millisecond).String(),
		DevicesOpened:  c.devicesOpened.Load(),
		DevicesClosed:  c.devicesClosed.Load(),
		DeviceErrors:   c.deviceErrors.Load(),
		PortsVisited:   c.portsVisited.Load(),
		PortsUnlocked:  c.portsUnlocked.Load(),
		PortsTriggered: c.portsTriggered.Load(),
		PortErrors:     c.portErrors.Load(),
		RegisterReads:  c.registerReads.Load(),
		RegisterWrites: c.registerWrites.Load(),
		Commands:       c.commands.Load(),
		CommandsFailed: c.commandsFailed.Load(),
		VDMPolls:       c.vdmPolls.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
