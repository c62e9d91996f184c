package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// SimDriverName is the name the simulated binding is selected by.
const SimDriverName = "sim"

// Connection-status byte values the simulator reports on 0x3f.
const (
	SimNone   byte = 0x00
	SimSource byte = 0x01
	SimSink   byte = 0x03
)

// SimAppMode is the status mnemonic a simulated port reports outside
// management mode.
const SimAppMode = "APP "

// ErrSimClosed is returned by a simulated transport after Close.
var ErrSimClosed = errors.New("sim: transport closed")

// SimPort describes the initial state of one simulated port.
type SimPort struct {
	Connection byte
	DBMa       bool // start already in management mode
}

// SimConfig configures a simulated controller family.
type SimConfig struct {
	// Devices is the number of controllers Enumerate reports (default 1).
	Devices int

	// Ports is the per-port layout shared by every simulated device.
	Ports []SimPort

	// Key is the unlock key LOCK accepts.  Zero accepts any key.
	Key uint32

	// LockRefusals makes LOCK refuse this many times per port before
	// it honours the key.
	LockRefusals int

	// ResetFails makes the Gaid reset command report failure.
	ResetFails bool

	// VDMSilent makes a partner accept VDMs but never answer.
	VDMSilent bool

	// VDMNack makes a partner answer with the request header unchanged.
	VDMNack bool

	// ReplyPolls is how many 0x4d reads pass before a reply shows up
	// (default 2).
	ReplyPolls int
}

// ParseSimLayout turns "sink,none,source+dbma,..." into a port layout.
// Each entry is sink, source or none, optionally suffixed with +dbma.
func ParseSimLayout(spec string) ([]SimPort, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("empty simulator layout")
	}
	var ports []SimPort
	for _, field := range strings.Split(spec, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		var p SimPort
		if name, ok := strings.CutSuffix(field, "+dbma"); ok {
			p.DBMa = true
			field = name
		}
		switch field {
		case "sink":
			p.Connection = SimSink
		case "source":
			p.Connection = SimSource
		case "none", "":
			p.Connection = SimNone
		default:
			return nil, fmt.Errorf("unknown simulator port kind %q (want sink, source or none)", field)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// ── driver ───────────────────────────────────────────────────────────

// SimDriver is an in-process model of an HPM controller family.  It
// keeps device state across Open/Close so a session can observe the
// effect of earlier commands.
type SimDriver struct {
	cfg     SimConfig
	mu      sync.Mutex
	devices []*simDevice
}

// NewSimDriver builds the simulated devices described by cfg.
func NewSimDriver(cfg SimConfig) *SimDriver {
	if cfg.Devices <= 0 {
		cfg.Devices = 1
	}
	if cfg.ReplyPolls <= 0 {
		cfg.ReplyPolls = 2
	}
	d := &SimDriver{cfg: cfg}
	for i := 0; i < cfg.Devices; i++ {
		d.devices = append(d.devices, newSimDevice(cfg))
	}
	return d
}

// Enumerate lists every simulated device.
func (d *SimDriver) Enumerate() ([]Candidate, error) {
	out := make([]Candidate, len(d.devices))
	for i := range d.devices {
		out[i] = Candidate{
			ID:   fmt.Sprintf("hpm%d", i),
			Path: fmt.Sprintf("sim:/AppleHPM@%d", i),
		}
	}
	return out, nil
}

// Open returns a transport bound to the candidate's device.
func (d *SimDriver) Open(c Candidate) (Transport, error) {
	var idx int
	if _, err := fmt.Sscanf(c.ID, "hpm%d", &idx); err != nil || idx < 0 || idx >= len(d.devices) {
		return nil, fmt.Errorf("sim: no device %q", c.ID)
	}
	return &simTransport{dev: d.devices[idx]}, nil
}

// Device exposes a simulated device's state for inspection in tests.
func (d *SimDriver) Device(i int) *SimState {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev := d.devices[i]
	dev.mu.Lock()
	defer dev.mu.Unlock()
	st := &SimState{}
	for _, p := range dev.ports {
		st.Modes = append(st.Modes, p.mode)
		st.Rebooted = append(st.Rebooted, p.rebooted)
		st.LockAttempts = append(st.LockAttempts, p.lockAttempts)
	}
	st.Commands = append(st.Commands, dev.log...)
	return st
}

// SimState is a snapshot of one simulated device.
type SimState struct {
	Modes        []string
	Rebooted     []bool
	LockAttempts []int
	Commands     []string // "port:MNEM" in issue order
}

// ── device model ─────────────────────────────────────────────────────

type simPortState struct {
	conn         byte
	mode         string
	unlocked     bool
	refusals     int
	lockAttempts int
	scratch      [BufferSize]byte
	seq          byte
	reply        uint32
	pending      int // polls until the reply lands; 0 = none pending
	rebooted     bool
}

type simDevice struct {
	cfg   SimConfig
	mu    sync.Mutex
	ports []*simPortState
	log   []string
}

func newSimDevice(cfg SimConfig) *simDevice {
	dev := &simDevice{cfg: cfg}
	for _, p := range cfg.Ports {
		st := &simPortState{conn: p.Connection, mode: SimAppMode, refusals: cfg.LockRefusals, seq: 0x10}
		if p.DBMa {
			st.mode = "DBMa"
			st.unlocked = true
		}
		dev.ports = append(dev.ports, st)
	}
	return dev
}

func (dev *simDevice) port(p int) (*simPortState, error) {
	if p < 0 || p >= len(dev.ports) {
		return nil, fmt.Errorf("sim: no port %d", p)
	}
	return dev.ports[p], nil
}

func (dev *simDevice) read(p int, reg byte, n int) ([]byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	st, err := dev.port(p)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, BufferSize)
	switch reg {
	case 0x03:
		copy(buf, st.mode)
		// Real controllers leave stale bytes behind the terminator.
		for i := len(st.mode) + 1; i < BufferSize; i++ {
			buf[i] = 0xa5
		}
	case 0x3f:
		buf[0] = st.conn
	case 0x4d:
		if st.pending > 0 {
			st.pending--
			if st.pending == 0 {
				st.seq++
				dev.afterReply(st)
			}
		}
		buf[0] = st.seq
		binary.BigEndian.PutUint32(buf[1:5], st.reply)
	case 0x09:
		copy(buf, st.scratch[:])
	default:
		return nil, fmt.Errorf("sim: register 0x%02x not readable", reg)
	}
	if n > 0 && n < BufferSize {
		buf = buf[:n]
	}
	return buf, nil
}

func (dev *simDevice) write(p int, reg byte, data []byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	st, err := dev.port(p)
	if err != nil {
		return err
	}
	if reg != 0x09 {
		return fmt.Errorf("sim: register 0x%02x not writable", reg)
	}
	if len(data) > BufferSize {
		return fmt.Errorf("sim: write of %d bytes exceeds register size", len(data))
	}
	st.scratch = [BufferSize]byte{}
	copy(st.scratch[:], data)
	return nil
}

func (dev *simDevice) issue(p int, code uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	st, err := dev.port(p)
	if err != nil {
		return err
	}
	mnem := simMnemonic(code)
	dev.log = append(dev.log, fmt.Sprintf("%d:%s", p, mnem))

	var result byte
	switch mnem {
	case "LOCK":
		st.lockAttempts++
		key := binary.BigEndian.Uint32(st.scratch[0:4])
		switch {
		case st.refusals > 0:
			st.refusals--
			result = 1
		case dev.cfg.Key != 0 && key != dev.cfg.Key:
			result = 1
		default:
			st.unlocked = true
		}
	case "Gaid":
		if dev.cfg.ResetFails {
			result = 1
		}
	case "DBMa":
		switch {
		case st.scratch[0] == 0:
			st.mode = SimAppMode
		case st.unlocked:
			st.mode = "DBMa"
		default:
			result = 1
		}
	case "VDMs":
		result = dev.acceptVDM(st)
	default:
		return fmt.Errorf("sim: unsupported command %q", mnem)
	}
	st.scratch[0] = result
	return nil
}

func (dev *simDevice) acceptVDM(st *simPortState) byte {
	if st.mode != "DBMa" {
		return 1
	}
	n := int(st.scratch[0] & 0x0f)
	if st.scratch[0]>>4 != 3 || n == 0 || 1+4*n > BufferSize {
		return 2
	}
	if st.conn == SimNone || dev.cfg.VDMSilent {
		return 0
	}
	hdr := binary.BigEndian.Uint32(st.scratch[1:5])
	st.reply = hdr | 0x40
	if dev.cfg.VDMNack {
		st.reply = hdr
	}
	st.pending = dev.cfg.ReplyPolls
	return 0
}

// afterReply models the partner dropping off the bus once it accepted
// the reboot request.
func (dev *simDevice) afterReply(st *simPortState) {
	if st.reply&0x40 != 0 && !dev.cfg.VDMNack {
		st.rebooted = true
		st.conn = SimNone
	}
}

func simMnemonic(code uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], code)
	return string(b[:])
}

// ── transport handle ─────────────────────────────────────────────────

type simTransport struct {
	dev    *simDevice
	mu     sync.Mutex
	closed bool
}

func (t *simTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *simTransport) Read(port int, reg byte, n int) ([]byte, error) {
	if t.isClosed() {
		return nil, ErrSimClosed
	}
	return t.dev.read(port, reg, n)
}

func (t *simTransport) Write(port int, reg byte, data []byte) error {
	if t.isClosed() {
		return ErrSimClosed
	}
	return t.dev.write(port, reg, data)
}

func (t *simTransport) Issue(port int, code uint32) error {
	if t.isClosed() {
		return ErrSimClosed
	}
	return t.dev.issue(port, code)
}

func (t *simTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrSimClosed
	}
	t.closed = true
	return nil
}
