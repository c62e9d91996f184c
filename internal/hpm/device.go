package hpm

import (
	"sync"
	"time"

	hpmerr "hpmdfu/internal/errors"
	"hpmdfu/internal/metrics"
	"hpmdfu/internal/transport"
	"hpmdfu/util"
)

// DefaultPollInterval is the pause between reads of the VDM status
// register while waiting for the partner's reply.
const DefaultPollInterval = 10 * time.Millisecond

// Device is the exclusive handle on one opened controller.  It is not
// safe for concurrent use: every register operation goes through the
// shared argument register and must not interleave with another.
//
// Close must be called exactly once the caller is done; it leaves
// management mode on port 0 before releasing the transport.
type Device struct {
	name    string
	t       transport.Transport
	log     *util.Logger
	metrics *metrics.Collector
	poll    time.Duration

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger progress lines are written to.
func WithLogger(l *util.Logger) Option {
	return func(d *Device) { d.log = l }
}

// WithMetrics sets the collector register traffic is counted in.
func WithMetrics(m *metrics.Collector) Option {
	return func(d *Device) { d.metrics = m }
}

// WithPollInterval overrides the VDM reply poll interval.  Zero polls
// back to back.
func WithPollInterval(p time.Duration) Option {
	return func(d *Device) {
		if p >= 0 {
			d.poll = p
		}
	}
}

// New wraps an opened transport.  name identifies the device in logs.
func New(name string, t transport.Transport, opts ...Option) *Device {
	if t == nil {
		panic("hpm: transport cannot be nil")
	}
	d := &Device{name: name, t: t, poll: DefaultPollInterval}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the identifier given to New.
func (d *Device) Name() string { return d.name }

// Logger returns the device's logger, possibly nil.
func (d *Device) Logger() *util.Logger { return d.log }

// ReadRegister reads register reg of port into a full-size buffer.
func (d *Device) ReadRegister(port int, reg byte) (Buffer, error) {
	if d.closed {
		return Buffer{}, hpmerr.ErrDeviceClosed
	}
	d.metrics.RegisterRead()
	b, err := d.t.Read(port, reg, BufferSize)
	if err != nil {
		return Buffer{}, hpmerr.Transport("read", port, reg, err)
	}
	return newBuffer(b), nil
}

// WriteRegister writes data into register reg of port.
func (d *Device) WriteRegister(port int, reg byte, data []byte) error {
	if d.closed {
		return hpmerr.ErrDeviceClosed
	}
	d.metrics.RegisterWrite()
	if err := d.t.Write(port, reg, data); err != nil {
		return hpmerr.Transport("write", port, reg, err)
	}
	return nil
}

// Connection reads and classifies the connection status of port.
func (d *Device) Connection(port int) (ConnectionType, byte, error) {
	b, err := d.ReadRegister(port, RegConnection)
	if err != nil {
		return ConnectionNone, 0, err
	}
	return ClassifyConnection(b.Byte(0)), b.Byte(0), nil
}

// Mode reads the status mnemonic of port.
func (d *Device) Mode(port int) (string, error) {
	b, err := d.ReadRegister(port, RegMode)
	if err != nil {
		return "", err
	}
	return b.Mode(), nil
}

// Close leaves management mode on port 0, best effort, and releases
// the transport.  Only the first call does anything; later calls
// return the first call's result.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		if err := d.ExitManagementMode(); err != nil {
			d.log.Warn("Exiting DBMa mode... Failed (%v)", err)
		} else {
			d.log.Info("Exiting DBMa mode... OK")
		}
		d.closed = true
		d.closeErr = d.t.Close()
		d.metrics.DeviceClosed()
	})
	return d.closeErr
}
