// Package discovery finds HPM controllers through a transport driver
// and opens them for a session.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	hpmerr "hpmdfu/internal/errors"
	"hpmdfu/internal/hpm"
	"hpmdfu/internal/metrics"
	"hpmdfu/internal/retry"
	"hpmdfu/internal/trace"
	"hpmdfu/internal/transport"
	"hpmdfu/util"
)

const (
	// Rounds is how many times the driver is enumerated before giving up.
	Rounds = 5
	// RoundDelay separates enumeration rounds that found nothing.
	RoundDelay = time.Second
	// SettleDelay gives a freshly opened controller time to initialise
	// before its first register read.
	SettleDelay = time.Second
)

type finder struct {
	drv        transport.Driver
	log        *util.Logger
	metrics    *metrics.Collector
	rec        *trace.Recorder
	rounds     int
	roundDelay time.Duration
	settle     time.Duration
	devOpts    []hpm.Option
}

// Option configures Find.
type Option func(*finder)

// WithLogger sets the logger; opened devices get a child scoped by ID.
func WithLogger(l *util.Logger) Option { return func(f *finder) { f.log = l } }

// WithMetrics counts opened devices and failed candidates.
func WithMetrics(m *metrics.Collector) Option { return func(f *finder) { f.metrics = m } }

// WithRecorder records every primitive of every opened device.
func WithRecorder(r *trace.Recorder) Option { return func(f *finder) { f.rec = r } }

// WithDeviceOptions passes extra options to hpm.New for each device.
func WithDeviceOptions(opts ...hpm.Option) Option {
	return func(f *finder) { f.devOpts = append(f.devOpts, opts...) }
}

// WithTiming overrides the round count and delays.
func WithTiming(rounds int, roundDelay, settle time.Duration) Option {
	return func(f *finder) {
		if rounds > 0 {
			f.rounds = rounds
		}
		if roundDelay > 0 {
			f.roundDelay = roundDelay
		}
		if settle >= 0 {
			f.settle = settle
		}
	}
}

// errEmptyRound marks a round that produced no usable device.
var errEmptyRound = errors.New("no usable device this round")

// Find enumerates drv until at least one controller opens and answers
// a read of port 0's connection register.  Candidates that fail are
// logged and skipped.  Zero devices after every round is ErrNoDevices.
// The caller owns the returned devices and must Close each of them.
func Find(ctx context.Context, drv transport.Driver, opts ...Option) ([]*hpm.Device, error) {
	f := &finder{drv: drv, rounds: Rounds, roundDelay: RoundDelay, settle: SettleDelay}
	for _, opt := range opts {
		opt(f)
	}

	f.log.Info("Looking for HPM devices...")

	var devices []*hpm.Device
	b := retry.Fixed(f.roundDelay, f.rounds)
	b.OnRetry = func(int, error, time.Duration) {
		f.log.Info("No suitable device found, waiting before retry...")
	}
	err := b.Do(ctx, func(_ int) error {
		cands, err := drv.Enumerate()
		if err != nil {
			f.log.Warn("Enumerating devices: %v", err)
			return err
		}
		for _, c := range cands {
			d, err := f.open(ctx, c)
			if err != nil {
				if ctx.Err() != nil {
					return retry.Permanent(err)
				}
				f.log.Info("Error initializing device: %v", err)
				f.metrics.DeviceError(err.Error())
				continue
			}
			devices = append(devices, d)
		}
		if len(devices) == 0 {
			return errEmptyRound
		}
		return nil
	})
	if err != nil {
		for _, d := range devices {
			d.Close() //nolint:errcheck
		}
		var ex *retry.ExhaustedError
		if errors.As(err, &ex) {
			return nil, hpmerr.ErrNoDevices
		}
		return nil, err
	}
	return devices, nil
}

// open binds one candidate, waits for it to settle and checks that it
// answers.  A candidate that fails its probe read is still released
// through Device.Close.
func (f *finder) open(ctx context.Context, c transport.Candidate) (*hpm.Device, error) {
	f.log.Info("Found: %s", c)

	t, err := f.drv.Open(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.ID, &hpmerr.TransportError{Op: "open", Err: err})
	}
	if f.rec != nil {
		t = f.rec.Wrap(c.ID, t)
	}

	if f.settle > 0 {
		select {
		case <-ctx.Done():
			t.Close() //nolint:errcheck
			return nil, fmt.Errorf("%s: %w", c.ID, ctx.Err())
		case <-time.After(f.settle):
		}
	}

	opts := append([]hpm.Option{
		hpm.WithLogger(f.log.With(c.ID)),
		hpm.WithMetrics(f.metrics),
	}, f.devOpts...)
	d := hpm.New(c.ID, t, opts...)
	f.metrics.DeviceOpened()

	// Once bound, the handle is released through Close so the DBMa
	// exit runs even when the probe fails.
	_, raw, err := d.Connection(0)
	if err != nil {
		d.Close() //nolint:errcheck
		return nil, fmt.Errorf("%s: %w", c.ID, err)
	}
	f.log.Info("Device status: 0x%02x", raw)
	f.log.Info("Found HPM device")
	return d, nil
}
