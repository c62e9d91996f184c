// Package session runs the reboot-to-DFU sequence across every port of
// every opened controller.
//
// Work is strictly sequential: one device at a time, one port at a
// time.  A failure on one port is logged and recorded in the Report,
// and the loop moves on; nothing short of context cancellation stops
// a run early.
package session

import (
	"context"
	"fmt"

	hpmerr "hpmdfu/internal/errors"
	"hpmdfu/internal/hpm"
	"hpmdfu/internal/metrics"
	"hpmdfu/util"
)

// Session holds what every port of a run shares.
type Session struct {
	// Key is the unlock key, fetched once per run.
	Key uint32
	// Ports lists the port indices to visit, in order.  Nil visits all.
	Ports []int
	// ListOnly reports connection and status without issuing commands.
	ListOnly bool

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// New creates a Session that unlocks ports with key.
func New(key uint32, logger *util.Logger, m *metrics.Collector) *Session {
	return &Session{Key: key, Logger: logger, Metrics: m}
}

func (s *Session) ports() []int {
	if len(s.Ports) > 0 {
		return s.Ports
	}
	all := make([]int, hpm.NumPorts)
	for i := range all {
		all[i] = i
	}
	return all
}

// Run visits each device in turn.  It never closes the devices; that
// stays with whoever opened them.
func (s *Session) Run(ctx context.Context, devices []*hpm.Device) *Report {
	r := &Report{}
	for _, d := range devices {
		if ctx.Err() != nil {
			r.Cancelled = true
			break
		}
		dr := s.runDevice(ctx, d)
		r.Devices = append(r.Devices, dr)
		if ctx.Err() != nil {
			r.Cancelled = true
			break
		}
	}
	return r
}

func (s *Session) runDevice(ctx context.Context, d *hpm.Device) DeviceResult {
	log := s.Logger.With(d.Name())
	dr := DeviceResult{Name: d.Name()}

	for _, port := range s.ports() {
		if ctx.Err() != nil {
			return dr
		}
		pr := s.runPort(ctx, d, port, log)
		dr.Ports = append(dr.Ports, pr)

		if pr.Err != nil && hpmerr.Is(pr.Err, hpmerr.ErrDeviceClosed) {
			dr.Err = fmt.Errorf("%s: %w", d.Name(), pr.Err)
			log.Error("Error processing device: %v", pr.Err)
			s.Metrics.DeviceError(dr.Err.Error())
			return dr
		}
	}
	return dr
}

func (s *Session) runPort(ctx context.Context, d *hpm.Device, port int, devLog *util.Logger) PortResult {
	pr := PortResult{Device: d.Name(), Port: port}
	log := devLog.With(fmt.Sprintf("port %d", port))
	s.Metrics.PortVisited()

	devLog.Info("=== Port %d ===", port)

	fail := func(err error) PortResult {
		pr.Outcome = OutcomeFailed
		pr.Err = err
		log.Warn("%v", err)
		s.Metrics.PortError(err.Error())
		return pr
	}

	conn, raw, err := d.Connection(port)
	if err != nil {
		return fail(err)
	}
	pr.Connection = conn
	pr.RawConnection = raw
	log.Info("Connection: %s", conn)

	if s.ListOnly {
		mode, err := d.Mode(port)
		if err != nil {
			return fail(err)
		}
		pr.Status = mode
		pr.Outcome = OutcomeListed
		log.Info("Status: %s", mode)
		return pr
	}

	if err := d.EnsureManagementMode(port, s.Key); err != nil {
		return fail(err)
	}
	pr.Status = hpm.ManagementMode

	if err := d.TriggerUpdateMode(ctx, port); err != nil {
		return fail(err)
	}
	pr.Outcome = OutcomeTriggered
	s.Metrics.PortTriggered()
	return pr
}
