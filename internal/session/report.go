package session

import (
	"fmt"
	"io"
	"text/tabwriter"

	"hpmdfu/internal/hpm"
)

// Outcome is what happened on one port.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeTriggered
	OutcomeListed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTriggered:
		return "triggered"
	case OutcomeListed:
		return "listed"
	default:
		return "failed"
	}
}

// PortResult is the record of one visited port.
type PortResult struct {
	Device        string
	Port          int
	Connection    hpm.ConnectionType
	RawConnection byte
	Status        string // status mnemonic, when it was read
	Outcome       Outcome
	Err           error
}

// DeviceResult groups the ports of one device.  Err is set when the
// device was abandoned before all of its ports were visited.
type DeviceResult struct {
	Name  string
	Ports []PortResult
	Err   error
}

// Report is the outcome of a run.
type Report struct {
	Devices   []DeviceResult
	Cancelled bool
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, d := range r.Devices {
		for _, p := range d.Ports {
			if p.Outcome == o {
				n++
			}
		}
	}
	return n
}

// Triggered returns the number of ports rebooted into DFU mode.
func (r *Report) Triggered() int { return r.count(OutcomeTriggered) }

// Failed returns the number of ports that failed.
func (r *Report) Failed() int { return r.count(OutcomeFailed) }

// Port returns the result for device name, port p.
func (r *Report) Port(name string, p int) (PortResult, bool) {
	for _, d := range r.Devices {
		if d.Name != name {
			continue
		}
		for _, pr := range d.Ports {
			if pr.Port == p {
				return pr, true
			}
		}
	}
	return PortResult{}, false
}

// Summary is a one-line tally.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d device(s): %d port(s) triggered, %d failed", len(r.Devices), r.Triggered(), r.Failed())
	if r.Cancelled {
		s += " (cancelled)"
	}
	return s
}

// WriteTable prints one row per visited port.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tPORT\tCONNECTION\tSTATUS\tRESULT")
	for _, d := range r.Devices {
		for _, p := range d.Ports {
			result := p.Outcome.String()
			if p.Err != nil {
				result = fmt.Sprintf("%s: %v", result, p.Err)
			}
			status := p.Status
			if status == "" {
				status = "-"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s (0x%02x)\t%s\t%s\n", d.Name, p.Port, p.Connection, p.RawConnection, status, result)
		}
	}
	return tw.Flush()
}
