package core

import (
	"context"
	"fmt"
	"io"

	"hpmdfu/internal/discovery"
	"hpmdfu/internal/hpm"
	"hpmdfu/internal/metrics"
	"hpmdfu/internal/session"
	"hpmdfu/internal/trace"
	"hpmdfu/internal/transport"
	"hpmdfu/util"
)

// Access is what every device-touching mode shares: the driver the
// controllers come from, how they are found, and where the results
// and register traffic go.
type Access struct {
	Driver transport.Driver

	// Find holds extra discovery options, appended after the logger and
	// metrics ones.
	Find []discovery.Option

	// TracePath, when set, records every register primitive to a file.
	TracePath string

	// Out receives the result table and, with Stats, the metrics JSON.
	Out   io.Writer
	Stats bool

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// SetOutput redirects the result table and metrics.
func (a *Access) SetOutput(w io.Writer) { a.Out = w }

// open finds the controllers.  The returned release func closes every
// device and then the trace file; it must be called once the caller
// is done with the devices.
func (a *Access) open(ctx context.Context) ([]*hpm.Device, func(), error) {
	opts := []discovery.Option{
		discovery.WithLogger(a.Logger),
		discovery.WithMetrics(a.Metrics),
	}

	var rec *trace.Recorder
	if a.TracePath != "" {
		r, err := trace.Create(a.TracePath)
		if err != nil {
			return nil, nil, fmt.Errorf("trace: %w", err)
		}
		rec = r
		opts = append(opts, discovery.WithRecorder(rec))
		a.Logger.Verbose("Recording register traffic to %s (run %s)", a.TracePath, rec.RunID())
	}
	opts = append(opts, a.Find...)

	devices, err := discovery.Find(ctx, a.Driver, opts...)
	if err != nil {
		a.closeTrace(rec)
		return nil, nil, err
	}

	release := func() {
		for _, d := range devices {
			if err := d.Close(); err != nil {
				a.Logger.Warn("%s: %v", d.Name(), err)
			}
		}
		a.closeTrace(rec)
	}
	return devices, release, nil
}

func (a *Access) closeTrace(rec *trace.Recorder) {
	if rec == nil {
		return
	}
	if err := rec.Err(); err != nil {
		a.Logger.Warn("Trace incomplete: %v", err)
	}
	if err := rec.Close(); err != nil {
		a.Logger.Warn("Closing trace: %v", err)
	}
}

// finish prints the report and, when asked, the metrics snapshot.  A
// run cut short by ctx reports what it did and then returns ctx's
// error.
func (a *Access) finish(ctx context.Context, r *session.Report) error {
	out := a.Out
	if out == nil {
		out = io.Discard
	}
	if err := r.WriteTable(out); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	a.Logger.Info("%s", r.Summary())
	if a.Stats {
		fmt.Fprintln(out, a.Metrics.JSON())
	}
	if r.Cancelled {
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}
	return nil
}
