package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"hpmdfu/internal/trace"
	"hpmdfu/util"
)

// DumpTraceMode prints a recorded trace file, one event per line.  It
// never touches a device.
type DumpTraceMode struct {
	Path   string
	Filter trace.Filter
	Out    io.Writer
	Logger *util.Logger
}

// SetOutput redirects the event lines.
func (m *DumpTraceMode) SetOutput(w io.Writer) { m.Out = w }

func (m *DumpTraceMode) Run(ctx context.Context) error {
	r, err := trace.Open(m.Path, m.Filter)
	if err != nil {
		return err
	}
	defer r.Close()

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: event %d: %w", m.Path, n+1, err)
		}
		fmt.Fprintln(m.Out, ev)
		n++
	}
	m.Logger.Verbose("%d event(s) in %s", n, m.Path)
	return nil
}
