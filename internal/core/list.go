package core

import (
	"context"

	"hpmdfu/internal/session"
)

// ListMode reports the connection and status of each port without
// issuing a single command.
type ListMode struct {
	Access

	Ports []int
}

func (m *ListMode) Run(ctx context.Context) error {
	devices, release, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	s := session.New(0, m.Logger, m.Metrics)
	s.Ports = m.Ports
	s.ListOnly = true
	return m.finish(ctx, s.Run(ctx, devices))
}
