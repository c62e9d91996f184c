package core

import (
	"context"
	"errors"
	"fmt"

	"hpmdfu/internal/hostkey"
	"hpmdfu/internal/session"
)

// ErrAborted is returned when the operator declines the confirmation
// prompt.
var ErrAborted = errors.New("aborted by operator")

// DFUMode finds every controller and reboots the partner on each of
// the selected ports into its firmware-update mode.
type DFUMode struct {
	Access

	Keys  hostkey.Source
	Ports []int // nil visits every port

	// Confirm is asked once devices are found.  Nil proceeds.
	Confirm Confirmer
}

// Run fetches the unlock key, finds devices, confirms, then runs the
// session.  Port failures are reported, not returned.
func (m *DFUMode) Run(ctx context.Context) error {
	key, err := m.Keys.UnlockKey()
	if err != nil {
		return fmt.Errorf("unlock key: %w", err)
	}
	m.Logger.Verbose("Unlock key: 0x%08x", key)

	devices, release, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	if m.Confirm != nil {
		q := fmt.Sprintf("Reboot port partners on %d device(s) into DFU mode?", len(devices))
		ok, err := m.Confirm(q)
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			return ErrAborted
		}
	}

	s := session.New(key, m.Logger, m.Metrics)
	s.Ports = m.Ports
	return m.finish(ctx, s.Run(ctx, devices))
}
