package core

import (
	"context"

	"hpmdfu/internal/console"
	"hpmdfu/internal/hostkey"
)

// ConsoleMode opens an interactive register console on the first
// controller found.
type ConsoleMode struct {
	Access

	Keys        hostkey.Source
	HistoryFile string
}

// Run keeps going without a key; only the console's unlock and dbma
// commands need one.
func (m *ConsoleMode) Run(ctx context.Context) error {
	key, err := m.Keys.UnlockKey()
	if err != nil {
		m.Logger.Warn("Unlock key unavailable (%v); unlock will send 0x00000000", err)
		key = 0
	}

	devices, release, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	if len(devices) > 1 {
		m.Logger.Info("Using %s; %d other device(s) stay idle", devices[0].Name(), len(devices)-1)
	}
	return console.New(devices[0], key, m.Out).Run(ctx, m.HistoryFile)
}
