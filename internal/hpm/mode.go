package hpm

import (
	hpmerr "hpmdfu/internal/errors"
)

// Arguments of the DBMa command.
var (
	dbmaEnter = []byte{0x01}
	dbmaExit  = []byte{0x00}
)

// InManagementMode reports whether port's status mnemonic reads DBMa.
func (d *Device) InManagementMode(port int) (bool, error) {
	mode, err := d.Mode(port)
	if err != nil {
		return false, err
	}
	return mode == ManagementMode, nil
}

// EnsureManagementMode puts port into management bus mode.  A port
// that already reports DBMa is left alone: no unlock, no commands.
// Otherwise the port is unlocked with key, DBMa is entered and the
// status register must confirm it.
func (d *Device) EnsureManagementMode(port int, key uint32) error {
	mode, err := d.Mode(port)
	if err != nil {
		return err
	}
	d.log.Info("Status: %s", mode)
	if mode == ManagementMode {
		return nil
	}

	if err := d.Unlock(port, key); err != nil {
		return err
	}
	d.metrics.PortUnlocked()

	res, err := d.Command(port, CmdDBMa, dbmaEnter)
	if err != nil {
		return err
	}
	if !res.OK() {
		d.log.Info("Entering DBMa mode... Failed (result %d)", res)
		return hpmerr.ProtocolValue("mode", port, hpmerr.ErrModeNotEntered, uint32(res))
	}

	mode, err = d.Mode(port)
	if err != nil {
		return err
	}
	d.log.Info("Entering DBMa mode... Status: %s", mode)
	if mode != ManagementMode {
		return hpmerr.Protocol("mode", port, hpmerr.ErrModeNotEntered)
	}
	return nil
}

// ExitManagementMode issues DBMa(0x00) on port 0.  It is the teardown
// half of EnsureManagementMode and is run by Close once per device,
// whichever ports were switched.
func (d *Device) ExitManagementMode() error {
	res, err := d.Command(0, CmdDBMa, dbmaExit)
	if err != nil {
		return err
	}
	if !res.OK() {
		return hpmerr.ProtocolValue("mode", 0, hpmerr.ErrModeNotExited, uint32(res))
	}
	return nil
}
