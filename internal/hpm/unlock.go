package hpm

import (
	"encoding/binary"

	hpmerr "hpmdfu/internal/errors"
)

// KeyBytes encodes an unlock key the way LOCK expects its argument.
func KeyBytes(key uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, key)
	return b
}

// Unlock authenticates port with key.  A refused LOCK gets exactly one
// Gaid reset and one more LOCK; the key does not change between tries
// so looping further would not help.  Transport failures abort at once.
func (d *Device) Unlock(port int, key uint32) error {
	args := KeyBytes(key)

	res, err := d.Command(port, CmdLock, args)
	if err != nil {
		return err
	}
	if res.OK() {
		d.log.Info("Unlocking... OK")
		return nil
	}
	d.log.Info("Unlocking... Failed (result %d)", res)

	res, err = d.Command(port, CmdReset, nil)
	if err != nil {
		return err
	}
	if !res.OK() {
		d.log.Info("Trying to reset... Failed (result %d)", res)
		return hpmerr.ProtocolValue("unlock", port, hpmerr.ErrUnlockFailed, uint32(res))
	}
	d.log.Info("Trying to reset... OK")

	res, err = d.Command(port, CmdLock, args)
	if err != nil {
		return err
	}
	if !res.OK() {
		d.log.Info("Unlocking... Failed (result %d)", res)
		return hpmerr.ProtocolValue("unlock", port, hpmerr.ErrUnlockFailed, uint32(res))
	}
	d.log.Info("Unlocking... OK")
	return nil
}
