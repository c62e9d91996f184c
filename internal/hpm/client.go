package hpm

import (
	hpmerr "hpmdfu/internal/errors"
)

// Command runs one controller command on port: arg (if any) goes into
// the argument register, code is issued, and the low nibble of the
// argument register's first byte comes back as the result.
//
// When Issue itself fails the result is ResultFailed together with a
// TransportError, and nothing is read back.  The argument register is
// overwritten by the result, so arg does not survive the call.
func (d *Device) Command(port int, code Code, arg []byte) (Result, error) {
	if d.closed {
		return ResultFailed, hpmerr.ErrDeviceClosed
	}
	if len(arg) > 0 {
		if err := d.WriteRegister(port, RegArgs, arg); err != nil {
			return ResultFailed, err
		}
	}

	if err := d.t.Issue(port, uint32(code)); err != nil {
		d.metrics.CommandIssued(false)
		return ResultFailed, hpmerr.Issue(port, code.String(), err)
	}

	buf, err := d.ReadRegister(port, RegArgs)
	if err != nil {
		d.metrics.CommandIssued(false)
		return ResultFailed, err
	}
	res := Result(buf.Byte(0) & 0x0f)
	d.metrics.CommandIssued(res.OK())
	d.log.Debug("port %d: %s % x -> %d", port, code, arg, res)
	return res, nil
}
