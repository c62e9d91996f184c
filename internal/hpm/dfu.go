package hpm

import "context"

// DFUHeader is the vendor header of the reboot-to-DFU request.
const DFUHeader uint32 = 0x05ac8012

// dfuRequest is the full reboot-to-DFU VDM: header plus two fixed
// configuration words.
var dfuRequest = []uint32{DFUHeader, 0x00000106, 0x80010000}

// DFURequest returns a copy of the reboot-to-DFU VDM words.
func DFURequest() []uint32 {
	return append([]uint32(nil), dfuRequest...)
}

// TriggerUpdateMode asks the partner on port to reboot into firmware
// update mode.  On success the partner drops off the bus; nothing
// further should be sent to that port.
func (d *Device) TriggerUpdateMode(ctx context.Context, port int) error {
	if _, err := d.Exchange(ctx, port, dfuRequest); err != nil {
		d.log.Info("Rebooting target into DFU mode... Failed")
		return err
	}
	d.log.Info("Rebooting target into DFU mode... OK")
	return nil
}
