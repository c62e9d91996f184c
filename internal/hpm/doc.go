// Package hpm speaks the register protocol of an HPM USB-C port
// controller on top of a [transport.Transport].
//
// The layers, bottom up:
//
//	Command            write args to 0x09, issue, read result nibble
//	Unlock             LOCK with the host key, one Gaid reset + retry
//	EnsureManagementMode  status 0x03 must read "DBMa" afterwards
//	Exchange           VDMs frame, poll 0x4d for a new sequence byte
//	TriggerUpdateMode  the fixed reboot-to-DFU VDM
//
// A [Device] owns its transport exclusively.  Its Close leaves
// management mode on port 0 and releases the transport exactly once.
package hpm
