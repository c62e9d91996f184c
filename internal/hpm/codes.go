package hpm

import (
	"encoding/binary"
	"fmt"
)

// Code is a controller command: four ASCII characters packed
// big-endian into 32 bits.
type Code uint32

// Mnemonic packs a 4-character command name.
func Mnemonic(s string) Code {
	if len(s) != 4 {
		panic(fmt.Sprintf("hpm: command mnemonic %q is not 4 characters", s))
	}
	return Code(binary.BigEndian.Uint32([]byte(s)))
}

// Commands used by the unlock / mode / VDM protocol.
var (
	CmdLock  = Mnemonic("LOCK") // unlock with a 4-byte key
	CmdReset = Mnemonic("Gaid") // clear a latched lock failure
	CmdDBMa  = Mnemonic("DBMa") // enter (0x01) or leave (0x00) management mode
	CmdVDMs  = Mnemonic("VDMs") // send a vendor-defined message
)

func (c Code) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(c))
	return string(b[:])
}

// Register data addresses.
const (
	RegMode       byte = 0x03 // status mnemonic, NUL-terminated
	RegArgs       byte = 0x09 // command argument in, result out
	RegConnection byte = 0x3f // connection status bits
	RegVDMStatus  byte = 0x4d // VDM sequence byte followed by the reply header
)

// NumPorts is the number of addressable ports on a controller.
const NumPorts = 5

// ManagementMode is the status mnemonic of a port in management bus mode.
const ManagementMode = "DBMa"

// Result is the outcome of a command: the low nibble of byte 0 of the
// argument register, or ResultFailed when the command could not be
// issued.  Only ResultOK means success; other values are not decoded.
type Result int

const (
	ResultOK     Result = 0
	ResultFailed Result = -1
)

// OK reports whether the controller accepted the command.
func (r Result) OK() bool { return r == ResultOK }

// ConnectionType classifies the 0x3f connection status byte.
type ConnectionType int

const (
	ConnectionNone ConnectionType = iota
	ConnectionSource
	ConnectionSink
)

// ClassifyConnection decodes the first byte of register 0x3f.
func ClassifyConnection(status byte) ConnectionType {
	switch {
	case status&0x01 == 0:
		return ConnectionNone
	case status&0x02 == 0:
		return ConnectionSource
	default:
		return ConnectionSink
	}
}

func (c ConnectionType) String() string {
	switch c {
	case ConnectionSource:
		return "Source"
	case ConnectionSink:
		return "Sink"
	default:
		return "None"
	}
}
