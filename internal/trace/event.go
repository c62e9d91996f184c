// Package trace records every register primitive a run performs as a
// stream of CBOR events, and reads such streams back.
//
// A trace is the evidence left behind when a controller misbehaves in
// the field: it holds the exact bytes written, the results read back
// and the errors the platform binding reported, in order.
package trace

import (
	"fmt"
	"strings"
	"time"
)

// Op identifies the primitive an event records.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
	OpIssue
	OpClose
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpIssue:
		return "issue"
	case OpClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one register primitive.  CBOR encoding uses integer keys.
type Event struct {
	Time   time.Time `cbor:"1,keyasint"`
	RunID  string    `cbor:"2,keyasint"`
	Device string    `cbor:"3,keyasint"`
	Op     Op        `cbor:"4,keyasint"`
	Port   int       `cbor:"5,keyasint"`
	Reg    byte      `cbor:"6,keyasint,omitempty"`
	Data   []byte    `cbor:"7,keyasint,omitempty"` // bytes read or written
	Code   uint32    `cbor:"8,keyasint,omitempty"` // command for OpIssue
	Err    string    `cbor:"9,keyasint,omitempty"`
}

// String renders the event as one human-readable line.
func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s ", e.Time.Format("15:04:05.000000"), e.Device)
	switch e.Op {
	case OpRead, OpWrite:
		fmt.Fprintf(&b, "%-5s port %d reg 0x%02x", e.Op, e.Port, e.Reg)
		if len(e.Data) > 0 {
			fmt.Fprintf(&b, " [% x]", trimPadding(e.Data))
		}
	case OpIssue:
		fmt.Fprintf(&b, "%-5s port %d %s", e.Op, e.Port, mnemonic(e.Code))
	default:
		b.WriteString(e.Op.String())
	}
	if e.Err != "" {
		fmt.Fprintf(&b, " error: %s", e.Err)
	}
	return b.String()
}

// trimPadding drops trailing zero bytes from a register read so the
// dump shows what matters.  At least one byte is kept.
func trimPadding(b []byte) []byte {
	n := len(b)
	for n > 1 && b[n-1] == 0 {
		n--
	}
	return b[:n]
}

func mnemonic(code uint32) string {
	s := []byte{byte(code >> 24), byte(code >> 16), byte(code >> 8), byte(code)}
	for _, c := range s {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", code)
		}
	}
	return string(s)
}
