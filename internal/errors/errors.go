// Package errors provides domain-specific error types for hpmdfu.
//
// Two failure kinds matter to callers: a TransportError means one of the
// register primitives (Read, Write, Issue) failed outright, while a
// ProtocolError means the primitive succeeded but the controller did not
// answer the way the protocol requires.  Callers decide between "log and
// move on" and "abort" with [errors.As] instead of matching strings.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrUnlockFailed   = errors.New("unlock failed")
	ErrModeNotEntered = errors.New("failed to enter management mode")
	ErrModeNotExited  = errors.New("failed to leave management mode")
	ErrVDMRejected    = errors.New("VDM send rejected")
	ErrVDMTimeout     = errors.New("timeout")
	ErrVDMNack        = errors.New("nack")
	ErrInvalidFrame   = errors.New("invalid VDM frame")
	ErrNoDevices      = errors.New("no suitable devices found after multiple attempts")
	ErrDeviceClosed   = errors.New("device is closed")
)

// ── Structured error types ───────────────────────────────────────────

// TransportError represents a failure of a register primitive.
type TransportError struct {
	Op   string // "read", "write", "issue", "open"
	Port int
	Reg  byte   // data address; zero for "issue" and "open"
	Code string // command mnemonic for "issue"
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Op {
	case "issue":
		return fmt.Sprintf("issue %s on port %d: %v", e.Code, e.Port, e.Err)
	case "open":
		return fmt.Sprintf("open: %v", e.Err)
	default:
		return fmt.Sprintf("%s port %d reg 0x%02x: %v", e.Op, e.Port, e.Reg, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError represents a protocol expectation the controller did not
// meet.  Err is one of the sentinels above; Value carries the raw result
// code or reply header when one exists.
type ProtocolError struct {
	Op       string // "unlock", "mode", "vdm"
	Port     int
	Err      error
	Value    uint32
	HasValue bool
}

func (e *ProtocolError) Error() string {
	s := fmt.Sprintf("%s port %d: %v", e.Op, e.Port, e.Err)
	if e.HasValue {
		s += fmt.Sprintf(" (reply: 0x%08x)", e.Value)
	}
	return s
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Transport creates a TransportError for a register Read or Write.
func Transport(op string, port int, reg byte, err error) *TransportError {
	return &TransportError{Op: op, Port: port, Reg: reg, Err: err}
}

// Issue creates a TransportError for a failed command issue.
func Issue(port int, code string, err error) *TransportError {
	return &TransportError{Op: "issue", Port: port, Code: code, Err: err}
}

// Protocol creates a ProtocolError without a diagnostic value.
func Protocol(op string, port int, sentinel error) *ProtocolError {
	return &ProtocolError{Op: op, Port: port, Err: sentinel}
}

// ProtocolValue creates a ProtocolError carrying the raw value the
// controller answered with.
func ProtocolValue(op string, port int, sentinel error, v uint32) *ProtocolError {
	return &ProtocolError{Op: op, Port: port, Err: sentinel, Value: v, HasValue: true}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err is, or wraps, a ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// Kind returns "transport", "protocol" or "other" for log lines and
// metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTransport(err):
		return "transport"
	case IsProtocol(err):
		return "protocol"
	default:
		return "other"
	}
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use hpmdfu/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
