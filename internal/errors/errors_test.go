package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestTransportError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want string
	}{
		{
			name: "read",
			err:  Transport("read", 2, 0x4d, io.EOF),
			want: "read port 2 reg 0x4d: EOF",
		},
		{
			name: "write",
			err:  Transport("write", 0, 0x09, fmt.Errorf("busy")),
			want: "write port 0 reg 0x09: busy",
		},
		{
			name: "issue",
			err:  Issue(1, "LOCK", fmt.Errorf("0xe00002c0")),
			want: "issue LOCK on port 1: 0xe00002c0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := Transport("read", 0, 0x03, io.EOF)
	if !Is(err, io.EOF) {
		t.Error("should unwrap to io.EOF")
	}
}

func TestProtocolError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *ProtocolError
		want string
	}{
		{
			name: "no value",
			err:  Protocol("unlock", 0, ErrUnlockFailed),
			want: "unlock port 0: unlock failed",
		},
		{
			name: "with reply header",
			err:  ProtocolValue("vdm", 3, ErrVDMNack, 0x05ac8012),
			want: "vdm port 3: nack (reply: 0x05ac8012)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProtocolError_Unwrap(t *testing.T) {
	err := fmt.Errorf("port 0: %w", Protocol("vdm", 0, ErrVDMTimeout))
	if !Is(err, ErrVDMTimeout) {
		t.Error("should unwrap to ErrVDMTimeout")
	}
	if Is(err, ErrVDMNack) {
		t.Error("timeout must not match nack")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "port",
				Value:   7,
				Message: "out of range 0-4",
				Hint:    "HPM devices expose ports 0 through 4",
			},
			want: "config: --port=7: out of range 0-4\n  hint: HPM devices expose ports 0 through 4",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "driver",
				Message: "required",
			},
			want: "config: --driver: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transport bool
		protocol  bool
		kind      string
	}{
		{"nil", nil, false, false, ""},
		{"transport", Transport("read", 0, 0x3f, io.EOF), true, false, "transport"},
		{"wrapped transport", fmt.Errorf("x: %w", Issue(0, "VDMs", io.EOF)), true, false, "transport"},
		{"protocol", Protocol("mode", 1, ErrModeNotEntered), false, true, "protocol"},
		{"plain", fmt.Errorf("boom"), false, false, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransport(tt.err); got != tt.transport {
				t.Errorf("IsTransport() = %v, want %v", got, tt.transport)
			}
			if got := IsProtocol(tt.err); got != tt.protocol {
				t.Errorf("IsProtocol() = %v, want %v", got, tt.protocol)
			}
			if got := Kind(tt.err); got != tt.kind {
				t.Errorf("Kind() = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	// Verify sentinel errors are distinct.
	sentinels := []error{
		ErrUnlockFailed, ErrModeNotEntered, ErrModeNotExited, ErrVDMRejected, ErrVDMTimeout,
		ErrVDMNack, ErrInvalidFrame, ErrNoDevices, ErrDeviceClosed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
