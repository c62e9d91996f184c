package transport

import (
	"strings"
	"testing"
)

type nopDriver struct{}

func (nopDriver) Enumerate() ([]Candidate, error) { return nil, nil }
func (nopDriver) Open(Candidate) (Transport, error) { return nil, nil }

// TestRegistry verifies Register/Lookup round trip and the sorted name list.
func TestRegistry(t *testing.T) {
	Register("test-b", nopDriver{})
	Register("test-a", nopDriver{})

	if _, err := Lookup("test-a"); err != nil {
		t.Fatalf("Lookup(test-a): %v", err)
	}

	names := Drivers()
	ia, ib := -1, -1
	for i, n := range names {
		switch n {
		case "test-a":
			ia = i
		case "test-b":
			ib = i
		}
	}
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("Drivers() = %v, want test-a before test-b", names)
	}
}

// TestLookup_Unknown verifies the error lists the registered drivers.
func TestLookup_Unknown(t *testing.T) {
	Register("test-known", nopDriver{})

	_, err := Lookup("iokit-missing")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), `"iokit-missing"`) || !strings.Contains(err.Error(), "test-known") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestRegister_Panics verifies duplicate and empty registrations panic.
func TestRegister_Panics(t *testing.T) {
	Register("test-dup", nopDriver{})

	tests := []struct {
		name string
		fn   func()
	}{
		{"duplicate", func() { Register("test-dup", nopDriver{}) }},
		{"empty name", func() { Register("", nopDriver{}) }},
		{"nil driver", func() { Register("test-nil", nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestCandidate_String(t *testing.T) {
	c := Candidate{ID: "hpm0", Path: "IOService:/AppleHPM@0"}
	if c.String() != "IOService:/AppleHPM@0" {
		t.Errorf("got %q", c.String())
	}
	c.Path = ""
	if c.String() != "hpm0" {
		t.Errorf("got %q", c.String())
	}
}
