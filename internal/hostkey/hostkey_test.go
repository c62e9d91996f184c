package hostkey

import (
	"errors"
	"runtime"
	"testing"
)

func TestModelKey(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		want    uint32
		wantErr bool
	}{
		{"board id", "J293AP", 0x4a323933, false},
		{"exactly four", "J313", 0x4a333133, false},
		{"surrounding space", "  J293AP\n", 0x4a323933, false},
		{"too short", "J29", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ModelKey(tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got 0x%08x", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}

func TestSources(t *testing.T) {
	var s Source = Static(0xdeadbeef)
	if k, err := s.UnlockKey(); err != nil || k != 0xdeadbeef {
		t.Errorf("Static: 0x%08x, %v", k, err)
	}

	s = Model("J293AP")
	if k, err := s.UnlockKey(); err != nil || k != 0x4a323933 {
		t.Errorf("Model: 0x%08x, %v", k, err)
	}

	boom := errors.New("boom")
	s = Func(func() (uint32, error) { return 0, boom })
	if _, err := s.UnlockKey(); !errors.Is(err, boom) {
		t.Errorf("Func: %v", err)
	}
}

func TestPlatform_Unsupported(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin has a platform key source")
	}
	if _, err := Platform().UnlockKey(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}
