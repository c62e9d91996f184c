package core

import (
	"strings"
	"testing"

	"hpmdfu/config"
	"hpmdfu/util"
)

// TestBuild_DFU verifies that the default configuration builds a DFUMode
// that asks before rebooting anything.
func TestBuild_DFU(t *testing.T) {
	cfg := config.Defaults()
	logger := util.NewLogger(0)

	mode, err := Build(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := mode.(*DFUMode)
	if !ok {
		t.Fatalf("expected *DFUMode, got %T", mode)
	}
	if m.Confirm == nil {
		t.Error("expected a confirmation prompt without --yes")
	}
	if m.Metrics == nil {
		t.Error("expected a metrics collector")
	}
}

// TestBuild_DFU_Yes verifies --yes removes the prompt.
func TestBuild_DFU_Yes(t *testing.T) {
	cfg := config.Defaults()
	cfg.Yes = true

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if m := mode.(*DFUMode); m.Confirm != nil {
		t.Error("expected no confirmation prompt with --yes")
	}
}

// TestBuild_List verifies Build produces a ListMode.
func TestBuild_List(t *testing.T) {
	cfg := config.Defaults()
	cfg.List = true
	cfg.Ports = []int{0, 2}

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := mode.(*ListMode)
	if !ok {
		t.Fatalf("expected *ListMode, got %T", mode)
	}
	if len(m.Ports) != 2 || m.Ports[1] != 2 {
		t.Errorf("ports = %v, want [0 2]", m.Ports)
	}
}

// TestBuild_Console verifies Build produces a ConsoleMode.
func TestBuild_Console(t *testing.T) {
	cfg := config.Defaults()
	cfg.Console = true
	cfg.HistoryFile = "/tmp/hpmdfu_history"

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := mode.(*ConsoleMode)
	if !ok {
		t.Fatalf("expected *ConsoleMode, got %T", mode)
	}
	if m.HistoryFile != cfg.HistoryFile {
		t.Errorf("history = %q", m.HistoryFile)
	}
}

// TestBuild_DumpTrace verifies Build produces a DumpTraceMode even when
// no driver is configured.
func TestBuild_DumpTrace(t *testing.T) {
	cfg := &config.Config{DumpTrace: "run.cbor"}

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := mode.(*DumpTraceMode)
	if !ok {
		t.Fatalf("expected *DumpTraceMode, got %T", mode)
	}
	if m.Path != "run.cbor" {
		t.Errorf("path = %q", m.Path)
	}
}

// TestBuild_UnknownDriver verifies an unregistered driver is rejected.
func TestBuild_UnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.Driver = "no-such-driver"

	_, err := Build(cfg, util.NewLogger(0))
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown transport driver") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestBuildKeys verifies the key source precedence.
func TestBuildKeys(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		model string
		want  uint32
	}{
		{"explicit key", "0xdeadbeef", "", 0xdeadbeef},
		{"bare hex key", "DEADBEEF", "", 0xdeadbeef},
		{"board identifier", "", "J293AP", 0x4a323933},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Key = tt.key
			cfg.Model = tt.model

			src, err := buildKeys(cfg, util.NewLogger(0))
			if err != nil {
				t.Fatal(err)
			}
			got, err := src.UnlockKey()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("key = 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}

// TestBuildKeys_SimWithoutHostIdentifier verifies the simulator never
// fails for want of a board identifier.
func TestBuildKeys_SimWithoutHostIdentifier(t *testing.T) {
	src, err := buildKeys(config.Defaults(), util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.UnlockKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestBuildKeys_BadKey verifies an unparsable key surfaces as an error.
func TestBuildKeys_BadKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.Key = "xyz"
	if _, err := buildKeys(cfg, util.NewLogger(0)); err == nil {
		t.Fatal("expected error for bad key")
	}
}
