package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hpmdfu.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
driver: sim
sim:
  layout: "sink,source+dbma"
  devices: 2
ports: [0, 1]
key: "0xdeadbeef"
yes: true
verbose: 2
stats: true
`)
	cfg := Defaults()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatal(err)
	}
	if cfg.SimLayout != "sink,source+dbma" || cfg.SimDevices != 2 {
		t.Errorf("sim section not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Ports, []int{0, 1}) {
		t.Errorf("Ports = %v", cfg.Ports)
	}
	if cfg.Key != "0xdeadbeef" || !cfg.Yes || cfg.Verbose != 2 || !cfg.Stats {
		t.Errorf("scalars not applied: %+v", cfg)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
	if cfg.Driver != DefaultDriver || cfg.Model != "" {
		t.Errorf("absent keys must not change values: %+v", cfg)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeFile(t, "drvier: sim\n")
	err := LoadFile(Defaults(), path)
	if err == nil || !strings.Contains(err.Error(), "drvier") {
		t.Errorf("expected unknown-key error, got %v", err)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg := Defaults()
	if err := LoadFile(cfg, writeFile(t, "")); err != nil {
		t.Fatal(err)
	}
	cfg.ConfigFile = ""
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Errorf("empty file changed config: %+v", cfg)
	}
}

func TestLoadFileIfExists(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	if err := LoadFileIfExists(Defaults(), missing); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
	if err := LoadFile(Defaults(), missing); err == nil {
		t.Error("LoadFile should report a missing file")
	}
}
