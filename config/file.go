package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout.  Pointers distinguish "absent"
// from the zero value so only keys present in the file override.
type fileConfig struct {
	Driver *string `yaml:"driver"`
	Sim    struct {
		Layout  *string `yaml:"layout"`
		Devices *int    `yaml:"devices"`
	} `yaml:"sim"`
	Ports   []int   `yaml:"ports"`
	Key     *string `yaml:"key"`
	Model   *string `yaml:"model"`
	Yes     *bool   `yaml:"yes"`
	Verbose *int    `yaml:"verbose"`
	Trace   *string `yaml:"trace"`
	Stats   *bool   `yaml:"stats"`
	History *string `yaml:"history"`
}

// LoadFile overlays the YAML file at path onto cfg.  Unknown keys are
// an error so typos do not pass silently.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := decodeFile(cfg, data); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// LoadFileIfExists is LoadFile, except a missing file is not an error.
func LoadFileIfExists(cfg *Config, path string) error {
	err := LoadFile(cfg, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func decodeFile(cfg *Config, data []byte) error {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if fc.Driver != nil {
		cfg.Driver = *fc.Driver
	}
	if fc.Sim.Layout != nil {
		cfg.SimLayout = *fc.Sim.Layout
	}
	if fc.Sim.Devices != nil {
		cfg.SimDevices = *fc.Sim.Devices
	}
	if fc.Ports != nil {
		cfg.Ports = fc.Ports
	}
	if fc.Key != nil {
		cfg.Key = *fc.Key
	}
	if fc.Model != nil {
		cfg.Model = *fc.Model
	}
	if fc.Yes != nil {
		cfg.Yes = *fc.Yes
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Trace != nil {
		cfg.Trace = *fc.Trace
	}
	if fc.Stats != nil {
		cfg.Stats = *fc.Stats
	}
	if fc.History != nil {
		cfg.HistoryFile = *fc.History
	}
	return nil
}
