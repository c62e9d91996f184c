// Package core is the orchestration layer.  It composes drivers,
// discovery and sessions into complete operational modes and provides
// a builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  hpm  →  discovery  →  session  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point between
// the validated configuration and the work a run does.
package core

import "context"

// Mode represents a complete operational mode of hpmdfu (reboot into
// DFU, list, console, or trace dump).  Each mode owns its full
// lifecycle from device discovery to release.
type Mode interface {
	Run(ctx context.Context) error
}
