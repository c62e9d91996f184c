// Package hostkey supplies the 32-bit unlock key an HPM controller
// expects from its host.  The key is derived from the host's board
// identifier: its first four characters packed big-endian.
package hostkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by the platform source on hosts that have
// no board identifier to derive a key from.
var ErrUnsupported = errors.New("hostkey: no platform key source on this OS")

// Source yields the unlock key.  It is called once per session.
type Source interface {
	UnlockKey() (uint32, error)
}

// Func adapts a function to Source.
type Func func() (uint32, error)

func (f Func) UnlockKey() (uint32, error) { return f() }

// Static always returns key.
type Static uint32

func (s Static) UnlockKey() (uint32, error) { return uint32(s), nil }

// Model derives the key from a board identifier such as "J293AP".
type Model string

func (m Model) UnlockKey() (uint32, error) { return ModelKey(string(m)) }

// ModelKey packs the first four characters of name big-endian.
func ModelKey(name string) (uint32, error) {
	name = strings.TrimSpace(name)
	if len(name) < 4 {
		return 0, fmt.Errorf("hostkey: model %q is shorter than 4 characters", name)
	}
	return uint32(name[0])<<24 | uint32(name[1])<<16 | uint32(name[2])<<8 | uint32(name[3]), nil
}

// Platform returns the key source of the running host.
func Platform() Source { return Func(platformKey) }

func platformKey() (uint32, error) {
	name, err := platformModel()
	if err != nil {
		return 0, err
	}
	return ModelKey(name)
}
