//go:build darwin

package hostkey

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// platformModel reads the board identifier (e.g. "J293AP") that the
// platform expert device is named after.
func platformModel() (string, error) {
	name, err := unix.Sysctl("hw.target")
	if err != nil {
		return "", fmt.Errorf("hostkey: sysctl hw.target: %w", err)
	}
	name = strings.TrimRight(name, "\x00")
	if name == "" {
		return "", fmt.Errorf("hostkey: sysctl hw.target is empty")
	}
	return name, nil
}
