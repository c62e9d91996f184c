package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ParseHexBytes accepts "de ad be ef", "de:ad:be:ef", "0xdeadbeef" or
// "deadbeef" and returns the decoded bytes.
func ParseHexBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex string %q has odd length", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

// ParseUint32 accepts decimal or 0x-prefixed hexadecimal.
func ParseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid 32-bit value %q", s)
	}
	return uint32(v), nil
}

// ParseByte accepts decimal or 0x-prefixed hexadecimal in [0,255].
func ParseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q", s)
	}
	return byte(v), nil
}

// HexDump formats b as space-separated hex, 16 bytes per line, with an
// offset column.  Trailing zero bytes are kept; register padding is
// part of what a reader wants to see.
func HexDump(b []byte) string {
	var sb strings.Builder
	for off := 0; off < len(b); off += 16 {
		end := off + 16
		if end > len(b) {
			end = len(b)
		}
		fmt.Fprintf(&sb, "%02x:", off)
		for _, c := range b[off:end] {
			fmt.Fprintf(&sb, " %02x", c)
		}
		if end < len(b) {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
