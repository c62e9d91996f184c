package hpm

import (
	"bytes"
	"encoding/binary"

	"hpmdfu/internal/transport"
)

// BufferSize is the fixed length of every register read.
const BufferSize = transport.BufferSize

// Buffer is one register read.  Only the leading bytes a caller asks
// for carry meaning; the rest is padding with unspecified contents.
type Buffer [BufferSize]byte

// newBuffer copies a transport read into a fixed buffer.  Short reads
// leave the tail zeroed, long reads are truncated.
func newBuffer(b []byte) Buffer {
	var buf Buffer
	copy(buf[:], b)
	return buf
}

// Byte returns the byte at off.
func (b *Buffer) Byte(off int) byte { return b[off] }

// Uint32 decodes the 4 bytes at off in the register byte order.
func (b *Buffer) Uint32(off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}

// CString returns the field of at most n bytes starting at off, cut at
// its first NUL.  Bytes after the terminator are ignored whatever they
// hold.
func (b *Buffer) CString(off, n int) string {
	end := off + n
	if end > BufferSize {
		end = BufferSize
	}
	field := b[off:end]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// Mode returns the status mnemonic held in a RegMode read.
func (b *Buffer) Mode() string { return b.CString(0, BufferSize) }

// Bytes returns a copy of the buffer as a slice.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, BufferSize)
	copy(out, b[:])
	return out
}
