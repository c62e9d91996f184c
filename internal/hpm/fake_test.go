package hpm

import (
	"encoding/binary"
	"fmt"

	"github.com/stretchr/testify/mock"
)

// ---------------------------------------------------------------------------
// scriptedTransport
// ---------------------------------------------------------------------------

// scriptedTransport answers register reads from per-register queues and
// records every primitive in ops.  The last queued value of a queue is
// repeated once the queue is drained.
type scriptedTransport struct {
	modes    []string          // 0x03 reads
	status   [][]byte          // 0x4d reads
	conn     byte              // 0x3f
	results  map[string][]byte // command results by mnemonic
	issueErr map[string]error
	readErr  map[byte]error

	scratch [BufferSize]byte
	ops     []string
	closes  int
}

func newScripted() *scriptedTransport {
	return &scriptedTransport{
		results:  map[string][]byte{},
		issueErr: map[string]error{},
		readErr:  map[byte]error{},
	}
}

func popBytes(q *[][]byte) []byte {
	if len(*q) == 0 {
		return nil
	}
	v := (*q)[0]
	if len(*q) > 1 {
		*q = (*q)[1:]
	}
	return v
}

func (s *scriptedTransport) Read(port int, reg byte, n int) ([]byte, error) {
	s.ops = append(s.ops, fmt.Sprintf("R %d %02x", port, reg))
	if err := s.readErr[reg]; err != nil {
		return nil, err
	}
	buf := make([]byte, BufferSize)
	switch reg {
	case RegMode:
		if len(s.modes) > 0 {
			copy(buf, s.modes[0])
			if len(s.modes) > 1 {
				s.modes = s.modes[1:]
			}
		}
	case RegConnection:
		buf[0] = s.conn
	case RegVDMStatus:
		copy(buf, popBytes(&s.status))
	case RegArgs:
		copy(buf, s.scratch[:])
	}
	return buf[:n], nil
}

func (s *scriptedTransport) Write(port int, reg byte, data []byte) error {
	s.ops = append(s.ops, fmt.Sprintf("W %d %02x % x", port, reg, data))
	s.scratch = [BufferSize]byte{}
	copy(s.scratch[:], data)
	return nil
}

func (s *scriptedTransport) Issue(port int, code uint32) error {
	mnem := Code(code).String()
	s.ops = append(s.ops, fmt.Sprintf("I %d %s", port, mnem))
	if err := s.issueErr[mnem]; err != nil {
		return err
	}
	var res byte
	if q := s.results[mnem]; len(q) > 0 {
		res = q[0]
		if len(q) > 1 {
			s.results[mnem] = q[1:]
		}
	}
	s.scratch[0] = res
	return nil
}

func (s *scriptedTransport) Close() error {
	s.closes++
	s.ops = append(s.ops, "C")
	return nil
}

// issued returns the mnemonics issued, in order.
func (s *scriptedTransport) issued() []string {
	var out []string
	for _, op := range s.ops {
		var port int
		var mnem string
		if _, err := fmt.Sscanf(op, "I %d %s", &port, &mnem); err == nil {
			out = append(out, mnem)
		}
	}
	return out
}

// count returns how many ops equal op.
func (s *scriptedTransport) count(op string) int {
	n := 0
	for _, o := range s.ops {
		if o == op {
			n++
		}
	}
	return n
}

// statusBuf builds a 0x4d read: sequence byte then the reply header.
func statusBuf(seq byte, hdr uint32) []byte {
	b := make([]byte, 5)
	b[0] = seq
	binary.BigEndian.PutUint32(b[1:], hdr)
	return b
}

// ---------------------------------------------------------------------------
// mockTransport
// ---------------------------------------------------------------------------

type mockTransport struct{ mock.Mock }

func (m *mockTransport) Read(port int, reg byte, n int) ([]byte, error) {
	ret := m.Called(port, reg, n)
	var b []byte
	if ret.Get(0) != nil {
		b = ret.Get(0).([]byte)
	}
	return b, ret.Error(1)
}
func (m *mockTransport) Write(port int, reg byte, data []byte) error {
	return m.Called(port, reg, data).Error(0)
}
func (m *mockTransport) Issue(port int, code uint32) error { return m.Called(port, code).Error(0) }
func (m *mockTransport) Close() error                      { return m.Called().Error(0) }
