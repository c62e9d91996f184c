package trace

import (
	"errors"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events.  Zero fields match everything.
type Filter struct {
	Device string
	Port   *int
	Op     *Op
}

func (f *Filter) matches(e Event) bool {
	if f.Device != "" && e.Device != f.Device {
		return false
	}
	if f.Port != nil && e.Port != *f.Port {
		return false
	}
	if f.Op != nil && e.Op != *f.Op {
		return false
	}
	return true
}

// Reader streams events back out of a trace.
type Reader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader reads events from r.
func NewReader(r io.Reader, filter Filter) *Reader {
	rd := &Reader{decoder: newDecoder(r), filter: filter}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Open reads events from the trace file at path.
func Open(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, filter), nil
}

// Next returns the next matching event, or io.EOF at the end.
func (r *Reader) Next() (Event, error) {
	for {
		var e Event
		if err := r.decoder.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(e) {
			return e, nil
		}
	}
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
