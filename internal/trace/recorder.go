package trace

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"hpmdfu/internal/transport"
)

// Recorder appends events to a CBOR stream.  It is safe for concurrent
// use; one recorder usually serves every device of a run.
type Recorder struct {
	runID   string
	closer  io.Closer
	encoder *cbor.Encoder
	now     func() time.Time

	mu     sync.Mutex
	closed bool
	err    error
}

// NewRecorder writes events to w, tagging them with a fresh run ID.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{
		runID:   uuid.NewString(),
		encoder: newEncoder(w),
		now:     time.Now,
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Create opens path for appending and records into it.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return NewRecorder(f), nil
}

// RunID returns the ID stamped on every event of this recorder.
func (r *Recorder) RunID() string { return r.runID }

// Record appends e, filling in the time and run ID.  The first write
// error is kept and returned by Err; recording never fails a run.
func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	e.Time = r.now()
	e.RunID = r.runID
	r.err = r.encoder.Encode(e)
}

// Err returns the first encoding or write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close stops recording and closes the underlying writer when it is
// closable.  Safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Wrap returns a transport that records every primitive of t under
// the given device name before passing the result through.
func (r *Recorder) Wrap(device string, t transport.Transport) transport.Transport {
	return &recording{rec: r, device: device, t: t}
}

type recording struct {
	rec    *Recorder
	device string
	t      transport.Transport
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (c *recording) Read(port int, reg byte, n int) ([]byte, error) {
	b, err := c.t.Read(port, reg, n)
	c.rec.Record(Event{Device: c.device, Op: OpRead, Port: port, Reg: reg, Data: b, Err: errString(err)})
	return b, err
}

func (c *recording) Write(port int, reg byte, data []byte) error {
	err := c.t.Write(port, reg, data)
	c.rec.Record(Event{Device: c.device, Op: OpWrite, Port: port, Reg: reg, Data: data, Err: errString(err)})
	return err
}

func (c *recording) Issue(port int, code uint32) error {
	err := c.t.Issue(port, code)
	c.rec.Record(Event{Device: c.device, Op: OpIssue, Port: port, Code: code, Err: errString(err)})
	return err
}

func (c *recording) Close() error {
	err := c.t.Close()
	c.rec.Record(Event{Device: c.device, Op: OpClose, Err: errString(err)})
	return err
}

var _ transport.Transport = (*recording)(nil)
