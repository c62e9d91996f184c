package transport

import (
	"encoding/binary"
	"errors"
	"testing"
)

func openFirst(t *testing.T, d *SimDriver) Transport {
	t.Helper()
	cands, err := d.Enumerate()
	if err != nil {
		t.Fatal(err)
	}
	tr, err := d.Open(cands[0])
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func command(t *testing.T, tr Transport, port int, mnem string, arg []byte) byte {
	t.Helper()
	if len(arg) > 0 {
		if err := tr.Write(port, 0x09, arg); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := tr.Issue(port, binary.BigEndian.Uint32([]byte(mnem))); err != nil {
		t.Fatalf("issue %s: %v", mnem, err)
	}
	b, err := tr.Read(port, 0x09, BufferSize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return b[0]
}

func TestParseSimLayout(t *testing.T) {
	ports, err := ParseSimLayout("sink, none,SOURCE+dbma")
	if err != nil {
		t.Fatal(err)
	}
	want := []SimPort{{Connection: SimSink}, {Connection: SimNone}, {Connection: SimSource, DBMa: true}}
	if len(ports) != len(want) {
		t.Fatalf("got %d ports, want %d", len(ports), len(want))
	}
	for i := range want {
		if ports[i] != want[i] {
			t.Errorf("port %d: got %+v, want %+v", i, ports[i], want[i])
		}
	}

	for _, bad := range []string{"", "sink,usb3", "dbma"} {
		if _, err := ParseSimLayout(bad); err == nil {
			t.Errorf("ParseSimLayout(%q): expected error", bad)
		}
	}
}

func TestSimDriver_Enumerate(t *testing.T) {
	d := NewSimDriver(SimConfig{Devices: 3, Ports: []SimPort{{}}})
	cands, err := d.Enumerate()
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 3 || cands[2].ID != "hpm2" || cands[2].Path != "sim:/AppleHPM@2" {
		t.Errorf("unexpected candidates: %v", cands)
	}
	if _, err := d.Open(Candidate{ID: "hpm9"}); err == nil {
		t.Error("expected error opening a missing device")
	}
}

func TestSim_ReadsAreFullSize(t *testing.T) {
	tr := openFirst(t, NewSimDriver(SimConfig{Ports: []SimPort{{Connection: SimSink}}}))
	for _, reg := range []byte{0x03, 0x09, 0x3f, 0x4d} {
		b, err := tr.Read(0, reg, BufferSize)
		if err != nil {
			t.Fatalf("reg 0x%02x: %v", reg, err)
		}
		if len(b) != BufferSize {
			t.Errorf("reg 0x%02x: %d bytes", reg, len(b))
		}
	}
	if b, _ := tr.Read(0, 0x3f, BufferSize); b[0] != SimSink {
		t.Errorf("connection = 0x%02x", b[0])
	}
	if _, err := tr.Read(7, 0x03, BufferSize); err == nil {
		t.Error("expected error for missing port")
	}
	if err := tr.Write(0, 0x03, []byte{1}); err == nil {
		t.Error("expected error writing a read-only register")
	}
}

func TestSim_LockRefusalsThenKey(t *testing.T) {
	d := NewSimDriver(SimConfig{Key: 0xdeadbeef, LockRefusals: 1, Ports: []SimPort{{}}})
	tr := openFirst(t, d)
	key := []byte{0xde, 0xad, 0xbe, 0xef}

	if r := command(t, tr, 0, "LOCK", key); r == 0 {
		t.Fatal("first LOCK should be refused")
	}
	if r := command(t, tr, 0, "DBMa", []byte{1}); r == 0 {
		t.Fatal("DBMa must be refused while locked")
	}
	if r := command(t, tr, 0, "LOCK", key); r != 0 {
		t.Fatalf("second LOCK result %d", r)
	}
	if r := command(t, tr, 0, "DBMa", []byte{1}); r != 0 {
		t.Fatalf("DBMa result %d", r)
	}

	st := d.Device(0)
	if st.Modes[0] != "DBMa" || st.LockAttempts[0] != 2 {
		t.Errorf("state: %+v", st)
	}
}

func TestSim_VDMReplyAdvancesSequence(t *testing.T) {
	d := NewSimDriver(SimConfig{ReplyPolls: 3, Ports: []SimPort{{Connection: SimSink, DBMa: true}}})
	tr := openFirst(t, d)

	frame := []byte{0x31, 0x05, 0xac, 0x80, 0x12}
	if r := command(t, tr, 0, "VDMs", frame); r != 0 {
		t.Fatalf("VDMs result %d", r)
	}
	var seq []byte
	var last []byte
	for i := 0; i < 3; i++ {
		b, err := tr.Read(0, 0x4d, BufferSize)
		if err != nil {
			t.Fatal(err)
		}
		seq = append(seq, b[0])
		last = b
	}
	if seq[0] != 0x10 || seq[1] != 0x10 || seq[2] != 0x11 {
		t.Errorf("sequence bytes % x", seq)
	}
	if got := binary.BigEndian.Uint32(last[1:5]); got != 0x05ac8052 {
		t.Errorf("reply header 0x%08x", got)
	}
	if !d.Device(0).Rebooted[0] {
		t.Error("acknowledged partner should reboot")
	}
}

func TestSim_VDMNeedsManagementMode(t *testing.T) {
	tr := openFirst(t, NewSimDriver(SimConfig{Ports: []SimPort{{Connection: SimSink}}}))
	if r := command(t, tr, 0, "VDMs", []byte{0x31, 0, 0, 0, 0}); r == 0 {
		t.Error("VDMs outside DBMa must be refused")
	}
}

func TestSim_UnknownCommand(t *testing.T) {
	tr := openFirst(t, NewSimDriver(SimConfig{Ports: []SimPort{{}}}))
	if err := tr.Issue(0, 0x41424344); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestSim_Closed(t *testing.T) {
	tr := openFirst(t, NewSimDriver(SimConfig{Ports: []SimPort{{}}}))
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Read(0, 0x03, BufferSize); !errors.Is(err, ErrSimClosed) {
		t.Errorf("read after close: %v", err)
	}
	if err := tr.Issue(0, 0); !errors.Is(err, ErrSimClosed) {
		t.Errorf("issue after close: %v", err)
	}
	if err := tr.Close(); !errors.Is(err, ErrSimClosed) {
		t.Errorf("second close: %v", err)
	}
}
