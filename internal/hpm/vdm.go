package hpm

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	hpmerr "hpmdfu/internal/errors"
)

const (
	// MaxFrameWords is the most words a frame can carry; the count
	// lives in the low nibble of the control byte.
	MaxFrameWords = 15

	// VDMPollAttempts bounds the reads of the VDM status register
	// while waiting for a reply.
	VDMPollAttempts = 16

	// AckBit is set by the partner in the header it echoes back.
	AckBit uint32 = 0x40

	vdmFrameType = 3
)

// EncodeFrame builds the VDMs argument: a control byte holding the
// frame type and word count, then each word big-endian.
func EncodeFrame(words []uint32) ([]byte, error) {
	if len(words) == 0 || len(words) > MaxFrameWords {
		return nil, fmt.Errorf("%w: %d words (want 1-%d)", hpmerr.ErrInvalidFrame, len(words), MaxFrameWords)
	}
	b := make([]byte, 1+4*len(words))
	b[0] = byte(vdmFrameType<<4 | len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(b[1+4*i:], w)
	}
	return b, nil
}

// DecodeFrame is the inverse of EncodeFrame.  Bytes after the last
// word are ignored.
func DecodeFrame(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", hpmerr.ErrInvalidFrame)
	}
	if b[0]>>4 != vdmFrameType {
		return nil, fmt.Errorf("%w: control byte 0x%02x", hpmerr.ErrInvalidFrame, b[0])
	}
	n := int(b[0] & 0x0f)
	if n == 0 || len(b) < 1+4*n {
		return nil, fmt.Errorf("%w: %d words in %d bytes", hpmerr.ErrInvalidFrame, n, len(b))
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(b[1+4*i:])
	}
	return words, nil
}

// Exchange sends the VDM words on port and waits for the partner's
// acknowledgement, returning the reply header.  The reply must echo
// words[0] with AckBit set; anything else is a nack.
func (d *Device) Exchange(ctx context.Context, port int, words []uint32) (uint32, error) {
	frame, err := EncodeFrame(words)
	if err != nil {
		return 0, err
	}

	status, err := d.ReadRegister(port, RegVDMStatus)
	if err != nil {
		return 0, err
	}
	seq := status.Byte(0)

	res, err := d.Command(port, CmdVDMs, frame)
	if err != nil {
		return 0, err
	}
	if !res.OK() {
		return 0, hpmerr.ProtocolValue("vdm", port, hpmerr.ErrVDMRejected, uint32(res))
	}

	reply, ok, err := d.pollReply(ctx, port, seq)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, hpmerr.Protocol("vdm", port, hpmerr.ErrVDMTimeout)
	}

	hdr := reply.Uint32(1)
	if hdr != words[0]|AckBit {
		d.log.Info("VDM failed (reply: 0x%08x)", hdr)
		return hdr, hpmerr.ProtocolValue("vdm", port, hpmerr.ErrVDMNack, hdr)
	}
	return hdr, nil
}

// pollReply rereads the VDM status register until its sequence byte
// moves off seq, at most VDMPollAttempts times.
func (d *Device) pollReply(ctx context.Context, port int, seq byte) (Buffer, bool, error) {
	for i := 0; i < VDMPollAttempts; i++ {
		if i > 0 && d.poll > 0 {
			select {
			case <-ctx.Done():
				return Buffer{}, false, fmt.Errorf("waiting for VDM reply: %w", ctx.Err())
			case <-time.After(d.poll):
			}
		}
		b, err := d.ReadRegister(port, RegVDMStatus)
		if err != nil {
			return Buffer{}, false, err
		}
		d.metrics.VDMPoll()
		if b.Byte(0) != seq {
			d.log.Debug("VDM reply after %d poll(s)", i+1)
			return b, true, nil
		}
	}
	return Buffer{}, false, nil
}
