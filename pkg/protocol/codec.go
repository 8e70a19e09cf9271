package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// DeadlineConn is the subset of net.Conn the codec needs for
// deadline-bounded receives. net.Pipe and TCP connections both
// satisfy it.
type DeadlineConn interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// Codec frames packets over a byte stream. The incoming buffer
// survives between calls so a deadline-bounded receive never loses a
// partial frame.
type Codec struct {
	incoming []byte
}

// NewCodec creates a codec with an empty receive buffer.
func NewCodec() *Codec {
	return &Codec{incoming: make([]byte, 0, 64*1024)}
}

// ReadPacketDeadline returns the next complete packet, or nil when
// the deadline elapses first. Partial data stays buffered for the
// next call. Timeouts on the underlying read are absorbed; any other
// I/O error propagates.
func (c *Codec) ReadPacketDeadline(conn DeadlineConn, deadline time.Time) (*Packet, error) {
	for {
		if pkt, ok, err := c.tryDecodeFrame(); err != nil {
			return nil, err
		} else if ok {
			return pkt, nil
		}

		if !time.Now().Before(deadline) {
			return nil, nil
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		var chunk [4096]byte
		n, err := conn.Read(chunk[:])
		conn.SetReadDeadline(time.Time{})
		c.incoming = append(c.incoming, chunk[:n]...)
		if err != nil {
			if isTimeout(err) {
				return nil, nil
			}
			return nil, err
		}
	}
}

// tryDecodeFrame attempts to consume one complete frame from the
// incoming buffer.
func (c *Codec) tryDecodeFrame() (*Packet, bool, error) {
	length, used, ok := tryDecodeLength(c.incoming)
	if !ok {
		return nil, false, nil
	}
	if length < 1 || length > 2097151 {
		return nil, false, &DecodeError{Reason: fmt.Sprintf("packet length out of range: %d", length)}
	}
	if len(c.incoming) < used+length {
		return nil, false, nil
	}
	frame := c.incoming[used : used+length]
	pr := bytes.NewReader(frame)
	id, idLen, err := ReadVarInt(pr)
	if err != nil {
		return nil, false, err
	}
	data := make([]byte, length-idLen)
	copy(data, frame[idLen:])
	c.incoming = c.incoming[:copy(c.incoming, c.incoming[used+length:])]
	return &Packet{ID: id, Data: data}, true, nil
}

// tryDecodeLength decodes a VarInt length prefix from buf without
// consuming it. Returns ok=false when the prefix itself is
// incomplete.
func tryDecodeLength(buf []byte) (length, used int, ok bool) {
	var result int32
	for i, b := range buf {
		result |= int32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int(result), i + 1, true
		}
	}
	return 0, 0, false
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
