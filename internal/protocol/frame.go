package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// ActionHeaderSize and MsgLenHeaderSize are the sizes of the two
	// little-endian u32 headers preceding every request payload. The
	// response frame uses the same layout with a result code instead of
	// an action code.
	ActionHeaderSize = 4
	MsgLenHeaderSize = 4
	ResultHeaderSize = 4

	headerSize = ActionHeaderSize + MsgLenHeaderSize

	// MaxPayloadSize guards against a corrupt length header. Real
	// payloads are small JSON objects; the largest legitimate frames are
	// map layer snapshots which stay well under this.
	MaxPayloadSize = 8 << 20
)

// Request is one decoded client frame.
type Request struct {
	Action  Action
	Payload []byte
}

// Framer is an incremental decoder for the request stream. It tolerates
// arbitrary chunking by the OS: partial headers and payloads are buffered
// and continued on the next Feed call.
type Framer struct {
	header     [headerSize]byte
	headerFill int
	payload    []byte
	payloadLen int
	haveHeader bool
}

// Feed consumes one chunk read from the socket and returns all requests
// completed by it. The returned payload slices are owned by the caller.
func (f *Framer) Feed(data []byte) ([]Request, error) {
	var out []Request
	for len(data) > 0 {
		if !f.haveHeader {
			n := copy(f.header[f.headerFill:], data)
			f.headerFill += n
			data = data[n:]
			if f.headerFill < headerSize {
				return out, nil
			}
			f.payloadLen = int(binary.LittleEndian.Uint32(f.header[ActionHeaderSize:]))
			if f.payloadLen > MaxPayloadSize {
				return out, fmt.Errorf("payload length %d exceeds limit %d", f.payloadLen, MaxPayloadSize)
			}
			f.payload = make([]byte, 0, f.payloadLen)
			f.haveHeader = true
		}

		take := f.payloadLen - len(f.payload)
		if take > len(data) {
			take = len(data)
		}
		f.payload = append(f.payload, data[:take]...)
		data = data[take:]
		if len(f.payload) < f.payloadLen {
			return out, nil
		}

		out = append(out, Request{
			Action:  Action(binary.LittleEndian.Uint32(f.header[:ActionHeaderSize])),
			Payload: f.payload,
		})
		f.headerFill = 0
		f.payload = nil
		f.haveHeader = false
	}
	return out, nil
}

// WriteRequest writes one request frame to w. Used by the test client.
func WriteRequest(w io.Writer, action Action, payload []byte) error {
	return writeFrame(w, uint32(action), payload)
}

// WriteResponse writes one response frame to w.
func WriteResponse(w io.Writer, result Result, payload []byte) error {
	return writeFrame(w, uint32(result), payload)
}

func writeFrame(w io.Writer, code uint32, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[:ActionHeaderSize], code)
	binary.LittleEndian.PutUint32(buf[ActionHeaderSize:headerSize], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadResponse reads one response frame from r. Used by the test client.
func ReadResponse(r io.Reader) (Result, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("reading response header: %w", err)
	}
	result := Result(binary.LittleEndian.Uint32(header[:ResultHeaderSize]))
	payloadLen := int(binary.LittleEndian.Uint32(header[ResultHeaderSize:]))
	if payloadLen > MaxPayloadSize {
		return 0, nil, fmt.Errorf("payload length %d exceeds limit %d", payloadLen, MaxPayloadSize)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("reading response payload: %w", err)
	}
	return result, payload, nil
}
