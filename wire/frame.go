package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame layout: a fixed 11-byte header followed by a variable-length body.
//
//	0      3  4  5    7        11
//	┌──────┬──┬──┬────┬────────┬───────────────┐
//	│magic │v │op│code│ bodyLen│    body ...    │
//	│ kvn  │01│  │u16 │  u32   │ bodyLen bytes  │
//	└──────┴──┴──┴────┴────────┴───────────────┘
//
// The body packs Key and Value as length-prefixed byte strings so a single
// frame can carry either a request (Key, optionally Value) or a response
// (Value, or an error Message string on OpErrorResp).
const (
	magic0     byte = 0x6b // 'k'
	magic1     byte = 0x76 // 'v'
	magic2     byte = 0x6e // 'n'
	version    byte = 0x01
	headerSize int  = 11
)

// WriteFrame serializes msg and writes a complete frame to w. The caller is
// responsible for serializing concurrent writers of the same w (the node
// package does this per-connection via transport.Conn).
func WriteFrame(w io.Writer, msg *Message) error {
	body := encodeBody(msg)

	header := make([]byte, headerSize)
	header[0], header[1], header[2] = magic0, magic1, magic2
	header[3] = version
	header[4] = byte(msg.Op)
	binary.BigEndian.PutUint16(header[5:7], msg.Code)
	binary.BigEndian.PutUint32(header[7:11], uint32(len(body)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("wire: write body: %w", err)
		}
	}
	return nil
}

// ReadFrame reads exactly one complete frame from r, blocking until the
// header and body have both arrived (or the read fails). Multiple readers
// on the same r are not safe; each connection has exactly one reader.
func ReadFrame(r io.Reader) (*Message, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != magic0 || header[1] != magic1 || header[2] != magic2 {
		return nil, fmt.Errorf("wire: bad magic %x", header[0:3])
	}
	if header[3] != version {
		return nil, fmt.Errorf("wire: unsupported version %d", header[3])
	}

	op := Op(header[4])
	code := binary.BigEndian.Uint16(header[5:7])
	bodyLen := binary.BigEndian.Uint32(header[7:11])

	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
	}

	msg, err := decodeBody(op, code, body)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func encodeBody(msg *Message) []byte {
	if msg.Op == OpErrorResp {
		errBytes := []byte(msg.Message)
		buf := make([]byte, 2+len(errBytes))
		binary.BigEndian.PutUint16(buf[0:2], uint16(len(errBytes)))
		copy(buf[2:], errBytes)
		return buf
	}

	total := 2 + len(msg.Key) + 4 + len(msg.Value)
	buf := make([]byte, total)
	offset := 0

	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(msg.Key)))
	offset += 2
	copy(buf[offset:offset+len(msg.Key)], msg.Key)
	offset += len(msg.Key)

	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(msg.Value)))
	offset += 4
	copy(buf[offset:offset+len(msg.Value)], msg.Value)

	return buf
}

func decodeBody(op Op, code uint16, body []byte) (*Message, error) {
	msg := &Message{Op: op, Code: code}

	if op == OpErrorResp {
		if len(body) < 2 {
			return nil, fmt.Errorf("wire: short error body")
		}
		msgLen := binary.BigEndian.Uint16(body[0:2])
		if len(body) < 2+int(msgLen) {
			return nil, fmt.Errorf("wire: truncated error message")
		}
		msg.Message = string(body[2 : 2+msgLen])
		return msg, nil
	}

	if len(body) < 2 {
		return nil, fmt.Errorf("wire: short body")
	}
	offset := 0
	keyLen := binary.BigEndian.Uint16(body[offset : offset+2])
	offset += 2
	if len(body) < offset+int(keyLen)+4 {
		return nil, fmt.Errorf("wire: truncated key")
	}
	msg.Key = append([]byte(nil), body[offset:offset+int(keyLen)]...)
	offset += int(keyLen)

	valueLen := binary.BigEndian.Uint32(body[offset : offset+4])
	offset += 4
	if len(body) < offset+int(valueLen) {
		return nil, fmt.Errorf("wire: truncated value")
	}
	msg.Value = append([]byte(nil), body[offset:offset+int(valueLen)]...)

	return msg, nil
}
