package wire

import "fmt"

const (
	flagByte   = 0x7E
	escapeByte = 0x7D
	escapeXor  = 0x20
)

// Frame wraps a topic and payload for byte-stream and datagram transports:
// 0x7E flags, 0x7D byte stuffing, and a trailing CRC-16 (poly 0x1021,
// low byte first) over topic+payload.
func Frame(topic Topic, payload []byte) []byte {
	msg := make([]byte, 0, 1+len(payload)+2)
	msg = append(msg, byte(topic))
	msg = append(msg, payload...)
	crc := crc16(msg)
	msg = append(msg, byte(crc), byte(crc>>8))

	out := make([]byte, 0, 2+len(msg)*2)
	out = append(out, flagByte)
	for _, b := range msg {
		if b == flagByte || b == escapeByte {
			out = append(out, escapeByte, b^escapeXor)
			continue
		}
		out = append(out, b)
	}
	return append(out, flagByte)
}

// Unframe reverses Frame. crcOK is false when the frame is well formed but
// its checksum does not match.
func Unframe(frame []byte) (topic Topic, payload []byte, crcOK bool, err error) {
	if len(frame) < 5 {
		return 0, nil, false, fmt.Errorf("wire: frame too short: %d", len(frame))
	}
	if frame[0] != flagByte || frame[len(frame)-1] != flagByte {
		return 0, nil, false, fmt.Errorf("wire: missing start/end flags")
	}

	raw := make([]byte, 0, len(frame))
	for i := 1; i < len(frame)-1; i++ {
		b := frame[i]
		if b == escapeByte {
			i++
			if i >= len(frame)-1 {
				return 0, nil, false, fmt.Errorf("wire: truncated escape at end of frame")
			}
			raw = append(raw, frame[i]^escapeXor)
			continue
		}
		raw = append(raw, b)
	}
	if len(raw) < 3 {
		return 0, nil, false, fmt.Errorf("wire: unescaped frame too short: %d", len(raw))
	}

	msg := raw[:len(raw)-2]
	got := uint16(raw[len(raw)-2]) | uint16(raw[len(raw)-1])<<8
	return Topic(msg[0]), msg[1:], got == crc16(msg), nil
}

// Splitter accumulates a byte stream and yields complete flag-delimited
// frames. Bytes before the first flag are discarded.
type Splitter struct {
	buf []byte
	max int
}

func NewSplitter(maxFrame int) *Splitter {
	if maxFrame <= 0 {
		maxFrame = 512
	}
	return &Splitter{max: maxFrame}
}

// Write appends p and returns every frame completed by it. Returned slices
// are owned by the caller.
func (s *Splitter) Write(p []byte) [][]byte {
	var frames [][]byte
	for _, b := range p {
		if len(s.buf) == 0 {
			if b == flagByte {
				s.buf = append(s.buf, b)
			}
			continue
		}
		s.buf = append(s.buf, b)
		if b == flagByte {
			if len(s.buf) == 2 {
				// Back-to-back flags: treat the second as a new start.
				s.buf = s.buf[:1]
				continue
			}
			frames = append(frames, append([]byte(nil), s.buf...))
			s.buf = s.buf[:0]
			continue
		}
		if len(s.buf) > s.max {
			s.buf = s.buf[:0]
		}
	}
	return frames
}
