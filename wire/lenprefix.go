package wire

import "encoding/binary"

// LPEncode serializes body with a 4-byte big-endian length prefix, for
// non-routed byte-message transports (spec.md §4.A "auxiliary codec").
func LPEncode(body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(body)))
	copy(out[4:], body)
	return out
}

// LPParser is the length-prefixed sibling of Parser: identical fragmentation
// semantics, a 4-byte length header instead of the routed cmd/len header.
type LPParser struct {
	buf []byte
}

// Feed appends chunk and returns every complete length-prefixed message
// available so far, retaining any trailing partial message.
func (p *LPParser) Feed(chunk []byte) [][]byte {
	if len(chunk) > 0 {
		p.buf = append(p.buf, chunk...)
	}

	var msgs [][]byte
	off := 0
	for {
		rem := len(p.buf) - off
		if rem < 4 {
			break
		}
		bodyLen := int(binary.BigEndian.Uint32(p.buf[off : off+4]))
		if rem < 4+bodyLen {
			break
		}
		body := make([]byte, bodyLen)
		copy(body, p.buf[off+4:off+4+bodyLen])
		msgs = append(msgs, body)
		off += 4 + bodyLen
	}

	if off > 0 {
		remaining := len(p.buf) - off
		copy(p.buf, p.buf[off:])
		p.buf = p.buf[:remaining]
	}
	return msgs
}

func (p *LPParser) Reset() { p.buf = p.buf[:0] }
