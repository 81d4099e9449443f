// Package wire implements the binary tagged encoding this client speaks
// to the forwarding daemon: a small variable-length TLV scheme (grounded
// on the varint scheme in std/encoding/primitives.go) carrying Name,
// Interest and ContentObject top-level elements, plus the incremental
// "skeleton" decoder the Transport layer needs to find frame boundaries
// in a byte stream.
package wire

import "encoding/binary"

// TLNum is a TLV Type or Length number, using the same four-tier
// variable-length encoding as the reference NDN stack: 1 byte up to
// 0xfc, then 3/5/9-byte forms prefixed by 0xfd/0xfe/0xff.
type TLNum uint64

// EncodingLength returns the number of bytes needed to encode v.
func (v TLNum) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xfc:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// EncodeInto writes v into buf, returning the number of bytes written.
func (v TLNum) EncodeInto(buf []byte) int {
	switch x := uint64(v); {
	case x <= 0xfc:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.BigEndian.PutUint16(buf[1:], uint16(x))
		return 3
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.BigEndian.PutUint32(buf[1:], uint32(x))
		return 5
	default:
		buf[0] = 0xff
		binary.BigEndian.PutUint64(buf[1:], uint64(x))
		return 9
	}
}

// ParseTLNum parses a TLNum from the start of buf, returning the value and
// the number of bytes consumed. It reports ok=false if buf is too short.
func ParseTLNum(buf []byte) (val TLNum, n int, ok bool) {
	if len(buf) < 1 {
		return 0, 0, false
	}
	switch x := buf[0]; {
	case x <= 0xfc:
		return TLNum(x), 1, true
	case x == 0xfd:
		if len(buf) < 3 {
			return 0, 0, false
		}
		return TLNum(binary.BigEndian.Uint16(buf[1:3])), 3, true
	case x == 0xfe:
		if len(buf) < 5 {
			return 0, 0, false
		}
		return TLNum(binary.BigEndian.Uint32(buf[1:5])), 5, true
	default:
		if len(buf) < 9 {
			return 0, 0, false
		}
		return TLNum(binary.BigEndian.Uint64(buf[1:9])), 9, true
	}
}

// AppendTLV appends a complete Type-Length-Value element to dst.
func AppendTLV(dst []byte, typ TLNum, val []byte) []byte {
	var hdr [9]byte
	n := typ.EncodeInto(hdr[:])
	dst = append(dst, hdr[:n]...)
	n = TLNum(len(val)).EncodeInto(hdr[:])
	dst = append(dst, hdr[:n]...)
	dst = append(dst, val...)
	return dst
}

// EncodingLengthTLV returns the total length a TLV with the given type
// and value length would occupy.
func EncodingLengthTLV(typ TLNum, valLen int) int {
	return typ.EncodingLength() + TLNum(valLen).EncodingLength() + valLen
}
