package wire

import "fmt"

// Interest top-level and field type tags. NameComponentCount is specific
// to this protocol (it lets a responder or a registry key on a stated
// prefix depth rather than re-deriving one); Nonce and the OTHER region
// (Scope/InterestLifetime/etc, left opaque) mirror the classic CCNx
// Interest field set named in the glossary.
const (
	TypeInterest           TLNum = 0x05
	TypeNameComponentCount TLNum = 0x0A
	TypeNonce              TLNum = 0x0C
)

// Interest is a parsed inbound or outbound Interest.
type Interest struct {
	Name  Name
	Nonce []byte
	Raw   []byte
}

func encodeNat(v uint64) []byte {
	switch {
	case v <= 0xff:
		return []byte{byte(v)}
	case v <= 0xffff:
		return []byte{byte(v >> 8), byte(v)}
	case v <= 0xffffffff:
		return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	default:
		return []byte{byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
			byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

func decodeNat(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// Template holds the pieces of a previously-encoded Interest that Express
// splices into freshly-constructed Interests: the "middle" region between
// the end of NameComponentCount (or Name, if absent) and the start of
// Nonce, and the trailing OTHER region after Nonce.
type Template struct {
	middle   []byte
	trailing []byte
}

// ParseTemplate extracts the middle and trailing splice regions from a
// complete encoded template Interest. Per §4.3, a template that fails to
// parse does not abort Express — callers should fall back to a nil
// Template and proceed with construction anyway.
func ParseTemplate(raw []byte) (*Template, error) {
	typ, n1, ok := ParseTLNum(raw)
	if !ok || typ != TypeInterest {
		return nil, ErrMalformed{"Template", "not an Interest TLV"}
	}
	length, n2, ok := ParseTLNum(raw[n1:])
	if !ok {
		return nil, ErrMalformed{"Template", "truncated length"}
	}
	start := n1 + n2
	end := start + int(length)
	if end > len(raw) {
		return nil, ErrMalformed{"Template", "length exceeds buffer"}
	}

	_, nameLen, err := DecodeName(raw[start:end])
	if err != nil {
		return nil, err
	}
	pos := start + nameLen

	// Skip an optional NameComponentCount immediately after Name.
	if pos < end {
		t, tn1, ok := ParseTLNum(raw[pos:])
		if ok && t == TypeNameComponentCount {
			l, tn2, ok := ParseTLNum(raw[pos+tn1:])
			if ok {
				pos += tn1 + tn2 + int(l)
			}
		}
	}
	middleStart := pos

	// Scan forward for the Nonce TLV.
	nonceStart, nonceEnd := -1, -1
	scan := pos
	for scan < end {
		t, sn1, ok := ParseTLNum(raw[scan:])
		if !ok {
			break
		}
		l, sn2, ok := ParseTLNum(raw[scan+sn1:])
		if !ok {
			break
		}
		vend := scan + sn1 + sn2 + int(l)
		if t == TypeNonce {
			nonceStart, nonceEnd = scan, vend
			break
		}
		scan = vend
	}
	if nonceStart < 0 {
		// No Nonce in the template: everything from middleStart on is
		// "middle" and there is no trailing OTHER region to copy.
		return &Template{middle: raw[middleStart:end]}, nil
	}

	return &Template{
		middle:   raw[middleStart:nonceStart],
		trailing: raw[nonceEnd:end],
	}, nil
}

// EncodeInterest builds a complete Interest TLV for name, optionally
// stating prefixComps via NameComponentCount, splicing tmpl's middle and
// trailing regions (tmpl may be nil), and using nonce as the Nonce value.
// Per §4.3 step 3, an empty result is a construction failure.
func EncodeInterest(name Name, prefixComps int, nonce []byte, tmpl *Template) ([]byte, error) {
	val := make([]byte, 0, 64)
	val = append(val, name.Encode()...)

	if prefixComps >= 0 {
		val = AppendTLV(val, TypeNameComponentCount, encodeNat(uint64(prefixComps)))
	}
	if tmpl != nil {
		val = append(val, tmpl.middle...)
	}
	val = AppendTLV(val, TypeNonce, nonce)
	if tmpl != nil {
		val = append(val, tmpl.trailing...)
	}

	out := AppendTLV(nil, TypeInterest, val)
	if len(out) == 0 {
		return nil, fmt.Errorf("interest encode produced empty bytes")
	}
	return out, nil
}

// DecodeInterest parses a complete Interest TLV.
func DecodeInterest(raw []byte) (*Interest, error) {
	typ, n1, ok := ParseTLNum(raw)
	if !ok || typ != TypeInterest {
		return nil, ErrWrongType
	}
	length, n2, ok := ParseTLNum(raw[n1:])
	if !ok {
		return nil, ErrMalformed{"Interest", "truncated length"}
	}
	start := n1 + n2
	end := start + int(length)
	if end != len(raw) {
		return nil, ErrMalformed{"Interest", "length does not match buffer"}
	}

	name, nameLen, err := DecodeName(raw[start:end])
	if err != nil {
		return nil, err
	}

	var nonce []byte
	pos := start + nameLen
	for pos < end {
		t, tn1, ok := ParseTLNum(raw[pos:])
		if !ok {
			break
		}
		l, tn2, ok := ParseTLNum(raw[pos+tn1:])
		if !ok {
			break
		}
		vstart := pos + tn1 + tn2
		vend := vstart + int(l)
		if vend > end {
			break
		}
		if t == TypeNonce {
			nonce = raw[vstart:vend]
		}
		pos = vend
	}

	return &Interest{Name: name, Nonce: nonce, Raw: raw}, nil
}

// ErrWrongType is returned when a frame does not hold the expected
// top-level element type.
var ErrWrongType = fmt.Errorf("frame is not of the expected type")

// PrefixKey returns the raw component bytes covering the first n
// components of a Name TLV buffer, implementing CheckNamebuf (§4.3): if
// prefixComps is negative the whole name (minus a possibly-omitted
// trailing implicit digest) is used. The returned slice is shared with
// nameBytes and safe to use directly as a map key via string conversion.
func PrefixKey(nameBytes []byte, prefixComps int, omitPossibleDigest bool) ([]byte, error) {
	typ, n1, ok := ParseTLNum(nameBytes)
	if !ok || typ != TypeName {
		return nil, ErrMalformed{"Name", "missing or wrong-typed Name TLV"}
	}
	length, n2, ok := ParseTLNum(nameBytes[n1:])
	if !ok {
		return nil, ErrMalformed{"Name", "truncated length"}
	}
	start := n1 + n2
	end := start + int(length)
	if end > len(nameBytes) {
		return nil, ErrMalformed{"Name", "length exceeds buffer"}
	}

	offsets := make([]int, 0, 8)
	pos := start
	for pos < end {
		_, cn1, ok := ParseTLNum(nameBytes[pos:])
		if !ok {
			return nil, ErrMalformed{"Name", "truncated component type"}
		}
		clen, cn2, ok := ParseTLNum(nameBytes[pos+cn1:])
		if !ok {
			return nil, ErrMalformed{"Name", "truncated component length"}
		}
		vend := pos + cn1 + cn2 + int(clen)
		if vend > end {
			return nil, ErrMalformed{"Name", "component exceeds Name bounds"}
		}
		offsets = append(offsets, vend)
		pos = vend
	}

	comps := len(offsets)
	effective := comps
	if omitPossibleDigest && comps > 0 {
		lastStart := start
		if comps > 1 {
			lastStart = offsets[comps-2]
		}
		if offsets[comps-1] == end && end-lastStart == ImplicitDigestComponentLen {
			effective = comps - 1
		}
	}

	n := prefixComps
	if n < 0 {
		n = effective
	}
	if n > effective || n < 0 {
		return nil, ErrInvalidPrefixComps{Requested: prefixComps, Available: effective}
	}
	if n == 0 {
		return nameBytes[start:start], nil
	}
	return nameBytes[start:offsets[n-1]], nil
}

// ErrInvalidPrefixComps reports a prefix_comps value CheckNamebuf could
// not satisfy against the actual name.
type ErrInvalidPrefixComps struct {
	Requested int
	Available int
}

func (e ErrInvalidPrefixComps) Error() string {
	return fmt.Sprintf("requested %d prefix components but name has %d available", e.Requested, e.Available)
}
