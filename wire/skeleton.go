package wire

// Skeleton incrementally parses Type-Length-Value framing out of a byte
// stream without caring about the semantic contents of the Value region.
// It mirrors the role of the reference implementation's skeleton decoder:
// callers feed it successive chunks of a socket buffer and poll whether a
// complete top-level element is available, without re-parsing bytes they
// already accounted for.
//
// State == 0 means "between elements": a complete top-level element ends
// exactly at Index, and index 0 with state 0 means no bytes have been
// consumed yet.
type Skeleton struct {
	State int
	Index int

	typ    TLNum
	length TLNum
	got    TLNum // value bytes consumed so far
}

const (
	skelType = iota + 1
	skelLength
	skelValue
)

// Reset returns the decoder to its initial state.
func (d *Skeleton) Reset() {
	*d = Skeleton{}
}

// Decode consumes as much of buf[d.Index:] as forms complete varints /
// value bytes, advancing d.Index. It returns as soon as either the buffer
// is exhausted or a full top-level element has been recognized (at which
// point d.State == 0 and d.Index marks the end of that element).
//
// Decode can be called again with a larger buf (more bytes appended at
// the end, starting bytes unchanged) to resume parsing past a boundary
// that fell mid-varint or mid-value on a previous call.
func (d *Skeleton) Decode(buf []byte) {
	if d.State == 0 {
		d.State = skelType
		d.typ, d.length, d.got = 0, 0, 0
	}

	for {
		switch d.State {
		case skelType:
			typ, n, ok := ParseTLNum(buf[d.Index:])
			if !ok {
				return
			}
			d.typ = typ
			d.Index += n
			d.State = skelLength
		case skelLength:
			length, n, ok := ParseTLNum(buf[d.Index:])
			if !ok {
				return
			}
			d.length = length
			d.Index += n
			d.State = skelValue
		case skelValue:
			remain := int(d.length) - int(d.got)
			avail := len(buf) - d.Index
			if avail <= 0 && remain > 0 {
				return
			}
			take := remain
			if take > avail {
				take = avail
			}
			d.Index += take
			d.got += TLNum(take)
			if d.got >= d.length {
				d.State = 0
				return
			}
			return
		}
	}
}

// DecodeOne reports whether buf consists of exactly one complete top-level
// element consuming every byte, as required by Transport.Put's framing
// check (§4.2, Testable Property 1).
func DecodeOne(buf []byte) (typ TLNum, ok bool) {
	var d Skeleton
	d.Decode(buf)
	if d.State != 0 || d.Index != len(buf) {
		return 0, false
	}
	return d.typ, true
}
