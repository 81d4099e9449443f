package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLNumRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xfc, 0xfd, 0xff, 0x1234, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1 << 40}
	for _, v := range cases {
		tl := TLNum(v)
		buf := make([]byte, tl.EncodingLength())
		n := tl.EncodeInto(buf)
		require.Equal(t, len(buf), n, "EncodeInto(%d)", v)

		got, consumed, ok := ParseTLNum(buf)
		require.True(t, ok, "ParseTLNum failed to parse encoding of %d", v)
		require.Equal(t, n, consumed)
		require.Equal(t, v, uint64(got))
	}
}

func TestParseTLNumTruncated(t *testing.T) {
	_, _, ok := ParseTLNum(nil)
	require.False(t, ok, "expected failure parsing empty buffer")

	_, _, ok = ParseTLNum([]byte{0xfd, 0x01})
	require.False(t, ok, "expected failure parsing truncated 3-byte form")
}

func TestAppendTLVAndEncodingLength(t *testing.T) {
	val := []byte("hello")
	out := AppendTLV(nil, 0x08, val)
	require.Len(t, out, EncodingLengthTLV(0x08, len(val)))

	typ, n, ok := ParseTLNum(out)
	require.True(t, ok)
	require.Equal(t, TLNum(0x08), typ)

	length, n2, ok := ParseTLNum(out[n:])
	require.True(t, ok)
	require.Equal(t, len(val), int(length))
	require.Equal(t, "hello", string(out[n+n2:]))
}
