package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeOneAcceptsExactlyOneElement(t *testing.T) {
	frame := AppendTLV(nil, TypeGenericComponent, []byte("abc"))
	typ, ok := DecodeOne(frame)
	require.True(t, ok)
	require.Equal(t, TypeGenericComponent, typ)
}

func TestDecodeOneRejectsTruncated(t *testing.T) {
	frame := AppendTLV(nil, TypeGenericComponent, []byte("abc"))
	_, ok := DecodeOne(frame[:len(frame)-1])
	require.False(t, ok, "DecodeOne accepted a truncated frame")
}

func TestDecodeOneRejectsTrailingGarbage(t *testing.T) {
	frame := AppendTLV(nil, TypeGenericComponent, []byte("abc"))
	frame = append(frame, 0x00)
	_, ok := DecodeOne(frame)
	require.False(t, ok, "DecodeOne accepted trailing bytes beyond one element")
}

func TestSkeletonResumesAcrossChunkedFeeds(t *testing.T) {
	frame := AppendTLV(nil, TypeGenericComponent, []byte("hello world"))

	var d Skeleton
	// Feed the buffer one byte at a time, simulating a stream that
	// delivers partial frames (§4.2 Inbound policy).
	for i := 1; i <= len(frame); i++ {
		d.Decode(frame[:i])
		if d.State == 0 {
			require.Equal(t, len(frame), i, "skeleton reported complete early")
			return
		}
	}
	t.Fatal("skeleton never reported a complete element")
}

func TestSkeletonHandlesMultipleFramesBackToBack(t *testing.T) {
	f1 := AppendTLV(nil, TypeGenericComponent, []byte("one"))
	f2 := AppendTLV(nil, TypeGenericComponent, []byte("two"))
	buf := append(append([]byte{}, f1...), f2...)

	var d Skeleton
	d.Decode(buf)
	require.Equal(t, 0, d.State)
	require.Equal(t, len(f1), d.Index, "first frame not isolated")

	rest := buf[d.Index:]
	d.Reset()
	d.Decode(rest)
	require.Equal(t, 0, d.State)
	require.Equal(t, len(f2), d.Index, "second frame not isolated")
}
