package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameFromStrAndString(t *testing.T) {
	n := NameFromStr("/a/b/c")
	require.Equal(t, "/a/b/c", n.String())
	require.Len(t, n, 3)
}

func TestNameFromStrEmpty(t *testing.T) {
	require.Empty(t, NameFromStr("/"))
}

func TestNameEncodeDecodeRoundTrip(t *testing.T) {
	n := NameFromStr("/example/data/v1")
	enc := n.Encode()

	dec, consumed, err := DecodeName(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), consumed)
	require.True(t, n.Equal(dec), "decoded name %v != original %v", dec, n)
}

func TestIsPrefix(t *testing.T) {
	base := NameFromStr("/a/b")
	full := NameFromStr("/a/b/c")
	other := NameFromStr("/a/x")

	require.True(t, base.IsPrefix(full), "expected /a/b to be a prefix of /a/b/c")
	require.False(t, base.IsPrefix(other), "did not expect /a/b to be a prefix of /a/x")
	require.True(t, full.IsPrefix(full), "a name must be its own prefix")
}

func TestAppend(t *testing.T) {
	base := NameFromStr("/a")
	withDigest := base.Append(NewImplicitDigestComponent(make([]byte, 32)))
	require.Len(t, withDigest, 2)
	require.Equal(t, TypeImplicitSha256Digest, withDigest[1].Typ)
}

func TestPrefixKeyOmitsOuterHeaderAndDigest(t *testing.T) {
	short := NameFromStr("/a/b")
	long := NameFromStr("/a/b/c/d/e/f/g")

	shortKey, err := PrefixKey(short.Encode(), 2, false)
	require.NoError(t, err)
	longKey, err := PrefixKey(long.Encode(), 2, false)
	require.NoError(t, err)
	require.Equal(t, shortKey, longKey, "prefix keys for the first two components must match regardless of total name length")

	withDigest := long.Append(NewImplicitDigestComponent(make([]byte, 32)))
	keyOmitDigest, err := PrefixKey(withDigest.Encode(), -1, true)
	require.NoError(t, err)
	keyNoDigest, err := PrefixKey(long.Encode(), -1, true)
	require.NoError(t, err)
	require.Equal(t, keyNoDigest, keyOmitDigest, "omitting a trailing implicit digest component must produce the same key as a name without one")
}

func TestPrefixKeyRejectsOutOfRangeRequest(t *testing.T) {
	n := NameFromStr("/a/b")
	_, err := PrefixKey(n.Encode(), 5, false)
	require.Error(t, err, "expected an error requesting more components than the name has")
}
