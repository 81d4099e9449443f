package security

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func TestSha256SignerVerify(t *testing.T) {
	s := NewSha256Signer()
	covered := []byte("some covered bytes")

	sig, err := s.Sign(covered)
	require.NoError(t, err)

	ok, err := Verify(s.Type(), covered, sig, nil)
	require.NoError(t, err)
	require.True(t, ok, "expected digest signature to verify")

	ok, err = Verify(s.Type(), []byte("tampered"), sig, nil)
	require.NoError(t, err)
	require.False(t, ok, "did not expect tampered bytes to verify")
}

func TestEd25519SignerVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	s := NewEd25519Signer(priv)
	require.Equal(t, []byte(pub), s.PublicKey(), "signer public key does not match generated key")

	covered := []byte("sign me")
	sig, err := s.Sign(covered)
	require.NoError(t, err)

	ok, err := Verify(s.Type(), covered, sig, s.PublicKey())
	require.NoError(t, err)
	require.True(t, ok, "expected ed25519 signature to verify")

	ok, _ = Verify(s.Type(), []byte("wrong bytes"), sig, s.PublicKey())
	require.False(t, ok, "did not expect a signature over different bytes to verify")
}

func TestVerifyUnsupportedType(t *testing.T) {
	_, err := Verify(0xee, nil, nil, nil)
	require.Error(t, err, "expected an error for an unsupported signature type")
}
