package security

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// Signature type tags, carried as the first byte of a ContentObject's
// Signature field.
const (
	SigTypeDigestSha256 byte = 0x00
	SigTypeEd25519      byte = 0x01
)

// Signer produces a signature over a covered byte range and exposes the
// key material a verifier would need to check it.
type Signer interface {
	Type() byte
	// PublicKey returns the raw public key bytes for this signer, or nil
	// for key-less signers such as the SHA-256 digest signer.
	PublicKey() []byte
	Sign(covered []byte) ([]byte, error)
}

// sha256Signer signs by digesting the covered bytes, carrying no key
// material — mirroring std/security/signer.sha256Signer, used when the
// publisher only wants integrity, not authenticity.
type sha256Signer struct{}

// NewSha256Signer returns a signer that signs by SHA-256 digest alone.
func NewSha256Signer() Signer { return sha256Signer{} }

func (sha256Signer) Type() byte          { return SigTypeDigestSha256 }
func (sha256Signer) PublicKey() []byte   { return nil }
func (sha256Signer) Sign(covered []byte) ([]byte, error) {
	h := sha256.Sum256(covered)
	return h[:], nil
}

// ed25519Signer signs with an Ed25519 private key.
type ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519Signer wraps an Ed25519 private key as a Signer.
func NewEd25519Signer(priv ed25519.PrivateKey) Signer {
	return ed25519Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}
}

func (s ed25519Signer) Type() byte        { return SigTypeEd25519 }
func (s ed25519Signer) PublicKey() []byte { return []byte(s.pub) }
func (s ed25519Signer) Sign(covered []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, covered), nil
}

// Verify checks a signature of the given type over covered using pubKey
// (ignored for SigTypeDigestSha256, required otherwise).
func Verify(sigType byte, covered []byte, sigValue []byte, pubKey []byte) (bool, error) {
	switch sigType {
	case SigTypeDigestSha256:
		h := sha256.Sum256(covered)
		return string(h[:]) == string(sigValue), nil
	case SigTypeEd25519:
		if len(pubKey) != ed25519.PublicKeySize {
			return false, fmt.Errorf("ed25519 public key has wrong size %d", len(pubKey))
		}
		return ed25519.Verify(ed25519.PublicKey(pubKey), covered, sigValue), nil
	default:
		return false, fmt.Errorf("unsupported signature type %d", sigType)
	}
}
