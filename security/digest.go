// Package security implements the signing and verification primitives the
// core treats as an external collaborator per spec.md §1: digesting,
// signing, and signature verification. It mirrors the small, focused
// signer interfaces of std/security/signer in the reference stack.
package security

import "crypto/sha256"

// DigestSize is the length of a key or content digest.
const DigestSize = sha256.Size

// KeyDigest returns the SHA-256 digest of a raw public key blob, used to
// index the Key Cache and to populate PublisherPublicKeyDigest.
func KeyDigest(pubKey []byte) []byte {
	h := sha256.Sum256(pubKey)
	return h[:]
}
