package security

import "fmt"

// DecodeEmbeddedKey parses the inline public-key blob carried by a
// KeyLocator's Key branch (§4.6 step 3, "Key (inline)"): a one-byte
// algorithm tag matching the Signer.Type() values in signer.go, followed by the
// raw public key bytes for that algorithm.
func DecodeEmbeddedKey(blob []byte) (algType byte, pubKey []byte, err error) {
	if len(blob) < 1 {
		return 0, nil, fmt.Errorf("embedded key blob is empty")
	}
	return blob[0], blob[1:], nil
}

// EncodeEmbeddedKey is the inverse of DecodeEmbeddedKey, used when
// publishing a KeyLocator that embeds a key directly.
func EncodeEmbeddedKey(algType byte, pubKey []byte) []byte {
	out := make([]byte, 0, 1+len(pubKey))
	out = append(out, algType)
	return append(out, pubKey...)
}
