package ccnclient

import (
	"encoding/hex"

	"github.com/ccnx-go/ccnclient/security"
)

// cachedKey is one entry in the Key Cache, indexed by publisher key
// digest (§4.6 Verifier/Key Cache).
type cachedKey struct {
	digest    []byte
	algType   byte
	publicKey []byte
}

// KeyCache maps a publisher's key digest to the raw public key bytes
// needed to verify a ContentObject's signature, fetching on demand when
// absent (§4.6). It is swappable per-Handle so a re-entrant Get() can
// borrow its caller's cache rather than build a fresh one (§4.8).
type KeyCache struct {
	entries map[string]*cachedKey
}

// NewKeyCache returns an empty Key Cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{entries: make(map[string]*cachedKey)}
}

func digestKey(digest []byte) string {
	return hex.EncodeToString(digest)
}

// get returns the cache entry for digest, or nil if absent.
func (kc *KeyCache) get(digest []byte) *cachedKey {
	return kc.entries[digestKey(digest)]
}

// put inserts or overwrites the key material for digest.
func (kc *KeyCache) put(digest []byte, algType byte, pub []byte) {
	kc.entries[digestKey(digest)] = &cachedKey{digest: digest, algType: algType, publicKey: pub}
}

// insertFromEmbeddedKey decodes a KeyLocator's inline Key blob and caches
// it under its own computed digest (§4.6 step 3).
func (kc *KeyCache) insertFromEmbeddedKey(blob []byte) ([]byte, error) {
	algType, pub, err := security.DecodeEmbeddedKey(blob)
	if err != nil {
		return nil, err
	}
	digest := security.KeyDigest(pub)
	kc.put(digest, algType, pub)
	return digest, nil
}

// clear empties the cache, used by Handle.Destroy (§4.1).
func (kc *KeyCache) clear() {
	kc.entries = make(map[string]*cachedKey)
}
