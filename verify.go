package ccnclient

import (
	"github.com/ccnx-go/ccnclient/security"
	"github.com/ccnx-go/ccnclient/wire"
)

// verifyStatus is the outcome of attempting to verify a ContentObject's
// signature (§4.6 Verifier/Key Cache).
type verifyStatus int

const (
	// verifyUnverifiable means no KeyLocator usable by this client was
	// present (e.g. a bare digest signature, or a Certificate locator,
	// which this client never resolves — §4.6 step 4's "XXX").
	verifyUnverifiable verifyStatus = iota
	verifyOK
	verifyBad
	// verifyPending means the publisher's key must be fetched before a
	// verdict can be reached (§4.6 step 3's CheckPubArrival flow).
	verifyPending
)

// verifyContent dispatches on the ContentObject's KeyLocator kind,
// looking up or fetching the verification key and checking the signature
// over SigCovered (§4.6 LocateKey).
func (h *Handle) verifyContent(co *wire.ContentObject) (verifyStatus, error) {
	if co.KeyLocator == nil {
		return verifyUnverifiable, nil
	}

	switch co.KeyLocator.Kind {
	case wire.KeyLocatorKey:
		digest, err := h.keys.insertFromEmbeddedKey(co.KeyLocator.Key)
		if err != nil {
			return verifyUnverifiable, err
		}
		return h.verifyAgainstDigest(co, digest)

	case wire.KeyLocatorKeyName:
		digest := co.KeyLocator.PublisherHint
		if ck := h.keys.get(digest); ck != nil {
			return h.verifyWithKey(co, ck)
		}
		return verifyPending, nil

	case wire.KeyLocatorCertificate:
		// Certificates are never resolved by this client (§4.6 step 4):
		// the locator is preserved but not followed.
		return verifyUnverifiable, nil

	default:
		return verifyUnverifiable, nil
	}
}

func (h *Handle) verifyAgainstDigest(co *wire.ContentObject, digest []byte) (verifyStatus, error) {
	ck := h.keys.get(digest)
	if ck == nil {
		return verifyPending, nil
	}
	return h.verifyWithKey(co, ck)
}

func (h *Handle) verifyWithKey(co *wire.ContentObject, ck *cachedKey) (verifyStatus, error) {
	ok, err := security.Verify(co.SigType, co.SigCovered, co.SigValue, ck.publicKey)
	if err != nil {
		return verifyUnverifiable, err
	}
	if ok {
		return verifyOK, nil
	}
	return verifyBad, nil
}

// pendingDigestFor returns the key digest an Interest should wait on
// before CheckPubArrival can resume it: the publisher digest carried in a
// KeyName locator's PublisherHint (§4.6 step 3).
func pendingDigestFor(co *wire.ContentObject) []byte {
	if co.KeyLocator == nil {
		return nil
	}
	if co.KeyLocator.Kind == wire.KeyLocatorKeyName {
		return co.KeyLocator.PublisherHint
	}
	return nil
}

// initiateKeyFetch expresses a sub-Interest for the publisher's key named
// in co's KeyLocator, so that CheckPubArrival can later resume the
// original Interest once the key arrives (§4.6 step 3, §4.3 "suspended"
// Interests with wantedPub set).
func (h *Handle) initiateKeyFetch(co *wire.ContentObject, triggering *wire.Interest) error {
	if co.KeyLocator == nil || co.KeyLocator.Kind != wire.KeyLocatorKeyName {
		return nil
	}

	keyName := co.KeyLocator.KeyName
	handler := NewClosure(func(info *UpcallInfo) UpcallAction {
		if info.Kind == UpcallContent && info.Content != nil {
			if _, err := h.keys.insertFromEmbeddedKey(info.Content.Content); err == nil {
				h.checkPubArrivals()
			}
		}
		return ActionOK
	}, nil)

	return h.Express(keyName, len(keyName), handler, nil)
}
