package wire

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// ContentObject field type tags.
const (
	TypeContentObject            TLNum = 0x06
	TypePublisherPublicKeyDigest TLNum = 0x0F
	TypeContentType              TLNum = 0x10
	TypeKeyLocator               TLNum = 0x11
	TypeKeyLocatorKey            TLNum = 0x12
	TypeKeyLocatorKeyName        TLNum = 0x13
	TypeKeyLocatorCertificate    TLNum = 0x14
	TypeContent                  TLNum = 0x15
	TypeSignature                TLNum = 0x16
	TypeKeyNameHintPublisher     TLNum = 0x17
)

// ContentType distinguishes ordinary payload Data from a published public
// key, which the Dispatcher caches on arrival (§4.5 step 2a).
type ContentType byte

const (
	ContentTypeData ContentType = 0x00
	ContentTypeKey  ContentType = 0x01
)

// KeyLocatorKind distinguishes the three ways a ContentObject can point at
// its verification key (§4.6).
type KeyLocatorKind int

const (
	KeyLocatorNone KeyLocatorKind = iota
	KeyLocatorKey
	KeyLocatorKeyName
	KeyLocatorCertificate
)

// KeyLocator names or embeds the key that verifies a ContentObject.
type KeyLocator struct {
	Kind Kind
	Key  []byte // inline public key bytes, when Kind == KeyLocatorKey
	// KeyName names the key by Name; PublisherHint optionally repeats the
	// publisher digest, mirroring KeyName_Pub in the reference wire format.
	KeyName       Name
	PublisherHint []byte
	// Certificate bytes, when Kind == KeyLocatorCertificate. Not used for
	// verification: LocateKey returns *unusable* for this branch (§4.6,
	// the "XXX" note): a Certificate locator names a chain rather than a
	// single key to cache, and implementing chain validation is out of
	// scope for this client core.
	Certificate []byte
}

// Kind is an alias so callers can write wire.KeyLocator{Kind: wire.KeyLocatorKey}.
type Kind = KeyLocatorKind

// ContentObject is a parsed signed, named payload.
type ContentObject struct {
	Name        Name
	PublisherKeyDigest []byte
	Type        ContentType
	KeyLocator  *KeyLocator
	Content     []byte
	SigType     byte
	SigValue    []byte

	Raw       []byte
	SigCovered []byte // Name..Content, the bytes the signature is computed over
}

// Digest returns the SHA-256 implicit digest of the ContentObject's raw
// encoding, used for ImplicitSha256Digest matching.
func (c *ContentObject) Digest() []byte {
	h := sha256.Sum256(c.Raw)
	return h[:]
}

func appendKeyLocator(val []byte, kl *KeyLocator) []byte {
	if kl == nil {
		return val
	}
	var inner []byte
	switch kl.Kind {
	case KeyLocatorKey:
		inner = AppendTLV(inner, TypeKeyLocatorKey, kl.Key)
	case KeyLocatorKeyName:
		kn := kl.KeyName.Encode()
		if kl.PublisherHint != nil {
			kn = append(kn, AppendTLV(nil, TypeKeyNameHintPublisher, kl.PublisherHint)...)
		}
		inner = AppendTLV(inner, TypeKeyLocatorKeyName, kn)
	case KeyLocatorCertificate:
		inner = AppendTLV(inner, TypeKeyLocatorCertificate, kl.Certificate)
	default:
		return val
	}
	return AppendTLV(val, TypeKeyLocator, inner)
}

// EncodeContentObject builds a complete signed ContentObject TLV. sign is
// called with the covered bytes (Name..Content) and must return a
// signature type byte plus the signature value.
func EncodeContentObject(
	name Name,
	publisherDigest []byte,
	ctype ContentType,
	kl *KeyLocator,
	content []byte,
	sign func(covered []byte) (sigType byte, sigValue []byte, err error),
) ([]byte, error) {
	covered := make([]byte, 0, 64+len(content))
	covered = append(covered, name.Encode()...)
	covered = AppendTLV(covered, TypePublisherPublicKeyDigest, publisherDigest)
	covered = AppendTLV(covered, TypeContentType, []byte{byte(ctype)})
	covered = appendKeyLocator(covered, kl)
	covered = AppendTLV(covered, TypeContent, content)

	sigType, sigValue, err := sign(covered)
	if err != nil {
		return nil, err
	}

	val := append([]byte{}, covered...)
	sigVal := append([]byte{sigType}, sigValue...)
	val = AppendTLV(val, TypeSignature, sigVal)

	return AppendTLV(nil, TypeContentObject, val), nil
}

// DecodeContentObject parses a complete ContentObject TLV.
func DecodeContentObject(raw []byte) (*ContentObject, error) {
	typ, n1, ok := ParseTLNum(raw)
	if !ok || typ != TypeContentObject {
		return nil, ErrWrongType
	}
	length, n2, ok := ParseTLNum(raw[n1:])
	if !ok {
		return nil, ErrMalformed{"ContentObject", "truncated length"}
	}
	start := n1 + n2
	end := start + int(length)
	if end != len(raw) {
		return nil, ErrMalformed{"ContentObject", "length does not match buffer"}
	}

	name, nameLen, err := DecodeName(raw[start:end])
	if err != nil {
		return nil, err
	}
	pos := start + nameLen

	co := &ContentObject{Name: name, Raw: raw}
	sigCoveredEnd := pos

	for pos < end {
		t, tn1, ok := ParseTLNum(raw[pos:])
		if !ok {
			return nil, ErrMalformed{"ContentObject", "truncated field type"}
		}
		l, tn2, ok := ParseTLNum(raw[pos+tn1:])
		if !ok {
			return nil, ErrMalformed{"ContentObject", "truncated field length"}
		}
		vstart := pos + tn1 + tn2
		vend := vstart + int(l)
		if vend > end {
			return nil, ErrMalformed{"ContentObject", "field exceeds buffer"}
		}
		val := raw[vstart:vend]

		switch t {
		case TypePublisherPublicKeyDigest:
			co.PublisherKeyDigest = val
			sigCoveredEnd = vend
		case TypeContentType:
			if len(val) == 1 {
				co.Type = ContentType(val[0])
			}
			sigCoveredEnd = vend
		case TypeKeyLocator:
			kl, err := decodeKeyLocator(val)
			if err != nil {
				return nil, err
			}
			co.KeyLocator = kl
			sigCoveredEnd = vend
		case TypeContent:
			co.Content = val
			sigCoveredEnd = vend
		case TypeSignature:
			if len(val) < 1 {
				return nil, ErrMalformed{"Signature", "empty"}
			}
			co.SigType = val[0]
			co.SigValue = val[1:]
			// Signature itself is not covered by the signature.
		}
		pos = vend
	}

	co.SigCovered = raw[start:sigCoveredEnd]
	return co, nil
}

func decodeKeyLocator(val []byte) (*KeyLocator, error) {
	t, n1, ok := ParseTLNum(val)
	if !ok {
		return nil, ErrMalformed{"KeyLocator", "empty"}
	}
	l, n2, ok := ParseTLNum(val[n1:])
	if !ok {
		return nil, ErrMalformed{"KeyLocator", "truncated length"}
	}
	inner := val[n1+n2:]
	if len(inner) < int(l) {
		return nil, ErrMalformed{"KeyLocator", "length exceeds buffer"}
	}
	inner = inner[:l]

	switch t {
	case TypeKeyLocatorKey:
		return &KeyLocator{Kind: KeyLocatorKey, Key: inner}, nil
	case TypeKeyLocatorKeyName:
		name, nlen, err := DecodeName(inner)
		if err != nil {
			return nil, err
		}
		kl := &KeyLocator{Kind: KeyLocatorKeyName, KeyName: name}
		rest := inner[nlen:]
		if len(rest) > 0 {
			ht, hn1, ok := ParseTLNum(rest)
			if ok && ht == TypeKeyNameHintPublisher {
				hl, hn2, ok := ParseTLNum(rest[hn1:])
				if ok {
					kl.PublisherHint = rest[hn1+hn2 : hn1+hn2+int(hl)]
				}
			}
		}
		return kl, nil
	case TypeKeyLocatorCertificate:
		return &KeyLocator{Kind: KeyLocatorCertificate, Certificate: inner}, nil
	default:
		return nil, fmt.Errorf("unrecognized key locator type %d", t)
	}
}

// ContentMatchesInterest implements the content-matches-interest
// predicate the Dispatcher uses after a PIT-bucket hit (§4.5 step 2):
// the ContentObject's name must satisfy the Interest's Name, including an
// exact match of a trailing implicit digest component if the Interest
// names one explicitly.
func ContentMatchesInterest(co *ContentObject, in *Interest) bool {
	name := in.Name
	if len(name) == 0 {
		return true
	}
	last := name[len(name)-1]
	if last.Typ == TypeImplicitSha256Digest {
		prefix := name[:len(name)-1]
		if !prefix.IsPrefix(co.Name) {
			return false
		}
		return bytes.Equal(last.Val, co.Digest())
	}
	return name.IsPrefix(co.Name)
}
