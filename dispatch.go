package ccnclient

import (
	"github.com/ccnx-go/ccnclient/log"
	"github.com/ccnx-go/ccnclient/wire"
)

// dispatch routes one complete inbound frame to either the Interest path
// or the ContentObject path (§4.5 Dispatcher).
func (h *Handle) dispatch(frame []byte) {
	if in, err := wire.DecodeInterest(frame); err == nil {
		h.dispatchInterest(in, frame)
		return
	}
	co, err := wire.DecodeContentObject(frame)
	if err != nil {
		log.Warn(h, "dropping unparseable frame", "len", len(frame))
		return
	}
	h.dispatchContent(co, frame)
}

// dispatchInterest walks the Filter Registry from the longest matching
// prefix to the shortest, firing INTEREST upcalls. Once some handler
// reports the Interest consumed, every remaining handler — at the same
// prefix depth and at every shorter prefix still to come — is notified
// with CONSUMED_INTEREST instead of being skipped (§4.5 step 1, Testable
// Property 4).
func (h *Handle) dispatchInterest(in *wire.Interest, raw []byte) {
	nameBytes := in.Name.Encode()
	consumed := false

	for n := len(in.Name); n >= 0; n-- {
		key, err := wire.PrefixKey(nameBytes, n, false)
		if err != nil {
			continue
		}
		bucket := h.filters.lookup(key)
		if bucket == nil {
			continue
		}

		for _, f := range bucket.all() {
			if f.prefixComps != n || f.handler == nil {
				continue
			}

			kind := UpcallInterest
			if consumed {
				kind = UpcallConsumedInterest
			}
			info := &UpcallInfo{Kind: kind, Interest: in, InterestRaw: raw, MatchedComps: n}
			h.running++
			action := f.handler.invoke(h, info)
			h.running--

			if kind == UpcallInterest && action == ActionInterestConsumed {
				consumed = true
			}
		}
	}
}

// dispatchContent walks the Interest Registry from the longest candidate
// prefix to the shortest looking for a PIT entry whose stored Interest is
// satisfied by co, verifying the signature before delivering CONTENT or
// CONTENT_UNVERIFIED/CONTENT_BAD (§4.5 step 2).
func (h *Handle) dispatchContent(co *wire.ContentObject, raw []byte) {
	nameBytes := co.Name.Encode()
	delivered := false

	for n := len(co.Name); n >= 0 && !delivered; n-- {
		key, err := wire.PrefixKey(nameBytes, n, true)
		if err != nil {
			continue
		}
		bucket := h.interests.lookup(key)
		if bucket == nil {
			continue
		}

		for _, ei := range bucket.all() {
			if ei.target == 0 || ei.handler == nil {
				continue
			}
			in, err := wire.DecodeInterest(ei.encoded)
			if err != nil || !wire.ContentMatchesInterest(co, in) {
				continue
			}

			h.checkMagic(ei, "dispatchContent")
			h.deliverContent(ei, co, raw, in)
			h.checkMagic(ei, "dispatchContent/post")
			delivered = true
			break
		}
	}

	if co.Type == wire.ContentTypeKey {
		if _, err := h.keys.insertFromEmbeddedKey(co.Content); err == nil {
			h.checkPubArrivals()
		}
	}
}

// deliverContent verifies co's signature and delivers CONTENT,
// CONTENT_UNVERIFIED, or CONTENT_BAD, applying the handler's returned
// UpcallAction (§4.5 step 2, §4.6). When the key isn't available yet, the
// handler still receives CONTENT_UNVERIFIED and a key fetch is only
// initiated if it answers with VERIFY (§4.5 step 2.d); any other answer
// retires the Interest exactly as it would for a settled verdict.
func (h *Handle) deliverContent(ei *expressedInterest, co *wire.ContentObject, raw []byte, in *wire.Interest) {
	status, err := h.verifyContent(co)
	if err != nil {
		log.Warn(h, "verification attempt failed", "err", err)
	}

	var kind UpcallKind
	switch status {
	case verifyOK:
		kind = UpcallContent
	case verifyBad:
		kind = UpcallContentBad
	default:
		kind = UpcallContentUnverified
	}

	info := &UpcallInfo{Interest: in, InterestRaw: ei.encoded, Content: co, ContentRaw: raw, MatchedComps: len(in.Name)}
	action := h.deliver(ei, kind, info)

	if status == verifyPending {
		if action == ActionVerify {
			ei.target = 0
			ei.outstanding = 0
			ei.wantedPub = pendingDigestFor(co)
			h.initiateKeyFetch(co, in)
			return
		}
		h.retireInterest(ei)
		return
	}

	switch action {
	case ActionReexpress:
		ei.outstanding = 0
		h.refresh(ei)
	default:
		h.retireInterest(ei)
	}
}
