package ccnclient

import (
	"time"

	"github.com/cespare/xxhash"

	"github.com/ccnx-go/ccnclient/log"
	"github.com/ccnx-go/ccnclient/wire"
)

// interestMagic is the fixed sentinel carried by every ExpressedInterest,
// used to detect a handler that freed its own state during an upcall
// (§6 Magic/sentinel).
const interestMagic = 0x7059e5f4

// interestLifetime bounds how long an Interest may go unanswered before
// Ageing treats it as expired (§4.3 Ageing). It is a single core-wide
// constant rather than per-Interest, mirroring DefaultInterestLife in the
// reference engine.
const interestLifetime = 4 * time.Second

// staleAfter forces outstanding back to 0 once an Interest hasn't been
// refreshed this long, preventing the age-delta computation from
// overflowing (§4.3 Ageing, first bullet).
const staleAfter = 30 * time.Second

// expressedInterest is one outstanding request (§3 DATA MODEL).
type expressedInterest struct {
	magic       uint32
	lastSend    time.Time
	handler     *Closure
	encoded     []byte
	target      int // 0 or 1
	outstanding int // 0 or 1
	wantedPub   []byte

	next *expressedInterest // intrusive list within a prefixBucket
}

// prefixBucket is the value of the Interest Registry: every Interest
// sharing the same name prefix key (§3 DATA MODEL, PrefixBucket).
type prefixBucket struct {
	head *expressedInterest
}

func (b *prefixBucket) all() []*expressedInterest {
	var out []*expressedInterest
	for e := b.head; e != nil; e = e.next {
		out = append(out, e)
	}
	return out
}

func (b *prefixBucket) pushFront(e *expressedInterest) {
	e.next = b.head
	b.head = e
}

func (b *prefixBucket) remove(target *expressedInterest) {
	if b.head == target {
		b.head = target.next
		return
	}
	for e := b.head; e != nil; e = e.next {
		if e.next == target {
			e.next = target.next
			return
		}
	}
}

// interestRegistry is the hash table keyed by the raw bytes of a name
// prefix (§4.3). Per SPEC_FULL.md it hashes keys with xxhash rather than
// using the key bytes directly as a Go map key, avoiding a string
// allocation per lookup on the hot Express/Refresh/dispatch paths.
type interestRegistry struct {
	buckets map[uint64]*registryEntry
}

// registryEntry pairs a bucket with the exact key bytes that produced its
// hash, so a collision can be told apart from a true match.
type registryEntry struct {
	key    []byte
	bucket *prefixBucket
}

func newInterestRegistry() *interestRegistry {
	return &interestRegistry{buckets: make(map[uint64]*registryEntry)}
}

func hashKey(key []byte) uint64 {
	return xxhash.Sum64(key)
}

func (r *interestRegistry) lookup(key []byte) *prefixBucket {
	if e, ok := r.buckets[hashKey(key)]; ok {
		return e.bucket
	}
	return nil
}

func (r *interestRegistry) seekOrInsert(key []byte) *prefixBucket {
	h := hashKey(key)
	if e, ok := r.buckets[h]; ok {
		return e.bucket
	}
	own := make([]byte, len(key))
	copy(own, key)
	b := &prefixBucket{}
	r.buckets[h] = &registryEntry{key: own, bucket: b}
	return b
}

func (r *interestRegistry) removeIfEmpty(key []byte) {
	h := hashKey(key)
	if e, ok := r.buckets[h]; ok && e.bucket.head == nil {
		delete(r.buckets, h)
	}
}

// Express constructs and sends a new Interest (§4.3 Express).
func (h *Handle) Express(name wire.Name, prefixComps int, handler *Closure, template []byte) error {
	nameBytes := name.Encode()
	key, err := wire.PrefixKey(nameBytes, prefixComps, true)
	if err != nil {
		return h.note(ErrKindInvalid, "Express", err)
	}

	bucket := h.interests.seekOrInsert(key)

	var tmpl *wire.Template
	if template != nil {
		tmpl, err = wire.ParseTemplate(template)
		if err != nil {
			log.Warn(h, "template parse failed, proceeding without it", "err", err)
		}
	}

	encoded, err := wire.EncodeInterest(name, prefixComps, h.nonce(), tmpl)
	if err != nil {
		return h.note(ErrKindInvalid, "Express", err)
	}

	ei := &expressedInterest{
		magic:   interestMagic,
		handler: handler,
		encoded: encoded,
		target:  1,
	}
	bucket.pushFront(ei)

	return h.refresh(ei)
}

func (h *Handle) nonce() []byte {
	buf := make([]byte, 8)
	t := h.clock.Now().UnixNano()
	for i := range buf {
		buf[i] = byte(t >> (8 * i))
	}
	return buf
}

// refresh re-sends the stored Interest bytes if not already outstanding
// (§4.3 Refresh).
func (h *Handle) refresh(ei *expressedInterest) error {
	if ei.outstanding >= ei.target {
		return nil
	}
	if err := h.Put(ei.encoded); err != nil {
		return err
	}
	ei.outstanding++
	ei.lastSend = h.clock.Now()
	return nil
}

// ageInterests runs the per-tick Ageing pass over every outstanding
// Interest (§4.3 Ageing) and returns the smallest remaining
// lifetime-minus-age, in microseconds, across live interests.
func (h *Handle) ageInterests() int64 {
	now := h.clock.Now()
	nextWakeupUs := int64(interestLifetime / time.Microsecond)

	for _, entry := range h.interests.buckets {
		for _, ei := range entry.bucket.all() {
			if ei.lastSend.IsZero() {
				continue
			}
			if now.Sub(ei.lastSend) > staleAfter {
				ei.outstanding = 0
				ei.lastSend = now.Add(-staleAfter)
			}

			deltaUs := now.Sub(ei.lastSend).Microseconds()
			lifetimeUs := int64(interestLifetime / time.Microsecond)
			expired := deltaUs >= lifetimeUs
			if expired {
				ei.outstanding = 0
			}

			remain := lifetimeUs - deltaUs
			if remain < nextWakeupUs {
				nextWakeupUs = remain
			}

			if expired && ei.target > 0 {
				h.checkMagic(ei, "ageInterests")
				action := h.deliver(ei, UpcallInterestTimedOut, &UpcallInfo{})
				h.checkMagic(ei, "ageInterests/post")
				if action == ActionReexpress {
					h.refresh(ei)
				} else {
					ei.target = 0
				}
			}
		}
	}

	if nextWakeupUs < 0 {
		nextWakeupUs = 0
	}
	return nextWakeupUs
}

// checkPubArrivals runs CheckPubArrival (§4.6) over every suspended
// Interest.
func (h *Handle) checkPubArrivals() {
	for _, entry := range h.interests.buckets {
		for _, ei := range entry.bucket.all() {
			if ei.wantedPub == nil {
				continue
			}
			if h.keys.get(ei.wantedPub) != nil {
				ei.wantedPub = nil
				ei.target = 1
				h.refresh(ei)
			}
		}
	}
}

// sweepInterests destroys any Interest whose handler has been cleared and
// which is not waiting on a key fetch, removing empty buckets (§4.3
// Sweeping, §3 PrefixBucket invariant).
func (h *Handle) sweepInterests() {
	for key, entry := range h.interests.buckets {
		for _, ei := range entry.bucket.all() {
			if ei.handler == nil && ei.wantedPub == nil {
				entry.bucket.remove(ei)
			}
		}
		if entry.bucket.head == nil {
			delete(h.interests.buckets, key)
		}
	}
}

// destroyAll releases every outstanding Interest's handler (FINAL on
// refcount drop), used by Handle.Destroy (§4.1).
func (r *interestRegistry) destroyAll(h *Handle) {
	for _, entry := range r.buckets {
		for _, ei := range entry.bucket.all() {
			if ei.handler != nil {
				ei.handler.release(h)
				ei.handler = nil
			}
		}
	}
	r.buckets = make(map[uint64]*registryEntry)
}

// checkMagic re-validates an Interest's sentinel after an upcall, per §4.5:
// "An interest's magic value is re-checked after each upcall — a
// violation indicates the handler freed its own state prematurely."
func (h *Handle) checkMagic(ei *expressedInterest, site string) {
	if ei.magic != interestMagic {
		h.note(ErrKindInternal, site, ErrInternal{Site: site, Detail: "expressed interest magic corrupted"})
	}
}

// deliver invokes an Interest's handler with the given kind and returns
// the handler's UpcallAction; it neither clears nor retires the Interest,
// leaving that to the caller (§4.3/§4.5).
func (h *Handle) deliver(ei *expressedInterest, kind UpcallKind, info *UpcallInfo) UpcallAction {
	if ei.handler == nil {
		return ActionOK
	}
	info.Kind = kind
	h.running++
	action := ei.handler.invoke(h, info)
	h.running--
	return action
}

// retireInterest clears an Interest's target and handler, releasing the
// handler's reference (FINAL on last ref), per §4.5 step 2.d "otherwise".
func (h *Handle) retireInterest(ei *expressedInterest) {
	ei.target = 0
	ei.encoded = nil
	if ei.handler != nil {
		c := ei.handler
		ei.handler = nil
		c.release(h)
	}
}
