package ccnclient

import (
	"github.com/ccnx-go/ccnclient/wire"
)

// interestFilter is one registered prefix handler (§3 DATA MODEL,
// InterestFilter; §4.4).
type interestFilter struct {
	prefixComps int
	handler     *Closure
	next        *interestFilter
}

type filterBucket struct {
	head *interestFilter
}

func (b *filterBucket) pushFront(f *interestFilter) {
	f.next = b.head
	b.head = f
}

func (b *filterBucket) all() []*interestFilter {
	var out []*interestFilter
	for f := b.head; f != nil; f = f.next {
		out = append(out, f)
	}
	return out
}

func (b *filterBucket) remove(target *interestFilter) {
	if b.head == target {
		b.head = target.next
		return
	}
	for f := b.head; f != nil; f = f.next {
		if f.next == target {
			f.next = target.next
			return
		}
	}
}

// filterRegistry is the hash table of registered Interest filters, keyed
// the same way as the Interest Registry (xxhash of the raw prefix bytes),
// so dispatchInterest looks up each candidate prefix length with one
// PrefixKey computation (§4.4, §4.5 step 1).
type filterRegistry struct {
	buckets map[uint64]*registryEntry2
}

type registryEntry2 struct {
	key    []byte
	bucket *filterBucket
}

func newFilterRegistry() *filterRegistry {
	return &filterRegistry{buckets: make(map[uint64]*registryEntry2)}
}

func (r *filterRegistry) lookup(key []byte) *filterBucket {
	if e, ok := r.buckets[hashKey(key)]; ok {
		return e.bucket
	}
	return nil
}

func (r *filterRegistry) seekOrInsert(key []byte) *filterBucket {
	h := hashKey(key)
	if e, ok := r.buckets[h]; ok {
		return e.bucket
	}
	own := make([]byte, len(key))
	copy(own, key)
	b := &filterBucket{}
	r.buckets[h] = &registryEntry2{key: own, bucket: b}
	return b
}

// SetFilter registers or replaces the handler for a name prefix (§4.4
// SetFilter). Passing a nil handler removes any existing registration,
// delivering FINAL to the prior handler's Closure.
func (h *Handle) SetFilter(name wire.Name, handler *Closure) error {
	nameBytes := name.Encode()
	key, err := wire.PrefixKey(nameBytes, len(name), false)
	if err != nil {
		return h.note(ErrKindInvalid, "SetFilter", err)
	}

	bucket := h.filters.seekOrInsert(key)

	for _, f := range bucket.all() {
		if f.prefixComps == len(name) {
			bucket.remove(f)
			if f.handler != nil {
				f.handler.release(h)
			}
		}
	}

	if handler != nil {
		bucket.pushFront(&interestFilter{prefixComps: len(name), handler: handler})
	}
	return nil
}

// destroyAll releases every registered filter's handler, used by
// Handle.Destroy (§4.1).
func (r *filterRegistry) destroyAll(h *Handle) {
	for _, entry := range r.buckets {
		for _, f := range entry.bucket.all() {
			if f.handler != nil {
				f.handler.release(h)
				f.handler = nil
			}
		}
	}
	r.buckets = make(map[uint64]*registryEntry2)
}
