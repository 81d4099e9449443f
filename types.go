// Package ccnclient is the client-side protocol engine for an NDN/CCN
// style communication substrate: it expresses Interests and serves
// Interest filters over a single stream connection to a local forwarding
// daemon, dispatches inbound ContentObjects to the requester that asked
// for them, and verifies publisher signatures with on-demand key fetch.
package ccnclient

import (
	"github.com/ccnx-go/ccnclient/types/arc"
	"github.com/ccnx-go/ccnclient/wire"
)

// UpcallKind classifies why a Closure is being invoked (§4, §6 ABI table).
type UpcallKind int

const (
	UpcallFinal UpcallKind = iota
	UpcallInterest
	UpcallConsumedInterest
	UpcallContent
	UpcallContentUnverified
	UpcallContentBad
	UpcallInterestTimedOut
)

func (k UpcallKind) String() string {
	switch k {
	case UpcallFinal:
		return "FINAL"
	case UpcallInterest:
		return "INTEREST"
	case UpcallConsumedInterest:
		return "CONSUMED_INTEREST"
	case UpcallContent:
		return "CONTENT"
	case UpcallContentUnverified:
		return "CONTENT_UNVERIFIED"
	case UpcallContentBad:
		return "CONTENT_BAD"
	case UpcallInterestTimedOut:
		return "INTEREST_TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// UpcallAction is a handler's instruction back to the core (§6 ABI table).
type UpcallAction int

const (
	ActionOK UpcallAction = iota
	ActionErr
	ActionReexpress
	ActionInterestConsumed
	ActionVerify
)

// UpcallInfo is the transient record passed to a Closure on each
// invocation (§3 DATA MODEL).
type UpcallInfo struct {
	Handle *Handle
	Kind   UpcallKind

	Interest    *wire.Interest
	InterestRaw []byte

	Content    *wire.ContentObject
	ContentRaw []byte

	// MatchedComps is the number of name components that matched during
	// dispatch: the filter/prefix depth for INTEREST kinds.
	MatchedComps int
}

// HandlerFunc is the application callback invoked by the core.
type HandlerFunc func(info *UpcallInfo) UpcallAction

// closureState is the payload managed by the refcount pool backing
// Closure: a handler plus opaque client data, matching the "function
// pointer + opaque client data + small integer + refcount" shape from
// §3. Client data is left to the application as the Data field.
type closureState struct {
	Handler HandlerFunc
	Data    any
	Flags   int
}

// Closure is a refcounted upcall handler. The DESIGN NOTES model this as
// a shared handle rather than a raw pointer + manual refcount, grounded
// on the reference stack's types/arc.ArcPool pattern: FINAL is delivered
// by whichever caller drives the reference count to zero.
type Closure struct {
	arc *arc.Arc[closureState]
}

var closurePool = arc.NewArcPool(
	func() *closureState { return &closureState{} },
	func(s *closureState) { *s = closureState{} },
)

// NewClosure installs handler (and optional opaque data) as a fresh
// Closure with one reference.
func NewClosure(handler HandlerFunc, data any) *Closure {
	a := closurePool.Get()
	a.Load().Handler = handler
	a.Load().Data = data
	return &Closure{arc: a}
}

// Data returns the opaque client data attached at construction.
func (c *Closure) Data() any {
	return c.arc.Load().Data
}

// retain increments the reference count, returning c for chaining.
func (c *Closure) retain() *Closure {
	c.arc.Inc()
	return c
}

// release decrements the reference count. When it reaches zero the
// backing state is returned to the pool and the FINAL upcall is then
// delivered exactly once (§3 Closure invariant).
func (c *Closure) release(h *Handle) {
	state := c.arc.Load()
	if c.arc.Dec() == 0 {
		if state.Handler != nil {
			state.Handler(&UpcallInfo{Handle: h, Kind: UpcallFinal})
		}
	}
}

// invoke calls the installed handler, if any, with the given kind/info.
// A Closure with no handler installed (handler == nil) is a no-op
// returning ActionOK.
func (c *Closure) invoke(h *Handle, info *UpcallInfo) UpcallAction {
	handler := c.arc.Load().Handler
	if handler == nil {
		return ActionOK
	}
	info.Handle = h
	return handler(info)
}
