package ccnclient

import (
	"github.com/ccnx-go/ccnclient/wire"
)

// getTimeoutDefaultMs bounds a Get call lacking an explicit timeout.
const getTimeoutDefaultMs = 3000

// Get expresses name synchronously: it drives an event loop internally
// until a matching ContentObject arrives or timeoutMs elapses, returning
// the raw and parsed ContentObject (§4.8 Synchronous Get).
//
// If h is nil, a fresh, privately-connected Handle is created for the
// call and torn down afterward ("If no handle was supplied", §4.8). A
// re-entrant call (h.running > 0) cannot simply call h.Run, since Run
// rejects re-entry (§5); instead it drives a shadow Handle — its own
// connection and its own Interest/Filter registries, borrowing only h's
// Key Cache by reference — so inbound frames read during the nested loop
// are never dispatched through the enclosing loop's state (Testable
// Property 7), while keys fetched during the nested Get remain visible
// to h afterward.
func Get(h *Handle, name wire.Name, prefixComps int, template []byte, timeoutMs int) ([]byte, *wire.ContentObject, int, error) {
	if timeoutMs <= 0 {
		timeoutMs = getTimeoutDefaultMs
	}

	target := h
	var cleanup func()

	switch {
	case h == nil:
		fresh := Create()
		if err := fresh.Connect(""); err != nil {
			return nil, nil, 0, err
		}
		target = fresh
		cleanup = fresh.Destroy
	case h.running > 0:
		shadow, err := h.shadow()
		if err != nil {
			return nil, nil, 0, h.note(ErrKindIO, "Get", err)
		}
		target = shadow
		cleanup = shadow.Disconnect
	}
	if cleanup != nil {
		defer cleanup()
	}

	var result struct {
		raw     []byte
		co      *wire.ContentObject
		comps   int
		arrived bool
	}

	handler := NewClosure(func(info *UpcallInfo) UpcallAction {
		switch info.Kind {
		case UpcallContent, UpcallContentUnverified:
			result.raw = info.ContentRaw
			result.co = info.Content
			result.comps = info.MatchedComps
			result.arrived = true
			target.SetRunTimeout(0)
		case UpcallContentBad, UpcallInterestTimedOut:
			target.SetRunTimeout(0)
		}
		return ActionOK
	}, nil)

	if err := target.Express(name, prefixComps, handler, template); err != nil {
		return nil, nil, 0, err
	}

	if err := target.Run(timeoutMs); err != nil {
		return nil, nil, 0, err
	}

	if !result.arrived {
		return nil, nil, 0, target.note(ErrKindIO, "Get", ErrNoKey)
	}
	return result.raw, result.co, result.comps, nil
}

// shadow opens an independent connection to the same forwarding daemon
// as h and pairs it with fresh Interest and Filter registries, borrowing
// only h's Key Cache by reference (§4.8 "shadow Handle"). Isolated
// registries mean a ContentObject the nested loop reads can never
// satisfy — or otherwise disturb — an Interest the enclosing loop owns;
// the shared Key Cache means key material fetched during the nested Get
// is still visible to h once the shadow is torn down.
func (h *Handle) shadow() (*Handle, error) {
	s := &Handle{
		clock:     h.clock,
		config:    h.config,
		interests: newInterestRegistry(),
		filters:   newFilterRegistry(),
		keys:      h.keys,
	}

	endpoint := ""
	if h.conn != nil {
		if addr := h.conn.RemoteAddr(); addr != nil {
			endpoint = addr.String()
		}
	}
	if err := s.Connect(endpoint); err != nil {
		return nil, err
	}
	return s, nil
}
