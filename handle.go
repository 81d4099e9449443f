package ccnclient

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ccnx-go/ccnclient/log"
)

// Clock abstracts wall-clock access so the event loop and Interest ageing
// can be driven deterministically in tests, per DESIGN NOTES (env/state
// injection) and grounded on the reference stack's Timer.Now/DummyTimer
// pair (std/engine/basic/timer.go, dummy_timer.go).
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Handle is the process-local context for one connection to a forwarding
// daemon: socket, buffers, registries, clock, and error state (§3 DATA
// MODEL, Handle).
type Handle struct {
	conn   net.Conn
	clock  Clock
	config clientConfig

	inbuf  []byte
	outbuf []byte

	interests *interestRegistry
	filters   *filterRegistry
	keys      *KeyCache

	now         time.Time
	nextWakeup  time.Duration
	loopTimeout time.Duration

	errKind ErrKind
	errSite string

	running int // >0 means we're inside an upcall (reentrancy depth)
	runLoop bool

	tap *os.File

	// runTimeoutMs, when set to a non-negative value by SetRunTimeout
	// from inside an upcall, overrides the remaining budget of the
	// current Run call (§4.7 step 7).
	runTimeoutOverride bool
	runTimeoutMs       int
}

// String satisfies fmt.Stringer for log call sites.
func (h *Handle) String() string {
	return "ccn-handle"
}

// Create returns a new disconnected Handle. It reads CCN_DEBUG and
// CCN_TAP once (§4.1 Create) and cannot fail except on allocation.
func Create() *Handle {
	cfg := loadClientConfig()
	if cfg.Debug {
		log.Default().SetLevel(log.LevelTrace)
	}

	h := &Handle{
		config:    cfg,
		clock:     realClock{},
		interests: newInterestRegistry(),
		filters:   newFilterRegistry(),
		keys:      NewKeyCache(),
	}

	if cfg.TapPath != "" {
		h.openTap(cfg.TapPath)
	}

	return h
}

func (h *Handle) openTap(prefix string) {
	name := fmt.Sprintf("%s-%d-%d-%d", prefix, os.Getpid(), h.clock.Now().Unix(), h.clock.Now().Nanosecond()/1000)
	f, err := os.Create(name)
	if err != nil {
		log.Warn(h, "Failed to open tap file", "path", name, "err", err)
		return
	}
	h.tap = f
}

// IsConnected reports whether Connect has been called successfully and
// Disconnect has not since undone it.
func (h *Handle) IsConnected() bool {
	return h.conn != nil
}

// Connect opens a stream socket to the forwarding daemon (§4.1 Connect).
// An empty endpoint falls back to CCN_LOCAL_PORT-suffixed default path.
func (h *Handle) Connect(endpoint string) error {
	if h.IsConnected() {
		return h.note(ErrKindInvalid, "Connect", ErrAlreadyOpen)
	}

	path := endpoint
	if path == "" {
		path = h.config.socketPath()
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return h.note(ErrKindIO, "Connect", err)
	}

	h.conn = conn
	h.inbuf = h.inbuf[:0]
	h.outbuf = h.outbuf[:0]
	return nil
}

// Disconnect closes the socket, drops I/O buffers, and marks the Handle
// disconnected (§4.1 Disconnect).
func (h *Handle) Disconnect() {
	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
	}
	h.inbuf = nil
	h.outbuf = nil
}

// Destroy tears the Handle down: disconnects, delivers FINAL to every
// filter and every outstanding Interest's handler, and frees the Key
// Cache (§4.1 Destroy).
func (h *Handle) Destroy() {
	h.Disconnect()

	h.filters.destroyAll(h)
	h.interests.destroyAll(h)
	h.keys.clear()

	if h.tap != nil {
		h.tap.Close()
		h.tap = nil
	}
}

// note records an error kind and the call-site name supplied by the
// caller (§4.1/§7). If CCN_DEBUG was set, the message is also printed.
func (h *Handle) note(kind ErrKind, site string, err error) error {
	h.errKind = kind
	h.errSite = site
	if h.config.Debug {
		fmt.Fprintf(os.Stderr, "ccn: %s at %s: %v\n", kind, site, err)
	}
	log.Error(h, "error noted", "kind", kind.String(), "site", site, "err", err)
	return err
}

// LastError reports the most recently noted error kind and call site.
func (h *Handle) LastError() (ErrKind, string) {
	return h.errKind, h.errSite
}

// SetRunTimeout lets an upcall abort the current Run iteration (§4.7 step
// 7, §5 Cancellation): SetRunTimeout(0) breaks the loop at the next
// opportunity.
func (h *Handle) SetRunTimeout(ms int) {
	h.runTimeoutOverride = true
	h.runTimeoutMs = ms
}

// KeyCache exposes the Handle's key cache.
func (h *Handle) KeyCache() *KeyCache {
	return h.keys
}
