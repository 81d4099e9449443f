package ccnclient

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ccnx-go/ccnclient/log"
	"github.com/ccnx-go/ccnclient/wire"
)

const (
	readChunk        = 16 * 1024
	maxOutboundQueue = 1 << 20 // 1 MiB; see SPEC_FULL.md Open Question #1
)

// rawFD extracts the OS file descriptor backing conn so the transport can
// drive it with non-blocking reads/writes and a single poll(2) call, the
// way §4.2/§4.7 require ("only poll inside Run may block; all other
// operations are non-blocking, including socket writes").
func rawFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, errors.New("connection does not expose a raw file descriptor")
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	var ctrlErr error
	err = rc.Control(func(f uintptr) {
		fd = int(f)
		ctrlErr = unix.SetNonblock(fd, true)
	})
	if err != nil {
		return -1, err
	}
	return fd, ctrlErr
}

// Put validates that bytes form exactly one well-formed top-level element
// and queues/sends it (§4.2 Outbound policy). Testable Property 1.
func (h *Handle) Put(bytes []byte) error {
	if _, ok := wire.DecodeOne(bytes); !ok {
		return h.note(ErrKindInvalid, "Put", ErrInvalidValue{Item: "frame", Value: "not exactly one top-level element"})
	}

	if h.tap != nil {
		if _, err := h.tap.Write(bytes); err != nil {
			log.Warn(h, "tap write failed, disabling tap", "err", err)
			h.tap.Close()
			h.tap = nil
		}
	}

	if len(h.outbuf) == 0 && h.IsConnected() {
		n, err := h.rawWrite(bytes)
		if err != nil {
			return h.note(ErrKindIO, "Put", err)
		}
		if n < len(bytes) {
			if len(h.outbuf)+len(bytes[n:]) > maxOutboundQueue {
				return h.note(ErrKindIO, "Put", ErrWouldBlock)
			}
			h.outbuf = append(h.outbuf, bytes[n:]...)
		}
		return nil
	}

	if len(h.outbuf)+len(bytes) > maxOutboundQueue {
		return h.note(ErrKindIO, "Put", ErrWouldBlock)
	}
	h.outbuf = append(h.outbuf, bytes...)
	return nil
}

func (h *Handle) rawWrite(b []byte) (int, error) {
	fd, err := rawFD(h.conn)
	if err != nil {
		return 0, err
	}
	n, err := unix.Write(fd, b)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

// Pushout drains the outbound buffer, returning whether output is still
// pending (so the caller can mask POLLOUT accordingly, §4.2 Pushout).
func (h *Handle) Pushout() (pending bool, err error) {
	if len(h.outbuf) == 0 || !h.IsConnected() {
		return false, nil
	}
	n, werr := h.rawWrite(h.outbuf)
	if werr != nil {
		return len(h.outbuf) > 0, h.note(ErrKindIO, "Pushout", werr)
	}
	h.outbuf = h.outbuf[n:]
	return len(h.outbuf) > 0, nil
}

// ProcessInput reads available bytes, feeds them through the skeleton
// decoder, and hands each complete frame to the Dispatcher (§4.2 Inbound
// policy).
func (h *Handle) ProcessInput() error {
	fd, err := rawFD(h.conn)
	if err != nil {
		return h.note(ErrKindIO, "ProcessInput", err)
	}

	buf := make([]byte, readChunk)
	n, rerr := unix.Read(fd, buf)
	if rerr != nil {
		if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) {
			return nil
		}
		return h.note(ErrKindIO, "ProcessInput", rerr)
	}
	if n == 0 {
		h.Disconnect()
		return h.note(ErrKindNotConnected, "ProcessInput", ErrNotConnected)
	}

	h.inbuf = append(h.inbuf, buf[:n]...)

	var dec wire.Skeleton
	msgStart := 0
	for {
		dec.Decode(h.inbuf[msgStart:])
		if dec.State != 0 {
			break
		}
		frame := h.inbuf[msgStart : msgStart+dec.Index]
		h.dispatch(frame)
		msgStart += dec.Index
		dec.Reset()
	}

	if msgStart > 0 {
		remaining := len(h.inbuf) - msgStart
		copy(h.inbuf, h.inbuf[msgStart:])
		h.inbuf = h.inbuf[:remaining]
	}

	return nil
}
