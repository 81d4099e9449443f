package ccnclient

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ccnx-go/ccnclient/log"
)

// ProcessScheduledOperations runs the periodic maintenance pass — Interest
// ageing, CheckPubArrival re-checks, and Sweeping — without touching the
// socket. Run calls this once per wakeup; tests call it directly against
// a fake Clock to exercise ageing deterministically (§4.7 step 5).
func (h *Handle) ProcessScheduledOperations() time.Duration {
	nextWakeupUs := h.ageInterests()
	h.checkPubArrivals()
	h.sweepInterests()
	return time.Duration(nextWakeupUs) * time.Microsecond
}

// Run drives the single-threaded cooperative event loop for up to
// timeoutMs milliseconds (0 meaning "return immediately after one pass",
// negative meaning "no deadline"), per §4.7. Exactly one poll(2) call is
// made per iteration; every other operation is non-blocking. Run is not
// reentrant: calling it from inside an upcall returns ErrBusy (§5
// Reentrancy).
func (h *Handle) Run(timeoutMs int) error {
	if h.runLoop {
		return h.note(ErrKindBusy, "Run", ErrBusy)
	}
	h.runLoop = true
	h.runTimeoutOverride = false
	defer func() { h.runLoop = false }()

	start := h.clock.Now()
	budget := time.Duration(timeoutMs) * time.Millisecond
	unbounded := timeoutMs < 0

	for {
		if h.runTimeoutOverride {
			if h.runTimeoutMs <= 0 {
				return nil
			}
			budget = time.Duration(h.runTimeoutMs) * time.Millisecond
			start = h.clock.Now()
			h.runTimeoutOverride = false
			unbounded = false
		}

		wakeupIn := h.ProcessScheduledOperations()

		if !unbounded {
			elapsed := h.clock.Now().Sub(start)
			remaining := budget - elapsed
			if remaining <= 0 {
				return nil
			}
			if wakeupIn > remaining {
				wakeupIn = remaining
			}
		}

		if !h.IsConnected() {
			return h.note(ErrKindNotConnected, "Run", ErrNotConnected)
		}

		if err := h.pollOnce(wakeupIn); err != nil {
			return err
		}

		if !unbounded {
			elapsed := h.clock.Now().Sub(start)
			if elapsed >= budget {
				return nil
			}
		}
	}
}

// pollOnce issues the loop's single blocking call: one poll(2) on the
// transport fd, masking POLLOUT only while output is pending (§4.7 step
// 4, §4.2 Pushout).
func (h *Handle) pollOnce(timeout time.Duration) error {
	fd, err := rawFD(h.conn)
	if err != nil {
		return h.note(ErrKindIO, "Run", err)
	}

	events := int16(unix.POLLIN)
	if len(h.outbuf) > 0 {
		events |= unix.POLLOUT
	}

	pfd := []unix.PollFd{{Fd: int32(fd), Events: events}}

	ms := int(timeout.Milliseconds())
	if ms < 0 {
		ms = 0
	}

	n, err := unix.Poll(pfd, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return h.note(ErrKindIO, "Run", err)
	}
	if n == 0 {
		return nil
	}

	if pfd[0].Revents&unix.POLLOUT != 0 {
		if _, err := h.Pushout(); err != nil {
			log.Warn(h, "pushout failed", "err", err)
		}
	}
	if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
		if err := h.ProcessInput(); err != nil {
			if errors.Is(err, ErrNotConnected) {
				return nil
			}
			log.Warn(h, "process input failed", "err", err)
		}
	}
	return nil
}
