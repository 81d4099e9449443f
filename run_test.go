package ccnclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccnx-go/ccnclient/wire"
)

func TestAgeInterestsFiresTimeoutOnceExpired(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	h := newTestHandle()
	h.clock = clk

	var kinds []UpcallKind
	handler := NewClosure(func(info *UpcallInfo) UpcallAction {
		kinds = append(kinds, info.Kind)
		return ActionOK
	}, nil)

	require.NoError(t, h.Express(wire.NameFromStr("/a/b"), -1, handler, nil))

	h.ProcessScheduledOperations()
	require.Empty(t, kinds, "unexpected upcall before lifetime elapsed")

	clk.advance(interestLifetime + time.Millisecond)
	h.ProcessScheduledOperations()

	require.Equal(t, []UpcallKind{UpcallInterestTimedOut}, kinds)

	// A second pass at the same (expired) time must not refire, since the
	// Interest was retired after the first timeout.
	h.ProcessScheduledOperations()
	require.Len(t, kinds, 1, "timeout refired")
}

func TestAgeInterestsReexpressKeepsInterestAlive(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	h := newTestHandle()
	h.clock = clk

	fires := 0
	handler := NewClosure(func(info *UpcallInfo) UpcallAction {
		if info.Kind == UpcallInterestTimedOut {
			fires++
			return ActionReexpress
		}
		return ActionOK
	}, nil)

	require.NoError(t, h.Express(wire.NameFromStr("/a/b"), -1, handler, nil))

	clk.advance(interestLifetime + time.Millisecond)
	h.ProcessScheduledOperations()

	clk.advance(interestLifetime + time.Millisecond)
	h.ProcessScheduledOperations()

	require.Equal(t, 2, fires, "ActionReexpress should keep the Interest alive")
}

func TestSweepInterestsRemovesClearedHandlers(t *testing.T) {
	h := newTestHandle()
	name := wire.NameFromStr("/a/b")

	handler := NewClosure(func(info *UpcallInfo) UpcallAction { return ActionOK }, nil)
	require.NoError(t, h.Express(name, -1, handler, nil))

	key, err := wire.PrefixKey(name.Encode(), -1, true)
	require.NoError(t, err)
	bucket := h.interests.lookup(key)
	require.NotNil(t, bucket)
	require.NotNil(t, bucket.head, "expected an expressed interest to be registered")
	bucket.head.handler = nil

	h.sweepInterests()

	require.Nil(t, h.interests.lookup(key), "expected the bucket to be removed once its only entry was cleared")
}
