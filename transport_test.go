package ccnclient

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccnx-go/ccnclient/wire"
)

func TestPutRejectsFrameThatIsNotExactlyOneElement(t *testing.T) {
	h := newTestHandle()

	valid := wire.AppendTLV(nil, wire.TypeGenericComponent, []byte("ok"))
	require.NoError(t, h.Put(valid))

	truncated := valid[:len(valid)-1]
	require.Error(t, h.Put(truncated), "Put accepted a truncated frame")

	trailing := append(append([]byte{}, valid...), 0x00)
	require.Error(t, h.Put(trailing), "Put accepted a frame with trailing garbage")
}

func TestPutQueuesWhenDisconnected(t *testing.T) {
	h := newTestHandle()
	frame := wire.AppendTLV(nil, wire.TypeGenericComponent, []byte("queued"))

	require.NoError(t, h.Put(frame))
	require.Len(t, h.outbuf, len(frame), "Put must queue while disconnected")
}

func TestPutEnforcesOutboundQueueCap(t *testing.T) {
	h := newTestHandle()
	big := make([]byte, maxOutboundQueue+1)
	frame := wire.AppendTLV(nil, wire.TypeGenericComponent, big)

	require.Error(t, h.Put(frame), "expected ErrWouldBlock once the outbound queue cap is exceeded")
}
