package ccnclient

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccnx-go/ccnclient/wire"
)

// listenUnix starts a one-shot unix listener in a temp directory and
// returns its path plus a channel that yields the first accepted
// connection, mirroring how a real forwarding daemon would be reached by
// Connect (§4.1).
func listenUnix(t *testing.T) (string, <-chan net.Conn) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ccnd.sock")

	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	ch := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			ch <- conn
		}
	}()
	return path, ch
}

func TestConnectDisconnectLifecycle(t *testing.T) {
	path, accepted := listenUnix(t)

	h := Create()
	require.False(t, h.IsConnected(), "a freshly created Handle must not be connected")

	require.NoError(t, h.Connect(path))
	require.True(t, h.IsConnected())

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}

	require.Error(t, h.Connect(path), "Connect while already connected must fail")

	h.Disconnect()
	require.False(t, h.IsConnected())
}

func TestGetReceivesContentOverRealSocket(t *testing.T) {
	path, accepted := listenUnix(t)

	h := Create()
	require.NoError(t, h.Connect(path))
	defer h.Destroy()

	server := <-accepted
	defer server.Close()

	name := wire.NameFromStr("/example/data")
	payload := []byte("served over a real unix socket")

	// Act as the forwarding daemon: once an Interest arrives, reply with a
	// matching ContentObject.
	go func() {
		buf := make([]byte, 4096)
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		if _, err := wire.DecodeInterest(buf[:n]); err != nil {
			return
		}
		raw, err := wire.EncodeContentObject(name, nil, wire.ContentTypeData, nil, payload, sha256Sign)
		if err != nil {
			return
		}
		server.Write(raw)
	}()

	raw, co, _, err := Get(h, name, -1, nil, 2000)
	require.NoError(t, err)
	require.Equal(t, payload, co.Content)
	require.NotEmpty(t, raw)
}

func TestDestroyDeliversFinalToOutstandingHandlers(t *testing.T) {
	h := newTestHandle()

	finalFired := false
	handler := NewClosure(func(info *UpcallInfo) UpcallAction {
		if info.Kind == UpcallFinal {
			finalFired = true
		}
		return ActionOK
	}, nil)

	require.NoError(t, h.Express(wire.NameFromStr("/a"), -1, handler, nil))

	h.Destroy()

	require.True(t, finalFired, "expected Destroy to deliver FINAL to the outstanding Interest's handler")
}

func TestCreateOpensTapWhenCCNTapSet(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "tap")

	os.Setenv("CCN_TAP", prefix)
	defer os.Unsetenv("CCN_TAP")

	h := Create()
	require.NotNil(t, h.tap, "expected Create() to open a tap file when CCN_TAP is set")
	h.Destroy()
}
