package ccnclient

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccnx-go/ccnclient/wire"
)

// listenUnixMulti is like listenUnix but accepts more than one connection,
// needed here because a re-entrant Get opens its own socket to the same
// daemon rather than sharing the caller's.
func listenUnixMulti(t *testing.T, n int) (string, <-chan net.Conn) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ccnd.sock")

	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	ch := make(chan net.Conn, n)
	go func() {
		for i := 0; i < n; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			ch <- conn
		}
	}()
	return path, ch
}

func serveOneInterest(t *testing.T, conn net.Conn, name wire.Name, payload []byte) {
	t.Helper()
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
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
	conn.Write(raw)
}

func TestGetFromWithinUpcallUsesIsolatedShadow(t *testing.T) {
	path, accepted := listenUnixMulti(t, 2)

	h := Create()
	require.NoError(t, h.Connect(path))
	defer h.Destroy()

	outerConn := <-accepted
	defer outerConn.Close()

	outerName := wire.NameFromStr("/outer/trigger")
	outerPayload := []byte("outer content")
	innerName := wire.NameFromStr("/inner/data")
	innerPayload := []byte("inner content")

	go serveOneInterest(t, outerConn, outerName, outerPayload)
	go func() {
		innerConn := <-accepted
		defer innerConn.Close()
		serveOneInterest(t, innerConn, innerName, innerPayload)
	}()

	var innerRaw []byte
	var innerCO *wire.ContentObject
	var innerErr error
	handler := NewClosure(func(info *UpcallInfo) UpcallAction {
		if info.Kind == UpcallContent || info.Kind == UpcallContentUnverified {
			innerRaw, innerCO, _, innerErr = Get(h, innerName, -1, nil, 2000)
			h.SetRunTimeout(0)
		}
		return ActionOK
	}, nil)

	require.NoError(t, h.Express(outerName, -1, handler, nil))
	require.NoError(t, h.Run(2000))

	require.NoError(t, innerErr)
	require.NotNil(t, innerCO)
	require.Equal(t, innerPayload, innerCO.Content)
	require.NotEmpty(t, innerRaw)

	// The outer Handle's own Interest Registry must never have gained an
	// entry for the inner name: the nested Get ran against an isolated
	// shadow with its own registries and its own connection, so it cannot
	// disturb the enclosing loop's state (Testable Property 7).
	innerKey, err := wire.PrefixKey(innerName.Encode(), -1, true)
	require.NoError(t, err)
	require.Nil(t, h.interests.lookup(innerKey))
}

func TestGetWithNilHandleBuildsItsOwnConnectionInsteadOfPanicking(t *testing.T) {
	// With no forwarding daemon listening on the default socket path,
	// Get(nil, ...) must fail to connect rather than dereference a nil
	// Handle ("If no handle was supplied", §4.8).
	_, _, _, err := Get(nil, wire.NameFromStr("/standalone/data"), -1, nil, 50)
	require.Error(t, err)
}
