package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listenTCP occupies an OS-assigned TCP port for the duration of the test.
func listenTCP(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "failed to start test listener")
	t.Cleanup(func() { _ = ln.Close() })

	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.Port
}

// freeTCPPort returns a port that had no listener a moment ago.
func freeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestIsPortAvailable_FreePort(t *testing.T) {
	free := freeTCPPort(t)
	assert.True(t, NewScanner().IsPortAvailable(free), "port %d should be available", free)
}

func TestIsPortAvailable_UsedPort(t *testing.T) {
	port := listenTCP(t)
	assert.False(t, NewScanner().IsPortAvailable(port), "port %d has a listener", port)
}
