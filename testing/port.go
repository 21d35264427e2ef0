package coinagetesting

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// FreePort picks a free TCP port on the loopback interface. Another process
// can grab the port between the pick and the caller's bind, so prefer
// handing over a listener where the API allows it.
func FreePort(t testing.TB) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}
