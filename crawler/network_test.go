package crawler_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zecharness/ziggurat-go/crawler"
)

func tcpAddr(t *testing.T, s string) net.Addr {
	t.Helper()
	addr, err := net.ResolveTCPAddr("tcp", s)
	require.NoError(t, err)
	return addr
}

func TestConnectionKeyIsSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		aPort := rapid.IntRange(1, 65535).Draw(t, "aPort")
		bPort := rapid.IntRange(1, 65535).Draw(t, "bPort")
		a := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: aPort}
		b := &net.TCPAddr{IP: net.ParseIP("127.0.0.2"), Port: bPort}

		assert.Equal(t, crawler.TstSymmetricKey(a, b), crawler.TstSymmetricKey(b, a))
	})
}

func TestAddAddrsSatisfiesMapClosure(t *testing.T) {
	nw := crawler.NewNetwork()
	source := tcpAddr(t, "127.0.0.1:8000")
	peers := []net.Addr{tcpAddr(t, "127.0.0.1:8001"), tcpAddr(t, "127.0.0.1:8002")}

	nw.AddAddrs(source, peers)

	nodes, _ := nw.Snapshot()
	_, ok := nodes[source.String()]
	assert.True(t, ok)
	for _, p := range peers {
		_, ok := nodes[p.String()]
		assert.True(t, ok)
	}
}

func TestPruneStaleRemovesAgedConnections(t *testing.T) {
	nw := crawler.NewNetwork()
	source := tcpAddr(t, "127.0.0.1:8000")
	peer := tcpAddr(t, "127.0.0.1:8001")
	nw.AddAddrs(source, []net.Addr{peer})
	require.Equal(t, 1, nw.NumConnections())

	// PruneStale compares against real wall-clock time, so prune with a
	// cutoff of zero to simulate every connection having aged out.
	nw.PruneStale(0)
	assert.Equal(t, 0, nw.NumConnections())
}

func TestShouldConnectRespectsFailureCapAndBackoff(t *testing.T) {
	nw := crawler.NewNetwork()
	addr := tcpAddr(t, "127.0.0.1:8000")

	assert.True(t, nw.ShouldConnect(addr, time.Now()), "unknown address should be eligible")

	nw.RecordFailure(addr)
	assert.False(t, nw.ShouldConnect(addr, time.Now()), "immediately after a failure, backoff hasn't elapsed")
	assert.True(t, nw.ShouldConnect(addr, time.Now().Add(time.Minute)), "backoff elapsed")

	for i := 0; i < crawler.MaxFailures; i++ {
		nw.RecordFailure(addr)
	}
	assert.False(t, nw.ShouldConnect(addr, time.Now().Add(24*time.Hour)), "failure cap reached")
}
