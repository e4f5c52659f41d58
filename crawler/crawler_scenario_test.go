package crawler_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecharness/ziggurat-go/crawler"
	"github.com/zecharness/ziggurat-go/filter"
	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/synth"
	"github.com/zecharness/ziggurat-go/wire"
)

// newFakeGossipPeer builds a synthetic peer that defers getaddr to the
// test so it can script a gossip response, instead of the canned empty
// auto-reply.
func newFakeGossipPeer(t *testing.T, ctx context.Context) *synth.Node {
	t.Helper()
	policy := filter.New().WithAllAutoReply().WithGetAddrFilter(filter.Disabled)
	node, err := synth.NewBuilder().WithFullHandshake().WithMessageFilter(policy).Build(ctx)
	require.NoError(t, err)
	return node
}

// replyToNextGetAddr waits for one GetAddr on peer and answers it with
// gossip, simulating a real node relaying addresses it knows about.
func replyToNextGetAddr(t *testing.T, peer *synth.Node, gossip []wire.NetAddress) {
	t.Helper()
	go func() {
		addr, msg, err := peer.RecvMessageTimeout(10 * time.Second)
		if err != nil {
			return
		}
		if _, ok := msg.(protocol.GetAddr); !ok {
			return
		}
		_ = peer.SendDirectMessage(addr.String(), protocol.Addr{Addrs: gossip})
	}()
}

// TestCrawlerEagerlyDiscoversTheWholeNetwork mirrors the reference
// implementation's eagerly_crawls_network_for_peers scenario: seed from
// one node that gossips its peers, then let the periodic sweep dial
// those peers too.
func TestCrawlerEagerlyDiscoversTheWholeNetwork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	peerA := newFakeGossipPeer(t, ctx)
	peerB := newFakeGossipPeer(t, ctx)
	peerC := newFakeGossipPeer(t, ctx)

	bAddr := peerB.ListeningAddr().(*net.TCPAddr)
	cAddr := peerC.ListeningAddr().(*net.TCPAddr)
	replyToNextGetAddr(t, peerA, []wire.NetAddress{
		wire.NetAddressFromTCPAddr(bAddr, 0),
		wire.NetAddressFromTCPAddr(cAddr, 0),
	})

	c, err := crawler.New(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, c.Seed(ctx, []net.Addr{peerA.ListeningAddr()}))
	assert.Equal(t, 3, c.Network().NumNodes(), "peerA, peerB and peerC should all be known after seeding")

	go func() { _ = c.Run(ctx, 100*time.Millisecond) }()

	deadline := time.Now().Add(10 * time.Second)
	for c.Node().NumConnected() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the crawler to connect to all three peers, got %d", c.Node().NumConnected())
		}
		time.Sleep(50 * time.Millisecond)
	}
}
