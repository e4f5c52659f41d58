package synth_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/synth"
	"github.com/zecharness/ziggurat-go/wire"
)

func TestFullHandshakeReachesEstablishedBothSides(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := synth.NewBuilder().WithFullHandshake().Build(ctx)
	require.NoError(t, err)
	defer a.ShutDown()

	b, err := synth.NewBuilder().WithFullHandshake().Build(ctx)
	require.NoError(t, err)
	defer b.ShutDown()

	require.NoError(t, a.Connect(ctx, b.ListeningAddr().String()))

	require.Eventually(t, func() bool {
		return a.NumConnected() == 1 && b.NumConnected() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSelfConnectIsRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := synth.NewBuilder().WithFullHandshake().Build(ctx)
	require.NoError(t, err)
	defer a.ShutDown()

	err = a.Connect(ctx, a.ListeningAddr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-connect")
}

func TestPreHandshakeNonVersionIsRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := synth.NewBuilder().WithFullHandshake().Build(ctx)
	require.NoError(t, err)
	defer a.ShutDown()

	conn, err := net.Dial("tcp", a.ListeningAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.WriteMessage(conn, wire.ZecTestNet, protocol.Ping{Nonce: protocol.RandomNonce()}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadMessage(conn, wire.ZecTestNet)
	// The responder side rejects any pre-handshake message that isn't a
	// Version and closes the connection without replying, mirroring
	// is_termination_error from the reference harness: the client sees
	// the connection end, never a protocol reply.
	require.Error(t, err)
	assert.True(t, synth.IsTerminationError(err))
}

func TestValidateHomogeneousKindRejectsMixedKinds(t *testing.T) {
	items := []protocol.InvVect{
		{Kind: protocol.ObjectTx, Hash: wire.ZeroHash},
		{Kind: protocol.ObjectBlock, Hash: wire.ZeroHash},
	}
	err := synth.ValidateHomogeneousKind(items)
	require.ErrorIs(t, err, synth.ErrMixedInventoryKind)
}

func TestValidateHomogeneousKindAcceptsSingleKind(t *testing.T) {
	items := []protocol.InvVect{
		{Kind: protocol.ObjectTx, Hash: wire.ZeroHash},
		{Kind: protocol.ObjectTx, Hash: wire.ZeroHash},
	}
	require.NoError(t, synth.ValidateHomogeneousKind(items))
}

func TestAutoReplyPingPong(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := synth.NewBuilder().WithFullHandshake().Build(ctx)
	require.NoError(t, err)
	defer a.ShutDown()

	b, err := synth.NewBuilder().WithFullHandshake().Build(ctx)
	require.NoError(t, err)
	defer b.ShutDown()

	require.NoError(t, a.Connect(ctx, b.ListeningAddr().String()))
	require.Eventually(t, func() bool {
		return a.NumConnected() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.PingPongTimeout(b.ListeningAddr().String(), 2*time.Second))
}
