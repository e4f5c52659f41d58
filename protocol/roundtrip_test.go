package protocol_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/wire"
)

// frameRoundTrip writes msg through the real envelope and reads it back,
// exercising WriteMessage/ReadMessage (and therefore every registered
// decoder) in the same motion a connection would. Comparing re-encoded
// bytes rather than the decoded struct sidesteps the nil-vs-empty-slice
// noise Go's reflect-based equality would otherwise flag as a mismatch.
func frameRoundTrip(t *rapid.T, msg protocol.Message) {
	want, err := msg.Encode()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, protocol.WriteMessage(&buf, wire.ZecTestNet, msg))

	decoded, err := protocol.ReadMessage(&buf, wire.ZecTestNet)
	require.NoError(t, err)
	assert.Equal(t, msg.Command(), decoded.Command())

	got, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func genHash(t *rapid.T) wire.Hash {
	var h wire.Hash
	b := rapid.SliceOfN(rapid.Byte(), wire.HashSize, wire.HashSize).Draw(t, "hash")
	copy(h[:], b)
	return h
}

func genNetAddress(t *rapid.T) wire.NetAddress {
	ip := rapid.SliceOfN(rapid.Byte(), 4, 4).Draw(t, "ip")
	return wire.NetAddress{
		Services: wire.ServiceFlag(rapid.Uint64().Draw(t, "services")),
		IP:       net.IPv4(ip[0], ip[1], ip[2], ip[3]),
		Port:     uint16(rapid.UintRange(0, 65535).Draw(t, "port")),
	}
}

func genInvVect(t *rapid.T) protocol.InvVect {
	kind := protocol.ObjectKind(rapid.SampledFrom([]protocol.ObjectKind{
		protocol.ObjectError, protocol.ObjectTx, protocol.ObjectBlock, protocol.ObjectFilteredBlock,
	}).Draw(t, "kind"))
	return protocol.InvVect{Kind: kind, Hash: genHash(t)}
}

func TestVersionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := protocol.Version{
			ProtocolVersion: rapid.Int32().Draw(t, "pver"),
			Services:        wire.ServiceFlag(rapid.Uint64().Draw(t, "services")),
			Timestamp:       rapid.Int64().Draw(t, "ts"),
			AddrRecv:        genNetAddress(t),
			AddrFrom:        genNetAddress(t),
			Nonce:           rapid.Uint64().Draw(t, "nonce"),
			UserAgent:       wire.VarString(rapid.StringN(0, 32, -1).Draw(t, "ua")),
			StartHeight:     rapid.Int32().Draw(t, "height"),
			Relay:           rapid.Bool().Draw(t, "relay"),
		}
		frameRoundTrip(t, v)
	})
}

func TestVerackRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) { frameRoundTrip(t, protocol.Verack{}) })
}

func TestPingPongRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := protocol.Nonce(rapid.Uint64().Draw(t, "nonce"))
		frameRoundTrip(t, protocol.Ping{Nonce: n})
		frameRoundTrip(t, protocol.Pong{Nonce: n})
	})
}

func TestGetAddrRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) { frameRoundTrip(t, protocol.GetAddr{}) })
}

func TestMemPoolRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) { frameRoundTrip(t, protocol.MemPool{}) })
}

func TestAddrRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		addrs := make([]wire.NetAddress, n)
		for i := range addrs {
			a := genNetAddress(t)
			a.Timestamp = rapid.Uint32().Draw(t, "ts")
			addrs[i] = a
		}
		frameRoundTrip(t, protocol.Addr{Addrs: addrs})
	})
}

func TestInvRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		items := make([]protocol.InvVect, n)
		for i := range items {
			items[i] = genInvVect(t)
		}
		frameRoundTrip(t, protocol.Inv{Items: items})
		frameRoundTrip(t, protocol.GetData{Items: items})
		frameRoundTrip(t, protocol.NotFound{Items: items})
	})
}

func TestLocatorRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		hashes := make([]wire.Hash, n)
		for i := range hashes {
			hashes[i] = genHash(t)
		}
		l := protocol.LocatorHashes{
			ProtocolVersion:    rapid.Int32().Draw(t, "pver"),
			BlockLocatorHashes: hashes,
			HashStop:           genHash(t),
		}
		frameRoundTrip(t, protocol.GetHeaders{LocatorHashes: l})
		frameRoundTrip(t, protocol.GetBlocks{LocatorHashes: l})
	})
}

func TestRejectRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := protocol.Reject{
			Message: protocol.VarStringCommand(rapid.StringN(0, 12, -1).Draw(t, "message")),
			Code:    byte(rapid.UintRange(0, 255).Draw(t, "code")),
			Reason:  wire.VarString(rapid.String().Draw(t, "reason")),
		}
		if rapid.Bool().Draw(t, "hasData") {
			r.Data = genHash(t)
			r.HasData = true
		}
		frameRoundTrip(t, r)
	})
}

func genTx(t *rapid.T) protocol.Tx {
	inCount := rapid.IntRange(0, 3).Draw(t, "inCount")
	ins := make([]protocol.TxIn, inCount)
	for i := range ins {
		ins[i] = protocol.TxIn{
			PreviousOutPoint: protocol.OutPoint{
				Hash:  genHash(t),
				Index: rapid.Uint32().Draw(t, "index"),
			},
			SignatureScript: []byte(rapid.StringN(0, 16, -1).Draw(t, "sigScript")),
			Sequence:        rapid.Uint32().Draw(t, "sequence"),
		}
	}

	outCount := rapid.IntRange(0, 3).Draw(t, "outCount")
	outs := make([]protocol.TxOut, outCount)
	for i := range outs {
		outs[i] = protocol.TxOut{
			Value:    rapid.Int64().Draw(t, "value"),
			PkScript: []byte(rapid.StringN(0, 16, -1).Draw(t, "pkScript")),
		}
	}

	return protocol.Tx{
		Version:  rapid.Int32().Draw(t, "version"),
		TxIn:     ins,
		TxOut:    outs,
		LockTime: rapid.Uint32().Draw(t, "lockTime"),
	}
}

func TestTxRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) { frameRoundTrip(t, genTx(t)) })
}

func genBlockHeader(t *rapid.T) protocol.BlockHeader {
	var nonce [protocol.EquihashNonceSize]byte
	copy(nonce[:], rapid.SliceOfN(rapid.Byte(), protocol.EquihashNonceSize, protocol.EquihashNonceSize).Draw(t, "nonce"))

	return protocol.BlockHeader{
		Version:          rapid.Int32().Draw(t, "version"),
		PrevBlock:        genHash(t),
		MerkleRoot:       genHash(t),
		FinalSaplingRoot: genHash(t),
		Timestamp:        rapid.Uint32().Draw(t, "timestamp"),
		Bits:             rapid.Uint32().Draw(t, "bits"),
		Nonce:            nonce,
		Solution:         []byte(rapid.StringN(0, 64, -1).Draw(t, "solution")),
	}
}

func TestBlockRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		txCount := rapid.IntRange(0, 3).Draw(t, "txCount")
		txs := make([]protocol.Tx, txCount)
		for i := range txs {
			txs[i] = genTx(t)
		}
		frameRoundTrip(t, protocol.Block{Header: genBlockHeader(t), Transactions: txs})
	})
}

func TestHeadersRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(t, "n")
		headers := make([]protocol.BlockHeader, n)
		for i := range headers {
			headers[i] = genBlockHeader(t)
		}
		frameRoundTrip(t, protocol.Headers{Headers: headers})
	})
}
