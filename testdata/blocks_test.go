package testdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/testdata"
	"github.com/zecharness/ziggurat-go/wire"
)

// TestFixtureChainIsSelfConsistent checks the block-identity property
// this harness can actually verify without a pinned real chain dump: the
// fixture chain's own bookkeeping. Every block's advertised hash must be
// the double-SHA-256 of its header bytes, and must match the PrevBlock
// the next block in the chain points back at.
func TestFixtureChainIsSelfConsistent(t *testing.T) {
	blocks := testdata.TestnetBlocks()
	require.Len(t, blocks, testdata.NumTestnetBlocks)

	prev := wire.ZeroHash
	for i, b := range blocks {
		// A one-header Headers payload is a 1-byte count, the header
		// bytes, and a 1-byte zero transaction count.
		payload, err := protocol.NewHeaders([]protocol.BlockHeader{b.Header}).Encode()
		require.NoError(t, err)
		raw := payload[1 : len(payload)-1]

		assert.Equal(t, wire.DoubleSHA256(raw), b.Header.Hash(), "block %d hash mismatch", i)
		assert.Equal(t, prev, b.Header.PrevBlock, "block %d prev-hash mismatch", i)
		prev = b.Header.Hash()
	}
}

// TestFixtureChainIsDeterministic checks that building the chain twice
// yields byte-identical blocks, the property the node supervisor's
// testnet seeding relies on.
func TestFixtureChainIsDeterministic(t *testing.T) {
	a := testdata.TestnetBlocks()
	b := testdata.TestnetBlocks()
	require.Equal(t, len(a), len(b))

	for i := range a {
		wantRaw, err := a[i].Encode()
		require.NoError(t, err)
		gotRaw, err := b[i].Encode()
		require.NoError(t, err)
		assert.Equal(t, wantRaw, gotRaw, "block %d differs between builds", i)
	}
}
