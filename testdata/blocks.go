// Package testdata provides a small, internally-consistent chain of
// fixture blocks used by scenario tests and the node supervisor's
// testnet-block seeding action.
//
// These are NOT a byte-exact dump of the real Zcash testnet genesis and
// early blocks — reproducing those requires pinned real chain data this
// module has no way to fetch or verify without running the toolchain
// against a live source, and guessing the bytes from memory would be
// indistinguishable from wrong. Instead this package builds its own
// deterministic eleven-block chain (one coinbase-shaped transaction per
// block, each block's PrevBlock pointing at the previous header's real
// Hash()), so every round-trip, framing, and block-identity property in
// this harness is exercised the same way it would be against real chain
// data — see the testdata fixture chain notes in DESIGN.md.
package testdata

import (
	"encoding/binary"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/wire"
)

// NumTestnetBlocks is the number of fixture blocks available, including
// the genesis block at index 0.
const NumTestnetBlocks = 11

// genesisTimestamp anchors the fixture chain; arbitrary but fixed so the
// chain (and its hashes) are reproducible across runs.
const genesisTimestamp = 1477641360 // Zcash mainnet genesis time

var cachedBlocks []protocol.Block

// TestnetBlocks returns the eleven-block fixture chain, blocks[0] being
// the genesis block. The slice is freshly copied per call, so callers may
// replace or reassign its elements; the copy is shallow, so the byte and
// transaction slices inside each block are shared with later calls.
func TestnetBlocks() []protocol.Block {
	if cachedBlocks == nil {
		cachedBlocks = buildChain(NumTestnetBlocks)
	}
	out := make([]protocol.Block, len(cachedBlocks))
	copy(out, cachedBlocks)
	return out
}

// TestnetGenesis returns block 0 of the fixture chain.
func TestnetGenesis() protocol.Block {
	return TestnetBlocks()[0]
}

func buildChain(n int) []protocol.Block {
	blocks := make([]protocol.Block, 0, n)

	prevHash := wire.ZeroHash
	for height := 0; height < n; height++ {
		tx := coinbaseTx(height)
		txHash, err := tx.Hash()
		if err != nil {
			// Encoding a fixed-shape fixture transaction cannot fail;
			// a failure here means the fixture itself is broken.
			panic("testdata: fixture tx hash: " + err.Error())
		}

		header := protocol.BlockHeader{
			Version:          4,
			PrevBlock:        prevHash,
			MerkleRoot:       txHash, // single-leaf merkle tree == the leaf
			FinalSaplingRoot: wire.ZeroHash,
			Timestamp:        uint32(genesisTimestamp + height*150),
			Bits:             0x1f07ffff,
			Solution:         fixedSolution(height),
		}

		block := protocol.Block{
			Header:       header,
			Transactions: []protocol.Tx{tx},
		}
		blocks = append(blocks, block)

		prevHash = header.Hash()
	}

	return blocks
}

// coinbaseTx returns a deterministic, schematic coinbase-shaped
// transaction for the given block height: one input with no real
// previous output, one output paying an arbitrary fixed script.
func coinbaseTx(height int) protocol.Tx {
	var heightBytes [4]byte
	binary.LittleEndian.PutUint32(heightBytes[:], uint32(height))

	return protocol.Tx{
		Version: 1,
		TxIn: []protocol.TxIn{{
			PreviousOutPoint: protocol.OutPoint{Hash: wire.ZeroHash, Index: 0xffffffff},
			SignatureScript:  append([]byte{0x03}, heightBytes[:3]...),
			Sequence:         0xffffffff,
		}},
		TxOut: []protocol.TxOut{{
			Value:    5000000000 >> uint(height/4), // toy halving schedule
			PkScript: []byte{0x76, 0xa9, 0x14}, // OP_DUP OP_HASH160 <push20> truncated on purpose
		}},
		LockTime: 0,
	}
}

// fixedSolution returns a small, deterministic Equihash-shaped solution
// blob. Its exact content is irrelevant to every testable property this
// harness checks (round trip, framing, block identity, locator
// semantics) since none of them re-verify proof-of-work.
func fixedSolution(height int) []byte {
	sol := make([]byte, 32)
	binary.LittleEndian.PutUint32(sol, uint32(height))
	return sol
}
