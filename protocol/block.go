package protocol

import (
	"encoding/binary"

	"github.com/zecharness/ziggurat-go/wire"
)

func init() {
	register(wire.CmdBlock, decodeBlock)
	register(wire.CmdHeaders, decodeHeaders)
}

// EquihashNonceSize is the fixed width of a Zcash block header's nonce
// field (the Rust source calls it a 32-byte array, distinct from
// Bitcoin's 4-byte nonce).
const EquihashNonceSize = 32

// BlockHeader is a Zcash block header: a Bitcoin-family header extended
// with the Sapling commitment-tree root and an Equihash proof-of-work
// solution.
type BlockHeader struct {
	Version           int32
	PrevBlock         wire.Hash
	MerkleRoot        wire.Hash
	FinalSaplingRoot  wire.Hash
	Timestamp         uint32
	Bits              uint32
	Nonce             [EquihashNonceSize]byte
	Solution          []byte
}

// Hash returns the block's identity hash: double-SHA-256 of the header
// fields in their fixed wire order (version through solution). This is
// also the hash used as an InvVect for the block.
func (h BlockHeader) Hash() wire.Hash {
	return wire.DoubleSHA256(h.encode())
}

// InvVect returns the InvVect identifying this block in gossip.
func (h BlockHeader) InvVect() InvVect {
	return InvVect{Kind: ObjectBlock, Hash: h.Hash()}
}

func (h BlockHeader) encode() []byte {
	out := make([]byte, 0, 4+32*3+4+4+EquihashNonceSize+4+len(h.Solution))

	var buf4 [4]byte
	binary.LittleEndian.PutUint32(buf4[:], uint32(h.Version))
	out = append(out, buf4[:]...)

	out = wire.EncodeHash(out, h.PrevBlock)
	out = wire.EncodeHash(out, h.MerkleRoot)
	out = wire.EncodeHash(out, h.FinalSaplingRoot)

	binary.LittleEndian.PutUint32(buf4[:], h.Timestamp)
	out = append(out, buf4[:]...)
	binary.LittleEndian.PutUint32(buf4[:], h.Bits)
	out = append(out, buf4[:]...)

	out = append(out, h.Nonce[:]...)

	out = wire.VarInt(len(h.Solution)).Encode(out)
	out = append(out, h.Solution...)

	return out
}

func decodeBlockHeader(r *cursor) (BlockHeader, error) {
	var h BlockHeader

	var buf4 [4]byte
	if err := readFull(r, buf4[:]); err != nil {
		return h, err
	}
	h.Version = int32(binary.LittleEndian.Uint32(buf4[:]))

	prev, err := wire.DecodeHash(r)
	if err != nil {
		return h, err
	}
	h.PrevBlock = prev

	merkle, err := wire.DecodeHash(r)
	if err != nil {
		return h, err
	}
	h.MerkleRoot = merkle

	sapling, err := wire.DecodeHash(r)
	if err != nil {
		return h, err
	}
	h.FinalSaplingRoot = sapling

	if err := readFull(r, buf4[:]); err != nil {
		return h, err
	}
	h.Timestamp = binary.LittleEndian.Uint32(buf4[:])

	if err := readFull(r, buf4[:]); err != nil {
		return h, err
	}
	h.Bits = binary.LittleEndian.Uint32(buf4[:])

	if err := readFull(r, h.Nonce[:]); err != nil {
		return h, err
	}

	solLen, err := wire.DecodeVarInt(r)
	if err != nil {
		return h, err
	}
	solution := make([]byte, solLen)
	if err := readFull(r, solution); err != nil {
		return h, err
	}
	h.Solution = solution

	return h, nil
}

// Block is a full block: header plus its transactions.
type Block struct {
	Header       BlockHeader
	Transactions []Tx
}

// Command implements Message.
func (Block) Command() string { return wire.CmdBlock }

// InvVect returns the InvVect identifying this block in gossip.
func (b Block) InvVect() InvVect { return b.Header.InvVect() }

// Encode implements Message.
func (b Block) Encode() ([]byte, error) {
	out := b.Header.encode()
	out = wire.VarInt(len(b.Transactions)).Encode(out)

	for _, tx := range b.Transactions {
		raw, err := tx.Encode()
		if err != nil {
			return nil, err
		}
		out = append(out, raw...)
	}

	return out, nil
}

func decodeBlock(payload []byte) (Message, error) {
	r := newReader(payload)

	header, err := decodeBlockHeader(r)
	if err != nil {
		return nil, err
	}

	count, err := wire.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}

	txs := make([]Tx, 0, count)
	for i := wire.VarInt(0); i < count; i++ {
		// Transactions aren't individually length-prefixed on the
		// wire; decodeTxFrom consumes exactly its own encoding off
		// the shared cursor.
		tx, err := decodeTxFrom(r)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return Block{Header: header, Transactions: txs}, nil
}

// Headers answers a getheaders request: an ordered list of block
// headers, each followed by a zero transaction count on the wire (no
// node ever sends transactions in a headers response).
type Headers struct {
	Headers []BlockHeader
}

// NewHeaders builds a Headers payload from a list of headers.
func NewHeaders(headers []BlockHeader) Headers { return Headers{Headers: headers} }

// EmptyHeaders returns a Headers with no entries, the canned auto-reply
// a synthetic peer sends for a getheaders it doesn't want to answer for
// real.
func EmptyHeaders() Headers { return Headers{} }

// Command implements Message.
func (Headers) Command() string { return wire.CmdHeaders }

// Encode implements Message.
func (h Headers) Encode() ([]byte, error) {
	out := wire.VarInt(len(h.Headers)).Encode(nil)
	for _, header := range h.Headers {
		out = append(out, header.encode()...)
		out = wire.VarInt(0).Encode(out)
	}
	return out, nil
}

func decodeHeaders(payload []byte) (Message, error) {
	r := newReader(payload)

	count, err := wire.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}

	headers := make([]BlockHeader, 0, count)
	for i := wire.VarInt(0); i < count; i++ {
		header, err := decodeBlockHeader(r)
		if err != nil {
			return nil, err
		}

		txCount, err := wire.DecodeVarInt(r)
		if err != nil {
			return nil, err
		}
		if txCount != 0 {
			return nil, wire.ErrInvalidData
		}

		headers = append(headers, header)
	}

	return Headers{Headers: headers}, nil
}
