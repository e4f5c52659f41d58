package protocol

import (
	"encoding/binary"

	"github.com/zecharness/ziggurat-go/wire"
)

func init() {
	register(wire.CmdTx, decodeTx)
}

// OutPoint identifies a single previous output being spent.
type OutPoint struct {
	Hash  wire.Hash
	Index uint32
}

// TxIn is a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut is a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is a transparent (non-shielded) transaction: this harness verifies
// gossip and handshake behavior, not consensus, so it only models the
// transparent fields needed to compute a tx's identity hash and round
// trip it byte-for-byte. A transaction carrying a Sprout/Sapling/Orchard
// shielded bundle decodes its transparent part fine but Encode will not
// reproduce trailing shielded fields — out of scope per spec Non-goals
// (no consensus, no shielded-pool support).
type Tx struct {
	Version  int32
	TxIn     []TxIn
	TxOut    []TxOut
	LockTime uint32
}

// Command implements Message.
func (Tx) Command() string { return wire.CmdTx }

// Hash returns the transaction's identity hash: double-SHA-256 of its
// encoded bytes.
func (t Tx) Hash() (wire.Hash, error) {
	raw, err := t.Encode()
	if err != nil {
		return wire.Hash{}, err
	}
	return wire.DoubleSHA256(raw), nil
}

// InvVect returns the InvVect identifying this transaction in gossip.
func (t Tx) InvVect() (InvVect, error) {
	h, err := t.Hash()
	if err != nil {
		return InvVect{}, err
	}
	return InvVect{Kind: ObjectTx, Hash: h}, nil
}

// Encode implements Message.
func (t Tx) Encode() ([]byte, error) {
	out := make([]byte, 0, 4+1+1+4)

	var buf4 [4]byte
	binary.LittleEndian.PutUint32(buf4[:], uint32(t.Version))
	out = append(out, buf4[:]...)

	out = wire.VarInt(len(t.TxIn)).Encode(out)
	for _, in := range t.TxIn {
		out = wire.EncodeHash(out, in.PreviousOutPoint.Hash)
		binary.LittleEndian.PutUint32(buf4[:], in.PreviousOutPoint.Index)
		out = append(out, buf4[:]...)

		out = wire.VarInt(len(in.SignatureScript)).Encode(out)
		out = append(out, in.SignatureScript...)

		binary.LittleEndian.PutUint32(buf4[:], in.Sequence)
		out = append(out, buf4[:]...)
	}

	out = wire.VarInt(len(t.TxOut)).Encode(out)
	for _, txOut := range t.TxOut {
		var buf8 [8]byte
		binary.LittleEndian.PutUint64(buf8[:], uint64(txOut.Value))
		out = append(out, buf8[:]...)

		out = wire.VarInt(len(txOut.PkScript)).Encode(out)
		out = append(out, txOut.PkScript...)
	}

	binary.LittleEndian.PutUint32(buf4[:], t.LockTime)
	out = append(out, buf4[:]...)

	return out, nil
}

func decodeTx(payload []byte) (Message, error) {
	r := newReader(payload)
	t, err := decodeTxFrom(r)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// decodeTxFrom decodes a Tx starting at r's current position, consuming
// exactly its own encoding. Used both for standalone tx messages and for
// each transaction embedded in a block, which has no per-tx length
// prefix on the wire.
func decodeTxFrom(r *cursor) (Tx, error) {
	t := Tx{}

	var buf4 [4]byte
	if err := readFull(r, buf4[:]); err != nil {
		return Tx{}, err
	}
	t.Version = int32(binary.LittleEndian.Uint32(buf4[:]))

	inCount, err := wire.DecodeVarInt(r)
	if err != nil {
		return Tx{}, err
	}
	t.TxIn = make([]TxIn, 0, inCount)
	for i := wire.VarInt(0); i < inCount; i++ {
		hash, err := wire.DecodeHash(r)
		if err != nil {
			return Tx{}, err
		}
		if err := readFull(r, buf4[:]); err != nil {
			return Tx{}, err
		}
		index := binary.LittleEndian.Uint32(buf4[:])

		scriptLen, err := wire.DecodeVarInt(r)
		if err != nil {
			return Tx{}, err
		}
		script := make([]byte, scriptLen)
		if err := readFull(r, script); err != nil {
			return Tx{}, err
		}

		if err := readFull(r, buf4[:]); err != nil {
			return Tx{}, err
		}
		sequence := binary.LittleEndian.Uint32(buf4[:])

		t.TxIn = append(t.TxIn, TxIn{
			PreviousOutPoint: OutPoint{Hash: hash, Index: index},
			SignatureScript:  script,
			Sequence:         sequence,
		})
	}

	outCount, err := wire.DecodeVarInt(r)
	if err != nil {
		return Tx{}, err
	}
	t.TxOut = make([]TxOut, 0, outCount)
	for i := wire.VarInt(0); i < outCount; i++ {
		var buf8 [8]byte
		if err := readFull(r, buf8[:]); err != nil {
			return Tx{}, err
		}
		value := int64(binary.LittleEndian.Uint64(buf8[:]))

		scriptLen, err := wire.DecodeVarInt(r)
		if err != nil {
			return Tx{}, err
		}
		script := make([]byte, scriptLen)
		if err := readFull(r, script); err != nil {
			return Tx{}, err
		}

		t.TxOut = append(t.TxOut, TxOut{Value: value, PkScript: script})
	}

	if err := readFull(r, buf4[:]); err != nil {
		return Tx{}, err
	}
	t.LockTime = binary.LittleEndian.Uint32(buf4[:])

	return t, nil
}
