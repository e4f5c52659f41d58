package protocol

import (
	"encoding/binary"

	"github.com/zecharness/ziggurat-go/wire"
)

func init() {
	register(wire.CmdGetHeaders, decodeGetHeaders)
	register(wire.CmdGetBlocks, decodeGetBlocks)
}

// LocatorHashes is the shared shape of getheaders and getblocks: a
// protocol version, an ordered caller-to-genesis list of block hashes,
// and a stop hash (the zero hash means "unlimited").
type LocatorHashes struct {
	ProtocolVersion    int32
	BlockLocatorHashes []wire.Hash
	HashStop           wire.Hash
}

func (l LocatorHashes) encode() []byte {
	var buf4 [4]byte
	binary.LittleEndian.PutUint32(buf4[:], uint32(l.ProtocolVersion))
	out := append([]byte{}, buf4[:]...)

	out = wire.VarInt(len(l.BlockLocatorHashes)).Encode(out)
	for _, h := range l.BlockLocatorHashes {
		out = wire.EncodeHash(out, h)
	}

	return wire.EncodeHash(out, l.HashStop)
}

func decodeLocatorHashes(payload []byte) (LocatorHashes, error) {
	r := newReader(payload)

	var buf4 [4]byte
	if err := readFull(r, buf4[:]); err != nil {
		return LocatorHashes{}, err
	}
	l := LocatorHashes{ProtocolVersion: int32(binary.LittleEndian.Uint32(buf4[:]))}

	count, err := wire.DecodeVarInt(r)
	if err != nil {
		return LocatorHashes{}, err
	}

	hashes := make([]wire.Hash, 0, count)
	for i := wire.VarInt(0); i < count; i++ {
		h, err := wire.DecodeHash(r)
		if err != nil {
			return LocatorHashes{}, err
		}
		hashes = append(hashes, h)
	}
	l.BlockLocatorHashes = hashes

	stop, err := wire.DecodeHash(r)
	if err != nil {
		return LocatorHashes{}, err
	}
	l.HashStop = stop

	return l, nil
}

// GetHeaders requests block headers starting after the locator.
type GetHeaders struct{ LocatorHashes }

// Command implements Message.
func (GetHeaders) Command() string { return wire.CmdGetHeaders }

// Encode implements Message.
func (g GetHeaders) Encode() ([]byte, error) { return g.LocatorHashes.encode(), nil }

func decodeGetHeaders(payload []byte) (Message, error) {
	l, err := decodeLocatorHashes(payload)
	if err != nil {
		return nil, err
	}
	return GetHeaders{LocatorHashes: l}, nil
}

// GetBlocks requests full blocks starting after the locator.
type GetBlocks struct{ LocatorHashes }

// Command implements Message.
func (GetBlocks) Command() string { return wire.CmdGetBlocks }

// Encode implements Message.
func (g GetBlocks) Encode() ([]byte, error) { return g.LocatorHashes.encode(), nil }

func decodeGetBlocks(payload []byte) (Message, error) {
	l, err := decodeLocatorHashes(payload)
	if err != nil {
		return nil, err
	}
	return GetBlocks{LocatorHashes: l}, nil
}
