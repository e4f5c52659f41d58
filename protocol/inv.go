package protocol

import (
	"encoding/binary"

	"github.com/zecharness/ziggurat-go/wire"
)

func init() {
	register(wire.CmdInv, decodeInv)
	register(wire.CmdGetData, decodeGetData)
	register(wire.CmdNotFound, decodeNotFound)
}

// ObjectKind identifies what an InvVect's hash refers to.
type ObjectKind uint32

// Object kinds understood by this harness. Anything outside this range
// decodes to an error rather than panicking — the one unreachable! in
// the reference implementation this was ported from.
const (
	ObjectError         ObjectKind = 0
	ObjectTx            ObjectKind = 1
	ObjectBlock         ObjectKind = 2
	ObjectFilteredBlock ObjectKind = 3
)

func (k ObjectKind) encode(out []byte) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(k))
	return append(out, buf[:]...)
}

// InvVect identifies a single inventory item: an object kind plus the
// hash that is the tx's or block's identity.
type InvVect struct {
	Kind ObjectKind
	Hash wire.Hash
}

func (v InvVect) encode(out []byte) []byte {
	out = v.Kind.encode(out)
	return wire.EncodeHash(out, v.Hash)
}

// invList is the VarInt-count + InvVect-list shape shared by Inv,
// GetData, and NotFound.
type invList struct {
	Items []InvVect
}

func (l invList) encode() ([]byte, error) {
	out := wire.VarInt(len(l.Items)).Encode(nil)
	for _, item := range l.Items {
		out = item.encode(out)
	}
	return out, nil
}

func decodeInvList(payload []byte) (invList, error) {
	r := newReader(payload)
	count, err := wire.DecodeVarInt(r)
	if err != nil {
		return invList{}, err
	}

	items := make([]InvVect, 0, count)
	for i := wire.VarInt(0); i < count; i++ {
		var kindBuf [4]byte
		if err := readFull(r, kindBuf[:]); err != nil {
			return invList{}, err
		}
		kind := binary.LittleEndian.Uint32(kindBuf[:])
		switch ObjectKind(kind) {
		case ObjectError, ObjectTx, ObjectBlock, ObjectFilteredBlock:
		default:
			return invList{}, wire.ErrInvalidData
		}

		hash, err := wire.DecodeHash(r)
		if err != nil {
			return invList{}, err
		}

		items = append(items, InvVect{Kind: ObjectKind(kind), Hash: hash})
	}

	return invList{Items: items}, nil
}

// HasSingleKind reports whether every item shares the same ObjectKind.
// A single Inv/GetData payload SHOULD contain only one kind; a mixed
// payload is a protocol-violation signal a conformance test can assert
// against, not a decode failure (it still decodes cleanly).
func HasSingleKind(items []InvVect) bool {
	if len(items) == 0 {
		return true
	}
	kind := items[0].Kind
	for _, item := range items[1:] {
		if item.Kind != kind {
			return false
		}
	}
	return true
}

// Inv announces objects the sender has available.
type Inv struct{ Items []InvVect }

// NewInv builds an Inv from a list of inventory items.
func NewInv(items []InvVect) Inv { return Inv{Items: items} }

// Command implements Message.
func (Inv) Command() string { return wire.CmdInv }

// Encode implements Message.
func (m Inv) Encode() ([]byte, error) { return invList{Items: m.Items}.encode() }

func decodeInv(payload []byte) (Message, error) {
	l, err := decodeInvList(payload)
	if err != nil {
		return nil, err
	}
	return Inv{Items: l.Items}, nil
}

// GetData requests the full objects named by its inventory.
type GetData struct{ Items []InvVect }

// NewGetData builds a GetData from a list of inventory items.
func NewGetData(items []InvVect) GetData { return GetData{Items: items} }

// Command implements Message.
func (GetData) Command() string { return wire.CmdGetData }

// Encode implements Message.
func (m GetData) Encode() ([]byte, error) { return invList{Items: m.Items}.encode() }

func decodeGetData(payload []byte) (Message, error) {
	l, err := decodeInvList(payload)
	if err != nil {
		return nil, err
	}
	return GetData{Items: l.Items}, nil
}

// NotFound answers a GetData for objects the sender doesn't have.
type NotFound struct{ Items []InvVect }

// Command implements Message.
func (NotFound) Command() string { return wire.CmdNotFound }

// Encode implements Message.
func (m NotFound) Encode() ([]byte, error) { return invList{Items: m.Items}.encode() }

func decodeNotFound(payload []byte) (Message, error) {
	l, err := decodeInvList(payload)
	if err != nil {
		return nil, err
	}
	return NotFound{Items: l.Items}, nil
}
