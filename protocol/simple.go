package protocol

import "github.com/zecharness/ziggurat-go/wire"

func init() {
	register(wire.CmdMemPool, decodeMemPool)
	register(wire.CmdReject, decodeReject)
}

// MemPool requests a peer's transaction mempool contents via a
// subsequent Inv. It has no payload.
type MemPool struct{}

// Command implements Message.
func (MemPool) Command() string { return wire.CmdMemPool }

// Encode implements Message.
func (MemPool) Encode() ([]byte, error) { return nil, nil }

func decodeMemPool(payload []byte) (Message, error) {
	if len(payload) != 0 {
		return nil, wire.ErrInvalidData
	}
	return MemPool{}, nil
}

// Reject explains why a peer refused a prior message.
type Reject struct {
	Message VarStringCommand
	Code    byte
	Reason  wire.VarString
	Data    wire.Hash
	HasData bool
}

// VarStringCommand is the command name a Reject refers to.
type VarStringCommand = wire.VarString

// Encode implements Message.
func (r Reject) Encode() ([]byte, error) {
	out := r.Message.Encode(nil)
	out = append(out, r.Code)
	out = r.Reason.Encode(out)
	if r.HasData {
		out = wire.EncodeHash(out, r.Data)
	}
	return out, nil
}

// Command implements Message.
func (Reject) Command() string { return wire.CmdReject }

func decodeReject(payload []byte) (Message, error) {
	r := newReader(payload)

	message, err := wire.DecodeVarString(r)
	if err != nil {
		return nil, err
	}

	var codeBuf [1]byte
	if err := readFull(r, codeBuf[:]); err != nil {
		return nil, err
	}

	reason, err := wire.DecodeVarString(r)
	if err != nil {
		return nil, err
	}

	rej := Reject{Message: message, Code: codeBuf[0], Reason: reason}
	if r.Len() >= wire.HashSize {
		hash, err := wire.DecodeHash(r)
		if err != nil {
			return nil, err
		}
		rej.Data = hash
		rej.HasData = true
	}

	return rej, nil
}
