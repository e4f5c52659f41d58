package protocol

import "github.com/zecharness/ziggurat-go/wire"

func init() {
	register(wire.CmdAddr, decodeAddr)
	register(wire.CmdGetAddr, decodeGetAddr)
}

// Addr is a list of gossiped network addresses. Every entry carries a
// timestamp, unlike the addresses embedded in a Version.
type Addr struct {
	Addrs []wire.NetAddress
}

// EmptyAddr returns an Addr with no entries, the canned auto-reply a
// synthetic peer sends for a getaddr it doesn't want to answer for real.
func EmptyAddr() Addr { return Addr{} }

// Command implements Message.
func (Addr) Command() string { return wire.CmdAddr }

// Encode implements Message.
func (a Addr) Encode() ([]byte, error) {
	out := wire.VarInt(len(a.Addrs)).Encode(nil)
	for _, addr := range a.Addrs {
		out = addr.EncodeForAddr(out)
	}
	return out, nil
}

func decodeAddr(payload []byte) (Message, error) {
	r := newReader(payload)
	count, err := wire.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}

	addrs := make([]wire.NetAddress, 0, count)
	for i := wire.VarInt(0); i < count; i++ {
		addr, err := wire.DecodeNetAddress(r, true)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}

	return Addr{Addrs: addrs}, nil
}

// GetAddr requests that the peer send back its known addresses. It has
// no payload.
type GetAddr struct{}

// Command implements Message.
func (GetAddr) Command() string { return wire.CmdGetAddr }

// Encode implements Message.
func (GetAddr) Encode() ([]byte, error) { return nil, nil }

func decodeGetAddr(payload []byte) (Message, error) {
	if len(payload) != 0 {
		return nil, wire.ErrInvalidData
	}
	return GetAddr{}, nil
}
