package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	"github.com/zecharness/ziggurat-go/wire"
)

func init() {
	register(wire.CmdVersion, decodeVersion)
	register(wire.CmdVerack, decodeVerack)
}

// Version is the first message either side of a connection sends.
// NetAddress fields inside a Version never carry a timestamp (see
// wire.NetAddress doc comment).
type Version struct {
	ProtocolVersion int32
	Services        wire.ServiceFlag
	Timestamp       int64
	AddrRecv        wire.NetAddress
	AddrFrom        wire.NetAddress
	Nonce           uint64
	UserAgent       wire.VarString
	StartHeight     int32
	Relay           bool
}

// Command implements Message.
func (Version) Command() string { return wire.CmdVersion }

// NewVersionNonce returns a cryptographically random nonce suitable for a
// new outbound Version, used both to fill Version.Nonce and to detect
// self-connections.
func NewVersionNonce() uint64 { return randomNonce64() }

// randomNonce64 is the single source of nonce randomness shared by
// Version.Nonce and the Ping/Pong Nonce type.
func randomNonce64() uint64 {
	max := new(big.Int).SetUint64(^uint64(0))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand failing is catastrophic for the whole process;
		// a zero nonce would silently defeat the self-connect guard.
		panic("protocol: crypto/rand unavailable: " + err.Error())
	}
	return n.Uint64()
}

// Encode implements Message.
func (v Version) Encode() ([]byte, error) {
	out := make([]byte, 0, 4+8+8+26+26+8+1+len(v.UserAgent)+4+1)

	var buf4 [4]byte
	binary.LittleEndian.PutUint32(buf4[:], uint32(v.ProtocolVersion))
	out = append(out, buf4[:]...)

	var buf8 [8]byte
	binary.LittleEndian.PutUint64(buf8[:], uint64(v.Services))
	out = append(out, buf8[:]...)

	binary.LittleEndian.PutUint64(buf8[:], uint64(v.Timestamp))
	out = append(out, buf8[:]...)

	out = v.AddrRecv.EncodeForVersion(out)
	out = v.AddrFrom.EncodeForVersion(out)

	binary.LittleEndian.PutUint64(buf8[:], v.Nonce)
	out = append(out, buf8[:]...)

	ua, err := v.UserAgent.EncodeUserAgent(out)
	if err != nil {
		return nil, err
	}
	out = ua

	binary.LittleEndian.PutUint32(buf4[:], uint32(v.StartHeight))
	out = append(out, buf4[:]...)

	relay := byte(0)
	if v.Relay {
		relay = 1
	}
	out = append(out, relay)

	return out, nil
}

func decodeVersion(payload []byte) (Message, error) {
	r := newReader(payload)
	v := Version{}

	var buf4 [4]byte
	if err := readFull(r, buf4[:]); err != nil {
		return nil, err
	}
	v.ProtocolVersion = int32(binary.LittleEndian.Uint32(buf4[:]))

	var buf8 [8]byte
	if err := readFull(r, buf8[:]); err != nil {
		return nil, err
	}
	v.Services = wire.ServiceFlag(binary.LittleEndian.Uint64(buf8[:]))

	if err := readFull(r, buf8[:]); err != nil {
		return nil, err
	}
	v.Timestamp = int64(binary.LittleEndian.Uint64(buf8[:]))

	addrRecv, err := wire.DecodeNetAddress(r, false)
	if err != nil {
		return nil, err
	}
	v.AddrRecv = addrRecv

	addrFrom, err := wire.DecodeNetAddress(r, false)
	if err != nil {
		return nil, err
	}
	v.AddrFrom = addrFrom

	if err := readFull(r, buf8[:]); err != nil {
		return nil, err
	}
	v.Nonce = binary.LittleEndian.Uint64(buf8[:])

	ua, err := wire.DecodeUserAgent(r)
	if err != nil {
		return nil, err
	}
	v.UserAgent = ua

	if err := readFull(r, buf4[:]); err != nil {
		return nil, err
	}
	v.StartHeight = int32(binary.LittleEndian.Uint32(buf4[:]))

	relay := [1]byte{1}
	if r.Len() > 0 {
		if err := readFull(r, relay[:]); err != nil {
			return nil, err
		}
	}
	v.Relay = relay[0] != 0

	return v, nil
}

// Verack is the handshake acknowledgement; it carries no payload.
type Verack struct{}

// Command implements Message.
func (Verack) Command() string { return wire.CmdVerack }

// Encode implements Message.
func (Verack) Encode() ([]byte, error) { return nil, nil }

func decodeVerack(payload []byte) (Message, error) {
	if len(payload) != 0 {
		return nil, wire.ErrInvalidData
	}
	return Verack{}, nil
}
