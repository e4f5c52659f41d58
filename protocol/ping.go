package protocol

import (
	"encoding/binary"

	"github.com/zecharness/ziggurat-go/wire"
)

func init() {
	register(wire.CmdPing, decodePing)
	register(wire.CmdPong, decodePong)
}

// Nonce is the 8-byte value a Ping carries and its matching Pong echoes.
type Nonce uint64

func (n Nonce) encode() []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	return buf[:]
}

func decodeNonce(payload []byte) (Nonce, error) {
	if len(payload) != 8 {
		return 0, wire.ErrInvalidData
	}
	return Nonce(binary.LittleEndian.Uint64(payload)), nil
}

// RandomNonce returns a cryptographically random Ping/Pong nonce.
func RandomNonce() Nonce { return Nonce(randomNonce64()) }

// Ping is sent to elicit a matching Pong and confirm liveness/drain.
type Ping struct{ Nonce Nonce }

// Command implements Message.
func (Ping) Command() string { return wire.CmdPing }

// Encode implements Message.
func (p Ping) Encode() ([]byte, error) { return p.Nonce.encode(), nil }

func decodePing(payload []byte) (Message, error) {
	n, err := decodeNonce(payload)
	if err != nil {
		return nil, err
	}
	return Ping{Nonce: n}, nil
}

// Pong echoes the nonce from the Ping it answers.
type Pong struct{ Nonce Nonce }

// Command implements Message.
func (Pong) Command() string { return wire.CmdPong }

// Encode implements Message.
func (p Pong) Encode() ([]byte, error) { return p.Nonce.encode(), nil }

func decodePong(payload []byte) (Message, error) {
	n, err := decodeNonce(payload)
	if err != nil {
		return nil, err
	}
	return Pong{Nonce: n}, nil
}
