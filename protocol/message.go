// Package protocol implements the typed payload for every message this
// harness speaks, plus the frame read/write pair that sits on top of the
// wire package's envelope primitives.
package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/zecharness/ziggurat-go/wire"
)

// Message is implemented by every payload type. Command returns the
// 12-byte-or-shorter ASCII command string used in the message header.
type Message interface {
	Command() string
	Encode() ([]byte, error)
}

// decoder turns a raw payload into a Message.
type decoder func(payload []byte) (Message, error)

// registry maps command strings to their decoder. Populated by each
// payload file's init().
var registry = map[string]decoder{}

func register(command string, fn decoder) {
	registry[command] = fn
}

// ReadMessage reads one framed message from r, validating magic, length,
// and checksum, then dispatches to the command's decoder.
func ReadMessage(r io.Reader, net wire.BitcoinNet) (Message, error) {
	header, err := wire.ReadHeader(r, net)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, header.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("protocol: payload: %w: %w", wire.ErrUnexpectedEOF, err)
	}

	if got := wire.Checksum(payload); got != header.Checksum {
		return nil, wire.ErrInvalidData
	}

	fn, ok := registry[header.Command]
	if !ok {
		return nil, wire.ErrInvalidData
	}
	return fn(payload)
}

// WriteMessage serializes msg, frames it with the matching header, and
// writes both to w.
func WriteMessage(w io.Writer, net wire.BitcoinNet, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}

	header := wire.Header{
		Magic:    net,
		Command:  msg.Command(),
		Length:   uint32(len(payload)),
		Checksum: wire.Checksum(payload),
	}

	if err := wire.WriteHeader(w, header); err != nil {
		return err
	}

	_, err = w.Write(payload)
	return err
}

// cursor is the shared read position type every payload decoder advances;
// aliased so payload files that need to hand a position between
// sub-decoders (e.g. a block handing off to its transactions) don't need
// to import bytes directly.
type cursor = bytes.Reader

// newReader is a small helper so payload decoders all read from the same
// kind of cursor.
func newReader(payload []byte) *cursor {
	return bytes.NewReader(payload)
}

// readFull reads exactly len(buf) bytes from r, translating a short read
// into wire.ErrUnexpectedEOF.
func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("protocol: %w: %w", wire.ErrUnexpectedEOF, err)
	}
	return nil
}
