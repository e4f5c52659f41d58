// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"strings"
)

// HeaderSize is the fixed size in bytes of a message header: 4-byte
// magic, 12-byte command, 4-byte length, 4-byte checksum.
const HeaderSize = 24

// MaxPayloadLength bounds the memory a single message body may consume.
const MaxPayloadLength = 32 * 1024 * 1024 // 32 MiB

// commandFieldSize is the fixed width of the null-padded ASCII command.
const commandFieldSize = 12

// Header is the 24-byte envelope preceding every message payload.
type Header struct {
	Magic    BitcoinNet
	Command  string
	Length   uint32
	Checksum [4]byte
}

// Checksum returns the first 4 bytes of the double-SHA-256 of payload,
// the value a Header's Checksum field must carry.
func Checksum(payload []byte) [4]byte {
	sum := DoubleSHA256(payload)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

// WriteHeader serializes h to w.
func WriteHeader(w io.Writer, h Header) error {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Magic))

	if len(h.Command) > commandFieldSize {
		return wrapf(ErrInvalidData, "command %q exceeds %d bytes", h.Command, commandFieldSize)
	}
	copy(buf[4:16], h.Command)

	binary.LittleEndian.PutUint32(buf[16:20], h.Length)
	copy(buf[20:24], h.Checksum[:])

	_, err := w.Write(buf[:])
	return err
}

// ReadHeader deserializes a Header from r, validating the magic against
// want and enforcing MaxPayloadLength.
func ReadHeader(r io.Reader, want BitcoinNet) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, wrapIOErr(ErrUnexpectedEOF, err, "header")
	}

	magic := BitcoinNet(binary.LittleEndian.Uint32(buf[0:4]))
	if magic != want {
		return Header{}, wrapf(ErrInvalidData, "magic %s != expected %s", magic, want)
	}

	command := strings.TrimRight(string(buf[4:16]), "\x00")
	length := binary.LittleEndian.Uint32(buf[16:20])
	if length > MaxPayloadLength {
		return Header{}, wrapf(ErrPayloadTooLarge, "length %d", length)
	}

	var checksum [4]byte
	copy(checksum[:], buf[20:24])

	return Header{
		Magic:    magic,
		Command:  command,
		Length:   length,
		Checksum: checksum,
	}, nil
}
