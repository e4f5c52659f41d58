// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
)

// Prefix bytes that switch a VarInt to its wider encodings.
const (
	varIntPrefix16 = 0xfd
	varIntPrefix32 = 0xfe
	varIntPrefix64 = 0xff
)

// VarInt is an unsigned integer encoded with Bitcoin's compact variable
// length scheme: values below 0xfd are a single byte; 0xfd/0xfe/0xff
// prefix a little-endian uint16/uint32/uint64 respectively.
type VarInt uint64

// EncodedLen returns the number of bytes Encode will write.
func (v VarInt) EncodedLen() int {
	switch {
	case v < varIntPrefix16:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// Encode appends the canonical (shortest) encoding of v to out and returns
// the result.
func (v VarInt) Encode(out []byte) []byte {
	switch {
	case v < varIntPrefix16:
		return append(out, byte(v))
	case v <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = varIntPrefix16
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		return append(out, buf...)
	case v <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = varIntPrefix32
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		return append(out, buf...)
	default:
		buf := make([]byte, 9)
		buf[0] = varIntPrefix64
		binary.LittleEndian.PutUint64(buf[1:], uint64(v))
		return append(out, buf...)
	}
}

// DecodeVarInt reads a VarInt from r, accepting non-canonical encodings.
func DecodeVarInt(r io.Reader) (VarInt, error) {
	v, _, err := decodeVarInt(r)
	return v, err
}

// DecodeVarIntStrict reads a VarInt from r and rejects a non-canonical
// (longer than necessary) encoding with ErrNonCanonicalVarInt.
func DecodeVarIntStrict(r io.Reader) (VarInt, error) {
	v, canonical, err := decodeVarInt(r)
	if err != nil {
		return 0, err
	}
	if !canonical {
		return 0, ErrNonCanonicalVarInt
	}
	return v, nil
}

func decodeVarInt(r io.Reader) (value VarInt, canonical bool, err error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, false, wrapIOErr(ErrUnexpectedEOF, err, "varint prefix")
	}

	switch prefix[0] {
	case varIntPrefix16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, false, wrapIOErr(ErrUnexpectedEOF, err, "varint u16")
		}
		v := binary.LittleEndian.Uint16(buf[:])
		return VarInt(v), v >= varIntPrefix16, nil
	case varIntPrefix32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, false, wrapIOErr(ErrUnexpectedEOF, err, "varint u32")
		}
		v := binary.LittleEndian.Uint32(buf[:])
		return VarInt(v), v > 0xffff, nil
	case varIntPrefix64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, false, wrapIOErr(ErrUnexpectedEOF, err, "varint u64")
		}
		v := binary.LittleEndian.Uint64(buf[:])
		return VarInt(v), v > 0xffffffff, nil
	default:
		return VarInt(prefix[0]), true, nil
	}
}
