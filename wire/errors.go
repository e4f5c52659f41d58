// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the primitives and envelope in this package.
// Callers should use errors.Is against these rather than matching strings.
var (
	// ErrUnexpectedEOF is returned when a decode runs out of bytes before
	// a value is complete.
	ErrUnexpectedEOF = errors.New("wire: unexpected eof")

	// ErrInvalidData is returned when a decode reads well-formed-length
	// bytes that don't represent a valid value (bad magic, bad checksum,
	// unknown command, out-of-range enum, wrong length).
	ErrInvalidData = errors.New("wire: invalid data")

	// ErrNonCanonicalVarInt is returned by DecodeVarIntStrict when a VarInt was
	// encoded with more bytes than its value required.
	ErrNonCanonicalVarInt = errors.New("wire: non-canonical varint")

	// ErrVarStringTooLong is returned when a VarString exceeds a caller
	// imposed bound (e.g. the 256-byte user agent cap).
	ErrVarStringTooLong = errors.New("wire: varstring too long")

	// ErrPayloadTooLarge is returned by ReadHeader when the declared
	// payload length exceeds MaxPayloadLength.
	ErrPayloadTooLarge = errors.New("wire: payload exceeds maximum length")
)

// wrapf annotates a sentinel error with context while keeping it matchable
// via errors.Is.
func wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// wrapIOErr annotates an io error with context while keeping both the
// sentinel AND the underlying io error (e.g. io.EOF, net.ErrClosed)
// matchable via errors.Is — a short read from a connection the peer
// closed should still satisfy errors.Is(err, io.EOF).
func wrapIOErr(sentinel, cause error, context string) error {
	return fmt.Errorf("%s: %w: %w", context, sentinel, cause)
}
