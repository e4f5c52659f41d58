// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MaxUserAgentLen is the maximum length in bytes a user agent VarString
// may carry, per spec.
const MaxUserAgentLen = 256

// VarString is a VarInt-prefixed UTF-8 string.
type VarString string

// Encode appends the VarInt length prefix followed by the raw bytes of s.
func (s VarString) Encode(out []byte) []byte {
	out = VarInt(len(s)).Encode(out)
	return append(out, s...)
}

// EncodeUserAgent is Encode, but refuses to emit a string longer than
// MaxUserAgentLen.
func (s VarString) EncodeUserAgent(out []byte) ([]byte, error) {
	if len(s) > MaxUserAgentLen {
		return nil, wrapf(ErrVarStringTooLong, "user agent length %d", len(s))
	}
	return s.Encode(out), nil
}

// DecodeVarString reads a VarInt length followed by that many bytes.
func DecodeVarString(r io.Reader) (VarString, error) {
	return decodeVarStringMax(r, 0)
}

// DecodeUserAgent is DecodeVarString with the MaxUserAgentLen bound
// enforced.
func DecodeUserAgent(r io.Reader) (VarString, error) {
	return decodeVarStringMax(r, MaxUserAgentLen)
}

func decodeVarStringMax(r io.Reader, max int) (VarString, error) {
	n, err := DecodeVarInt(r)
	if err != nil {
		return "", err
	}
	if max > 0 && uint64(n) > uint64(max) {
		return "", wrapf(ErrVarStringTooLong, "varstring length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapIOErr(ErrUnexpectedEOF, err, "varstring body")
	}
	return VarString(buf), nil
}
