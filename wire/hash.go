// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HashSize is the number of bytes in a Hash.
const HashSize = chainhash.HashSize

// Hash is a 32-byte double-SHA-256 digest. Equality is byte-wise,
// matching chainhash.Hash's own array semantics.
type Hash = chainhash.Hash

// ZeroHash is the all-zero sentinel "stop" value used by LocatorHashes.
var ZeroHash Hash

// DoubleSHA256 returns the double-SHA-256 digest of b.
func DoubleSHA256(b []byte) Hash {
	return chainhash.DoubleHashH(b)
}

// EncodeHash appends the 32 raw bytes of h to out.
func EncodeHash(out []byte, h Hash) []byte {
	return append(out, h[:]...)
}

// DecodeHash reads exactly HashSize bytes from r into a Hash.
func DecodeHash(r io.Reader) (Hash, error) {
	var h Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, wrapIOErr(ErrUnexpectedEOF, err, "hash")
	}
	return h, nil
}
