// This file exports internal functions for use in tests. It is
// compiled only when running tests.

package protocol

// TstBlockHeaderBytes exposes BlockHeader.encode for tests that need the
// exact bytes a header's identity hash is computed over, independent of
// BlockHeader.Hash itself.
func TstBlockHeaderBytes(h BlockHeader) []byte {
	return h.encode()
}
