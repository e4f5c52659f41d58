package synth

import "github.com/zecharness/ziggurat-go/protocol"

// ValidateHomogeneousKind wraps protocol.HasSingleKind as an error
// return, the "single kind per inventory message" invariant a
// conformance test asserts against. It returns ErrMixedInventoryKind
// rather than failing to decode, since a mixed-kind message is a
// protocol-violation signal, not a malformed one.
func ValidateHomogeneousKind(items []protocol.InvVect) error {
	if !protocol.HasSingleKind(items) {
		return ErrMixedInventoryKind
	}
	return nil
}
