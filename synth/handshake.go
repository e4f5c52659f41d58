package synth

import "fmt"

// handshakeState models one connection's position in the version/verack
// exchange, per spec.md's state table. Each connection owns exactly one
// of these, mutated only under that connection's own mutex — there is no
// global handshake lock.
type handshakeState uint8

const (
	// stateInit is the state immediately after a connection is
	// accepted or dialed, before any Version has been sent or received.
	stateInit handshakeState = iota
	// stateVersionSent is reached after we have sent our Version but
	// have not yet received the peer's.
	stateVersionSent
	// stateVersionReceived is reached after we have received the
	// peer's Version but have not yet sent our own (inbound side only;
	// an outbound dialer sends Version first and so never passes
	// through this state before stateVersionSent).
	stateVersionReceived
	// stateEstablished is reached once both sides have exchanged
	// Version and Verack. All non-handshake traffic is only valid here.
	stateEstablished
	// stateClosed is terminal: the connection is gone or was rejected
	// (e.g. a self-connect nonce match).
	stateClosed
)

func (s handshakeState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateVersionSent:
		return "version-sent"
	case stateVersionReceived:
		return "version-received"
	case stateEstablished:
		return "established"
	case stateClosed:
		return "closed"
	default:
		return fmt.Sprintf("handshakeState(%d)", uint8(s))
	}
}

// transition validates and applies a state change, returning an error
// if next is not reachable from the connection's current state. Callers
// hold the connection's mutex across the read-modify-write.
func (c *connection) transition(next handshakeState) error {
	cur := c.state
	ok := false
	switch cur {
	case stateInit:
		ok = next == stateVersionSent || next == stateVersionReceived || next == stateClosed
	case stateVersionSent:
		ok = next == stateEstablished || next == stateClosed
	case stateVersionReceived:
		ok = next == stateEstablished || next == stateClosed
	case stateEstablished:
		ok = next == stateClosed
	case stateClosed:
		ok = next == stateClosed
	}
	if !ok {
		return fmt.Errorf("synth: invalid handshake transition %s -> %s", cur, next)
	}
	c.state = next
	return nil
}
