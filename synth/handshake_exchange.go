package synth

import (
	"fmt"
	"time"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/wire"
)

// newSelfConnectNonce mints a fresh outbound Version nonce and records it
// Node-wide: a self-dial hands the two sides of the handshake to two
// distinct connection objects (one from Connect, one from acceptLoop's
// Accept), so the nonce has to be tracked per-Node rather than
// per-connection for checkSelfConnect to ever see a match. Callers
// forget the nonce once their handshake attempt finishes, so the set
// holds nonces for handshakes still in flight, plus any nonce
// respondHandshake kept after detecting a self-connect.
func (n *Node) newSelfConnectNonce() uint64 {
	nonce := protocol.NewVersionNonce()

	n.nonceMu.Lock()
	n.sentNonces[nonce] = struct{}{}
	n.nonceMu.Unlock()

	return nonce
}

func (n *Node) forgetSentNonce(nonce uint64) {
	n.nonceMu.Lock()
	delete(n.sentNonces, nonce)
	n.nonceMu.Unlock()
}

func (n *Node) hasSentNonce(nonce uint64) bool {
	n.nonceMu.Lock()
	defer n.nonceMu.Unlock()
	_, ok := n.sentNonces[nonce]
	return ok
}

// ourVersion builds the Version payload a Node sends, carrying the given
// self-connect nonce.
func (n *Node) ourVersion(nonce uint64) protocol.Version {
	return protocol.Version{
		ProtocolVersion: n.protocolVersion,
		Services:        n.services,
		Timestamp:       time.Now().Unix(),
		AddrRecv:        wire.NetAddress{Services: n.services},
		AddrFrom:        wire.NetAddress{Services: n.services},
		Nonce:           nonce,
		UserAgent:       n.userAgent,
		StartHeight:     n.startHeight,
		Relay:           true,
	}
}

// initiateHandshake drives the outbound side: send Version, expect
// Version (rejecting a matching nonce as a self-connection), send our
// Verack, expect Verack.
func (n *Node) initiateHandshake(c *connection) error {
	if err := c.transitionLocked(stateVersionSent); err != nil {
		return err
	}

	nonce := n.newSelfConnectNonce()
	defer n.forgetSentNonce(nonce)

	if err := c.write(n.magic, n.ourVersion(nonce)); err != nil {
		return err
	}

	msg, err := protocol.ReadMessage(c.conn, n.magic)
	if err != nil {
		return fmt.Errorf("synth: awaiting peer version: %w", err)
	}
	peerVersion, ok := msg.(protocol.Version)
	if !ok {
		return fmt.Errorf("synth: expected version, got %s", msg.Command())
	}
	if err := n.checkSelfConnect(c, peerVersion); err != nil {
		return err
	}

	c.mu.Lock()
	c.peerVer = peerVersion
	c.mu.Unlock()

	if err := c.write(n.magic, protocol.Verack{}); err != nil {
		return err
	}

	msg, err = protocol.ReadMessage(c.conn, n.magic)
	if err != nil {
		return fmt.Errorf("synth: awaiting peer verack: %w", err)
	}
	if _, ok := msg.(protocol.Verack); !ok {
		return fmt.Errorf("synth: expected verack, got %s", msg.Command())
	}

	return c.transitionLocked(stateEstablished)
}

// respondHandshake drives the inbound side: expect Version, send our
// Version, send our Verack, expect Verack. Our Version is sent before
// checkSelfConnect runs so that, on a self-dial, the initiating side
// still receives a Version to match its own nonce against — otherwise
// only this side would ever observe the collision.
func (n *Node) respondHandshake(c *connection) error {
	msg, err := protocol.ReadMessage(c.conn, n.magic)
	if err != nil {
		return fmt.Errorf("synth: awaiting initial version: %w", err)
	}
	peerVersion, ok := msg.(protocol.Version)
	if !ok {
		return fmt.Errorf("synth: expected version, got %s", msg.Command())
	}
	if err := c.transitionLocked(stateVersionReceived); err != nil {
		return err
	}

	c.mu.Lock()
	c.peerVer = peerVersion
	c.mu.Unlock()

	nonce := n.newSelfConnectNonce()
	if err := c.write(n.magic, n.ourVersion(nonce)); err != nil {
		n.forgetSentNonce(nonce)
		return err
	}
	if err := n.checkSelfConnect(c, peerVersion); err != nil {
		// Deliberately not forgetting nonce here: on a genuine
		// self-dial the initiating side (same Node, same sentNonces
		// map) is still reading the Version we just wrote above and
		// needs to find this nonce still recorded when it runs its
		// own checkSelfConnect — forgetting it eagerly would race
		// that read and could let a self-connect slip through
		// undetected on the initiating side.
		return err
	}
	defer n.forgetSentNonce(nonce)

	if err := c.write(n.magic, protocol.Verack{}); err != nil {
		return err
	}

	msg, err = protocol.ReadMessage(c.conn, n.magic)
	if err != nil {
		return fmt.Errorf("synth: awaiting peer verack: %w", err)
	}
	if _, ok := msg.(protocol.Verack); !ok {
		return fmt.Errorf("synth: expected verack, got %s", msg.Command())
	}

	return c.transitionLocked(stateEstablished)
}

// checkSelfConnect rejects a handshake whose peer Version nonce matches
// one this Node has itself sent (on any connection), the signature of
// having dialed ourselves.
func (n *Node) checkSelfConnect(c *connection, peerVersion protocol.Version) error {
	if n.hasSentNonce(peerVersion.Nonce) {
		_ = c.transitionLocked(stateClosed)
		return fmt.Errorf("synth: self-connect detected (nonce %d)", peerVersion.Nonce)
	}
	return nil
}

// transitionLocked applies a handshake transition under c's mutex.
func (c *connection) transitionLocked(next handshakeState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transition(next)
}
