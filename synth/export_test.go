// This file exports internal functions/state for use in tests. It is
// compiled only when running tests.

package synth

// TstConnectionState returns the handshake state of the connection
// registered at addr, or ok=false if no such connection exists.
func TstConnectionState(n *Node, addr string) (state string, ok bool) {
	c, found := n.lookup(addr)
	if !found {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.String(), true
}
