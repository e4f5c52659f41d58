// Package synth implements a synthetic Zcash peer: a process that
// speaks the wire protocol well enough to drive a real node (the
// "system under test") through a handshake and any scripted exchange a
// conformance test wants, without implementing any real chain logic.
package synth

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/zecharness/ziggurat-go/filter"
	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/wire"
)

const defaultInboundCap = 64

// inboundMessage pairs a Disabled-filtered message with the address of
// the connection it arrived on, what RecvMessageTimeout hands back.
type inboundMessage struct {
	addr net.Addr
	msg  protocol.Message
}

// Node is one synthetic peer: a listener accepting inbound connections
// plus any number of outbound connections it has dialed, all sharing one
// handshake policy and one message filter.
type Node struct {
	magic           wire.BitcoinNet
	protocolVersion int32
	userAgent       wire.VarString
	services        wire.ServiceFlag
	startHeight     int32
	fullHandshake   bool
	policy          filter.Policy
	dial            dialFunc

	listener net.Listener

	mu    sync.RWMutex
	conns map[string]*connection

	nonceMu    sync.Mutex
	sentNonces map[uint64]struct{}

	recvCh chan inboundMessage

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ListeningAddr returns the address this Node's listener is bound to.
func (n *Node) ListeningAddr() net.Addr {
	return n.listener.Addr()
}

// NumConnected returns the number of connections currently past the
// handshake.
func (n *Node) NumConnected() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count := 0
	for _, c := range n.conns {
		if c.established() {
			count++
		}
	}
	return count
}

// IsConnected reports whether addr currently has an established
// connection.
func (n *Node) IsConnected(addr string) bool {
	c, ok := n.lookup(addr)
	return ok && c.established()
}

// PeerVersion returns the Version payload a connection's peer sent
// during the handshake, if that connection is established.
func (n *Node) PeerVersion(addr string) (protocol.Version, bool) {
	c, ok := n.lookup(addr)
	if !ok || !c.established() {
		return protocol.Version{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerVer, true
}

// Connect dials addr, performs the configured handshake, and registers
// the resulting connection under its remote address's String() (for a
// direct dial of an IP:port string, that string itself).
func (n *Node) Connect(ctx context.Context, addr string) error {
	raw, err := n.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("synth: dial %s: %w", addr, err)
	}

	c := newConnection(raw.RemoteAddr(), raw, roleOutbound)
	if n.fullHandshake {
		if err := n.initiateHandshake(c); err != nil {
			_ = raw.Close()
			return err
		}
	} else {
		c.state = stateEstablished
	}

	n.register(c)
	n.wg.Add(1)
	go n.readLoop(c)

	return nil
}

// acceptLoop runs for the lifetime of the Node, registering each
// inbound connection and handshaking it (responder side) before
// spinning up its reader goroutine.
func (n *Node) acceptLoop() {
	defer n.wg.Done()
	for {
		raw, err := n.listener.Accept()
		if err != nil {
			return
		}

		c := newConnection(raw.RemoteAddr(), raw, roleInbound)
		if n.fullHandshake {
			n.wg.Add(1)
			go func() {
				defer n.wg.Done()
				if err := n.respondHandshake(c); err != nil {
					log.Debugf("synth: handshake with %s failed: %v", c.addr, err)
					_ = raw.Close()
					return
				}
				n.register(c)
				n.wg.Add(1)
				go n.readLoop(c)
			}()
			continue
		}

		c.state = stateEstablished
		n.register(c)
		n.wg.Add(1)
		go n.readLoop(c)
	}
}

func (n *Node) register(c *connection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conns[c.addr.String()] = c
}

func (n *Node) lookup(addr string) (*connection, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.conns[addr]
	return c, ok
}

// SendDirectMessage writes msg to the connection registered at addr.
func (n *Node) SendDirectMessage(addr string, msg protocol.Message) error {
	c, ok := n.lookup(addr)
	if !ok {
		return ErrNotConnected
	}
	return c.write(n.magic, msg)
}

// SendBroadcast writes msg to every established connection, returning
// one error per connection that failed (nil entries are omitted).
func (n *Node) SendBroadcast(msg protocol.Message) []error {
	n.mu.RLock()
	targets := make([]*connection, 0, len(n.conns))
	for _, c := range n.conns {
		if c.established() {
			targets = append(targets, c)
		}
	}
	n.mu.RUnlock()

	var errs []error
	for _, c := range targets {
		if err := c.write(n.magic, msg); err != nil {
			errs = append(errs, fmt.Errorf("synth: broadcast to %s: %w", c.addr, err))
		}
	}
	return errs
}

// RecvMessageTimeout blocks until a Disabled-filtered message arrives
// from any peer, or dur elapses, returning ErrTimeout in the latter
// case.
func (n *Node) RecvMessageTimeout(dur time.Duration) (net.Addr, protocol.Message, error) {
	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case m := <-n.recvCh:
		return m.addr, m.msg, nil
	case <-timer.C:
		return nil, nil, ErrTimeout
	}
}

// PingPongTimeout sends a Ping with a fresh nonce to the connection at
// addr and waits up to dur for the matching Pong, confirming the
// connection has drained everything sent before it.
func (n *Node) PingPongTimeout(addr string, dur time.Duration) error {
	c, ok := n.lookup(addr)
	if !ok {
		return ErrNotConnected
	}

	nonce := protocol.RandomNonce()
	if err := c.write(n.magic, protocol.Ping{Nonce: nonce}); err != nil {
		return err
	}

	deadline := time.Now().Add(dur)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimeout
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(remaining)); err != nil {
			return err
		}
		msg, err := protocol.ReadMessage(c.conn, n.magic)
		if err != nil {
			return err
		}
		if pong, ok := msg.(protocol.Pong); ok && pong.Nonce == nonce {
			return nil
		}
		// Any other traffic while waiting for the pong is dropped;
		// PingPongTimeout is a drain barrier, not a general reader.
	}
}

// ShutDown closes the listener and every connection, and waits for all
// internal goroutines to exit.
func (n *Node) ShutDown() {
	n.closeOnce.Do(func() {
		_ = n.listener.Close()
		n.mu.Lock()
		for _, c := range n.conns {
			c.close()
		}
		n.mu.Unlock()
		n.wg.Wait()
	})
}

func (n *Node) readLoop(c *connection) {
	defer n.wg.Done()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		msg, err := protocol.ReadMessage(c.conn, n.magic)
		if err != nil {
			if !IsTerminationError(err) {
				log.Debugf("synth: read from %s: %v", c.addr, err)
			}
			return
		}

		if err := n.handleMessage(c, msg); err != nil {
			log.Debugf("synth: handling message from %s: %v", c.addr, err)
			return
		}
	}
}

func (n *Node) handleMessage(c *connection, msg protocol.Message) error {
	action := n.policy.Classify(msg.Command())

	switch action {
	case filter.Drop:
		return nil
	case filter.Disabled:
		select {
		case n.recvCh <- inboundMessage{addr: c.addr, msg: msg}:
		case <-c.done:
		}
		return nil
	case filter.AutoReply:
		return n.autoReply(c, msg)
	default:
		return nil
	}
}

// autoReply answers a message classified AutoReply with the canned
// response spec.md §5 assigns it. ping gets pong; getheaders/getaddr get
// empty responses; everything else (addr, headers, block, tx, inv,
// getdata, notfound, mempool, reject) is silently acknowledged by doing
// nothing, matching "no reply" for those commands.
func (n *Node) autoReply(c *connection, msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.Ping:
		return c.write(n.magic, protocol.Pong{Nonce: m.Nonce})
	case protocol.GetHeaders:
		return c.write(n.magic, protocol.EmptyHeaders())
	case protocol.GetAddr:
		return c.write(n.magic, protocol.EmptyAddr())
	default:
		return nil
	}
}
