package synth

import (
	"net"
	"sync"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/wire"
)

// connRole distinguishes which side of a connection we are: it decides
// who speaks Version first.
type connRole uint8

const (
	roleOutbound connRole = iota
	roleInbound
)

// connection is one peer-to-peer TCP connection owned by a Node: one
// reader goroutine, one mutex-guarded writer, and its own handshake
// state. There is no global lock across connections.
type connection struct {
	addr net.Addr
	conn net.Conn
	role connRole

	writeMu sync.Mutex // guards writes to conn

	mu      sync.Mutex // guards state, peerVersion
	state   handshakeState
	peerVer protocol.Version

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(addr net.Addr, conn net.Conn, role connRole) *connection {
	return &connection{
		addr: addr,
		conn: conn,
		role: role,
		done: make(chan struct{}),
	}
}

// write serializes msg and writes it to the connection under the write
// mutex, the "one shared writer per connection guarded by a mutex"
// invariant.
func (c *connection) write(magic wire.BitcoinNet, msg protocol.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteMessage(c.conn, magic, msg)
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *connection) established() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateEstablished
}
