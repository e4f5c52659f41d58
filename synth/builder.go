package synth

import (
	"context"
	"fmt"
	"net"

	"github.com/zecharness/ziggurat-go/filter"
	"github.com/zecharness/ziggurat-go/wire"
)

// Builder configures and constructs a Node (or a fleet of them). Create
// one with NewBuilder, which fills in the defaults; every setter returns
// the Builder so calls chain.
type Builder struct {
	magic           wire.BitcoinNet
	protocolVersion int32
	userAgent       string
	services        wire.ServiceFlag
	startHeight     int32
	fullHandshake   bool
	policy          filter.Policy
	inboundCap      int
	dialerCfg       dialerConfig
}

// NewBuilder returns a Builder defaulted to the Zcash testnet magic,
// protocol version 170100, a plain "/ziggurat:0.1.0/" user agent, no
// services advertised, AutoReply for everything, and no handshake.
func NewBuilder() *Builder {
	return &Builder{
		magic:           wire.ZecTestNet,
		protocolVersion: 170100,
		userAgent:       "/ziggurat:0.1.0/",
		policy:          filter.New(),
		inboundCap:      defaultInboundCap,
	}
}

// WithMagic overrides the network magic (mainnet/testnet/regtest).
func (b *Builder) WithMagic(magic wire.BitcoinNet) *Builder {
	b.magic = magic
	return b
}

// WithProtocolVersion overrides the protocol version advertised in our
// Version message.
func (b *Builder) WithProtocolVersion(v int32) *Builder {
	b.protocolVersion = v
	return b
}

// WithUserAgent overrides the user agent string advertised in our
// Version message.
func (b *Builder) WithUserAgent(ua string) *Builder {
	b.userAgent = ua
	return b
}

// WithServices overrides the service-flag bitfield advertised in our
// Version message.
func (b *Builder) WithServices(services wire.ServiceFlag) *Builder {
	b.services = services
	return b
}

// WithStartHeight overrides the chain height advertised in our Version
// message.
func (b *Builder) WithStartHeight(h int32) *Builder {
	b.startHeight = h
	return b
}

// WithFullHandshake enables the version/verack exchange on every
// connection (outbound and inbound). Without it, connections are marked
// established immediately, useful for tests that only care about
// post-handshake framing.
func (b *Builder) WithFullHandshake() *Builder {
	b.fullHandshake = true
	return b
}

// WithMessageFilter sets the Policy applied to every connection's
// inbound traffic once established.
func (b *Builder) WithMessageFilter(p filter.Policy) *Builder {
	b.policy = p
	return b
}

// WithAllAutoReply resets the Policy to AutoReply for every command.
func (b *Builder) WithAllAutoReply() *Builder {
	b.policy = b.policy.WithAllAutoReply()
	return b
}

// WithInboundChannelCapacity overrides the default 64-entry capacity of
// the shared Disabled-message channel RecvMessageTimeout reads from.
func (b *Builder) WithInboundChannelCapacity(n int) *Builder {
	b.inboundCap = n
	return b
}

// WithDialer applies DialerOptions (e.g. WithSOCKSProxy) to how this
// Node's outbound connections are dialed.
func (b *Builder) WithDialer(opts ...DialerOption) *Builder {
	for _, opt := range opts {
		opt(&b.dialerCfg)
	}
	return b
}

// Build starts a listener on an OS-assigned loopback port and returns
// the resulting Node.
func (b *Builder) Build(ctx context.Context) (*Node, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("synth: listen: %w", err)
	}

	capacity := b.inboundCap
	if capacity <= 0 {
		capacity = defaultInboundCap
	}

	n := &Node{
		magic:           b.magic,
		protocolVersion: b.protocolVersion,
		userAgent:       wire.VarString(b.userAgent),
		services:        b.services,
		startHeight:     b.startHeight,
		fullHandshake:   b.fullHandshake,
		policy:          b.policy,
		dial:            b.dialerCfg.resolve(),
		listener:        listener,
		conns:           make(map[string]*connection),
		sentNonces:      make(map[uint64]struct{}),
		recvCh:          make(chan inboundMessage, capacity),
	}

	n.wg.Add(1)
	go n.acceptLoop()

	go func() {
		<-ctx.Done()
		n.ShutDown()
	}()

	return n, nil
}

// BuildN builds n independent Nodes sharing this Builder's
// configuration, returning them alongside their listening addresses.
func (b *Builder) BuildN(ctx context.Context, n int) ([]*Node, []net.Addr, error) {
	nodes := make([]*Node, 0, n)
	addrs := make([]net.Addr, 0, n)
	for i := 0; i < n; i++ {
		node, err := b.Build(ctx)
		if err != nil {
			for _, built := range nodes {
				built.ShutDown()
			}
			return nil, nil, fmt.Errorf("synth: building node %d/%d: %w", i+1, n, err)
		}
		nodes = append(nodes, node)
		addrs = append(addrs, node.ListeningAddr())
	}
	return nodes, addrs, nil
}
