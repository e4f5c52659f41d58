package synth

import (
	"context"
	"net"

	socks "github.com/btcsuite/go-socks"
)

// dialFunc matches the shape a Node uses internally to open outbound
// connections, letting a proxy dialer stand in for net.Dial.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func defaultDialer(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

// dialerConfig accumulates DialerOption settings before a Builder
// resolves them into a dialFunc.
type dialerConfig struct {
	proxyAddr string
	proxyUser string
	proxyPass string
}

// DialerOption customizes how a Builder's Node dials outbound
// connections. The zero set of options dials directly with net.Dialer.
type DialerOption func(*dialerConfig)

// WithSOCKSProxy routes outbound dials through a SOCKS5 proxy at addr,
// the way a Bitcoin-family peer optionally dials over Tor.
func WithSOCKSProxy(addr, user, pass string) DialerOption {
	return func(c *dialerConfig) {
		c.proxyAddr = addr
		c.proxyUser = user
		c.proxyPass = pass
	}
}

func (c dialerConfig) resolve() dialFunc {
	if c.proxyAddr == "" {
		return defaultDialer
	}
	proxy := &socks.Proxy{
		Addr:     c.proxyAddr,
		Username: c.proxyUser,
		Password: c.proxyPass,
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return proxy.Dial(network, addr)
	}
}
