// Package crawler implements a peer-discovery crawler atop a synthetic
// node: it seeds from a list of addresses, then periodically samples its
// growing address book, connects to unseen peers, and asks everyone it
// is connected to for more addresses, recording the resulting topology.
package crawler

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/zecharness/ziggurat-go/filter"
	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/synth"
	"github.com/zecharness/ziggurat-go/wire"
)

// MainLoopInterval is the default period between Run iterations.
const MainLoopInterval = 60 * time.Second

// NumConnAttemptsPeriodic caps how many known addresses a single Run
// iteration samples for new connection attempts.
const NumConnAttemptsPeriodic = 10

// SeedResponseTimeout bounds how long Seed waits for the node map to
// grow past the seed count.
const SeedResponseTimeout = 120 * time.Second

const seedPollInterval = 500 * time.Millisecond
const dialSettleDelay = 1 * time.Second
const dialGuardLimit = 512
const gossipPollInterval = 500 * time.Millisecond

// Crawler drives a synth.Node through repeated discovery sweeps,
// recording what it learns in a Network and periodically summarizing it
// via a SummaryWriter.
type Crawler struct {
	node      *synth.Node
	network   *Network
	writer    SummaryWriter
	dialGuard *lru.Cache
	rng       *rand.Rand
}

// New builds a Crawler around a freshly constructed synthetic node:
// full handshake enabled, addr gossip routed to this Crawler instead of
// auto-replied, everything else auto-answered.
func New(ctx context.Context, writer SummaryWriter) (*Crawler, error) {
	policy := filter.New().WithAllAutoReply().WithAddrFilter(filter.Disabled)

	node, err := synth.NewBuilder().
		WithFullHandshake().
		WithMessageFilter(policy).
		WithServices(wire.SFNodeNetwork).
		Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawler: building synthetic node: %w", err)
	}

	c := &Crawler{
		node:      node,
		network:   NewNetwork(),
		writer:    writer,
		dialGuard: lru.NewCache(dialGuardLimit),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// The gossip listener runs for the crawler's whole lifetime, not just
	// during Run, so addr replies gathered during Seed already land in
	// the network graph by the time Seed's wait loop checks it.
	go c.gossipLoop(ctx)

	return c, nil
}

// Node returns the underlying synthetic node, for callers that need its
// listening address or want to shut it down.
func (c *Crawler) Node() *synth.Node { return c.node }

// Network returns the crawler's known-nodes/known-connections graph.
func (c *Crawler) Network() *Network { return c.network }

// ShouldConnect reports whether addr is eligible for a new connection
// attempt: not already connected, not mid-dial, and past Network's
// failure/backoff check.
func (c *Crawler) ShouldConnect(addr net.Addr) bool {
	key := addr.String()
	if c.node.IsConnected(key) {
		return false
	}
	if c.dialGuard.Contains(key) {
		return false
	}
	return c.network.ShouldConnect(addr, time.Now())
}

// Seed connects to every seed address, asks each for its peers on
// success, and waits until the node map has grown past len(seeds) or
// SeedResponseTimeout elapses.
func (c *Crawler) Seed(ctx context.Context, seeds []net.Addr) error {
	for _, addr := range seeds {
		c.network.UpsertNode(addr)
		go c.connectAndGreet(ctx, addr)
	}

	deadline := time.Now().Add(SeedResponseTimeout)
	for {
		if c.network.NumNodes() > len(seeds) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("crawler: timed out waiting for a seed response")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(seedPollInterval):
		}
	}
}

// Run drives the periodic discovery sweep until ctx is cancelled. The
// addr-gossip listener is already running in the background since New.
func (c *Crawler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = MainLoopInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Crawler) tick(ctx context.Context) {
	nodes, edges := c.network.Snapshot()
	log.Infof("crawler: connected=%d known=%d", c.node.NumConnected(), len(nodes))

	for _, addr := range c.sampleCandidates(nodes) {
		if c.ShouldConnect(addr) {
			go c.connectAndGreet(ctx, addr)
		}
	}

	for _, err := range c.node.SendBroadcast(protocol.GetAddr{}) {
		log.Debugf("crawler: broadcasting getaddr: %v", err)
	}

	if len(edges) > 0 {
		summary := Summary{Timestamp: time.Now(), Metrics: newMetrics(nodes, edges)}
		log.Infof("crawler: %s", summary)
		if c.writer != nil {
			if err := c.writer.Append(summary); err != nil {
				log.Errorf("crawler: writing summary: %v", err)
			}
		}
	}

	c.network.PruneStale(LastSeenCutoff)
}

// sampleCandidates picks up to NumConnAttemptsPeriodic addresses from
// nodes without replacement, resolving each key back into a net.Addr.
func (c *Crawler) sampleCandidates(nodes map[string]KnownNode) []net.Addr {
	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	c.rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	n := NumConnAttemptsPeriodic
	if n > len(keys) {
		n = len(keys)
	}

	out := make([]net.Addr, 0, n)
	for _, k := range keys[:n] {
		addr, err := net.ResolveTCPAddr("tcp", k)
		if err != nil {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// connectAndGreet dials addr, records the outcome, and — on success —
// waits dialSettleDelay before asking the new peer for its own peers.
// dialGuard prevents a concurrent sweep from dialing the same address
// twice at once.
func (c *Crawler) connectAndGreet(ctx context.Context, addr net.Addr) {
	key := addr.String()
	if c.dialGuard.Contains(key) {
		return
	}
	c.dialGuard.Add(key)
	defer c.dialGuard.Delete(key)

	start := time.Now()
	if err := c.node.Connect(ctx, key); err != nil {
		c.network.RecordFailure(addr)
		log.Debugf("crawler: connecting to %s: %v", key, err)
		return
	}

	if v, ok := c.node.PeerVersion(key); ok {
		c.network.RecordVersion(addr, start, v)
	}

	select {
	case <-time.After(dialSettleDelay):
	case <-ctx.Done():
		return
	}

	if err := c.node.SendDirectMessage(key, protocol.GetAddr{}); err != nil {
		log.Debugf("crawler: sending getaddr to %s: %v", key, err)
	}
}

// gossipLoop consumes every Addr message the node's filter routes to
// RecvMessageTimeout and folds it into the network graph.
func (c *Crawler) gossipLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		addr, msg, err := c.node.RecvMessageTimeout(gossipPollInterval)
		if err != nil {
			continue
		}

		a, ok := msg.(protocol.Addr)
		if !ok {
			continue
		}

		peers := make([]net.Addr, 0, len(a.Addrs))
		for _, na := range a.Addrs {
			peers = append(peers, na.TCPAddr())
		}
		c.network.AddAddrs(addr, peers)
	}
}
