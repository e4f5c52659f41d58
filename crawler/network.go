package crawler

import (
	"net"
	"sync"
	"time"

	"github.com/aead/siphash"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/wire"
)

// LastSeenCutoff is how long a connection can go unreported before
// PruneStale removes it.
const LastSeenCutoff = 10 * time.Minute

// MaxFailures caps how many consecutive connection failures a node gets
// before ShouldConnect stops retrying it.
const MaxFailures = 5

// backoffBase is the unit of ShouldConnect's exponential backoff:
// backoffBase * 2^failures.
const backoffBase = 30 * time.Second

// connectionKeySalt seeds the SipHash used to turn an unordered address
// pair into a single symmetric map key. It has no secrecy requirement —
// it only needs to be fixed for the life of a process so the same pair
// always hashes to the same key.
var connectionKeySalt = [16]byte{
	0x7a, 0x69, 0x67, 0x67, 0x75, 0x72, 0x61, 0x74,
	0x2d, 0x63, 0x72, 0x61, 0x77, 0x6c, 0x65, 0x72,
}

// symmetricKey returns the same value for (a, b) as for (b, a), the Go
// equivalent of the reference implementation's custom Hash impl that
// sorts the pair before hashing.
func symmetricKey(a, b net.Addr) uint64 {
	sa, sb := a.String(), b.String()
	if sa > sb {
		sa, sb = sb, sa
	}
	return siphash.Sum64(connectionKeySalt[:], []byte(sa+"\x00"+sb))
}

// KnownNode is what the crawler has learned about one peer address. The
// address itself is omitted — it's the key in Network's node map.
type KnownNode struct {
	LastConnected      time.Time
	HandshakeTime      time.Duration
	ProtocolVersion    int32
	UserAgent          string
	Services           wire.ServiceFlag
	ConnectionFailures uint8

	lastAttempt time.Time
}

// KnownConnection is an edge the crawler has observed between two
// addresses, reported by one of them via an addr gossip message.
type KnownConnection struct {
	A, B     net.Addr
	LastSeen time.Time
}

// Network is the crawler's in-memory view of the gossip graph: known
// nodes and the (undirected) connections reported between them. All
// access goes through a reader-writer lock; Snapshot hands back a cheap
// copy so callers never hold the lock across a blocking call.
type Network struct {
	mu    sync.RWMutex
	nodes map[string]KnownNode
	conns map[uint64]KnownConnection
}

// NewNetwork returns an empty Network.
func NewNetwork() *Network {
	return &Network{
		nodes: make(map[string]KnownNode),
		conns: make(map[uint64]KnownConnection),
	}
}

// AddAddrs records source as connected to every address in peers, then
// upserts every endpoint (source included) into the node map. Reporting
// the same pair again just refreshes LastSeen, the "replace" semantics
// of the reference HashSet.
func (nw *Network) AddAddrs(source net.Addr, peers []net.Addr) {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	now := time.Now()
	for _, p := range peers {
		nw.conns[symmetricKey(source, p)] = KnownConnection{A: source, B: p, LastSeen: now}
	}

	nw.upsertLocked(source)
	for _, p := range peers {
		nw.upsertLocked(p)
	}
}

// UpsertNode ensures addr has an entry in the node map, without
// overwriting one that already exists.
func (nw *Network) UpsertNode(addr net.Addr) {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	nw.upsertLocked(addr)
}

func (nw *Network) upsertLocked(addr net.Addr) {
	key := addr.String()
	if _, ok := nw.nodes[key]; !ok {
		nw.nodes[key] = KnownNode{}
	}
}

// RecordVersion updates addr's node entry with the Version payload
// observed on a freshly established connection, and the handshake
// latency measured from dialStarted.
func (nw *Network) RecordVersion(addr net.Addr, dialStarted time.Time, v protocol.Version) {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	n := nw.nodes[addr.String()]
	n.LastConnected = time.Now()
	n.HandshakeTime = time.Since(dialStarted)
	n.ProtocolVersion = v.ProtocolVersion
	n.UserAgent = string(v.UserAgent)
	n.Services = v.Services
	n.ConnectionFailures = 0
	n.lastAttempt = time.Now()
	nw.nodes[addr.String()] = n
}

// RecordFailure increments addr's connection-failure count and stamps
// the attempt time ShouldConnect's backoff is measured from.
func (nw *Network) RecordFailure(addr net.Addr) {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	n := nw.nodes[addr.String()]
	n.ConnectionFailures++
	n.lastAttempt = time.Now()
	nw.nodes[addr.String()] = n
}

// ShouldConnect reports whether addr's recorded failure count and
// backoff make it eligible for another connection attempt as of now. It
// does not know about connections currently in progress — see
// (*Crawler).ShouldConnect for the complete check.
func (nw *Network) ShouldConnect(addr net.Addr, now time.Time) bool {
	nw.mu.RLock()
	defer nw.mu.RUnlock()

	n, ok := nw.nodes[addr.String()]
	if !ok {
		return true
	}
	if n.ConnectionFailures >= MaxFailures {
		return false
	}
	backoff := backoffBase * time.Duration(uint(1)<<n.ConnectionFailures)
	return now.Sub(n.lastAttempt) >= backoff
}

// Snapshot returns a cheap copy of the known nodes and connections,
// taken under a single read lock.
func (nw *Network) Snapshot() (map[string]KnownNode, []KnownConnection) {
	nw.mu.RLock()
	defer nw.mu.RUnlock()

	nodes := make(map[string]KnownNode, len(nw.nodes))
	for k, v := range nw.nodes {
		nodes[k] = v
	}
	edges := make([]KnownConnection, 0, len(nw.conns))
	for _, c := range nw.conns {
		edges = append(edges, c)
	}
	return nodes, edges
}

// NumNodes returns the number of known node addresses.
func (nw *Network) NumNodes() int {
	nw.mu.RLock()
	defer nw.mu.RUnlock()
	return len(nw.nodes)
}

// NumConnections returns the number of known connections (edges).
func (nw *Network) NumConnections() int {
	nw.mu.RLock()
	defer nw.mu.RUnlock()
	return len(nw.conns)
}

// PruneStale removes every connection last seen more than cutoff ago.
func (nw *Network) PruneStale(cutoff time.Duration) {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	now := time.Now()
	for key, c := range nw.conns {
		if now.Sub(c.LastSeen) > cutoff {
			delete(nw.conns, key)
		}
	}
}
