package crawler

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/zecharness/ziggurat-go/wire"
)

// handshakeBuckets are the upper bounds (exclusive) of the handshake-
// latency histogram buckets Metrics reports, the last one catching
// everything above it.
var handshakeBuckets = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	5 * time.Second,
}

func bucketLabel(i int) string {
	if i == 0 {
		return fmt.Sprintf("<%s", handshakeBuckets[0])
	}
	if i == len(handshakeBuckets) {
		return fmt.Sprintf(">=%s", handshakeBuckets[i-1])
	}
	return fmt.Sprintf("%s-%s", handshakeBuckets[i-1], handshakeBuckets[i])
}

// Metrics is a point-in-time summary of what the crawler knows about
// the network's topology and the peers it has handshaked with.
type Metrics struct {
	NodeCount               int
	EdgeCount               int
	HandshakeLatencyBuckets map[string]int
	VersionDistribution     map[int32]int
	UserAgentDistribution   map[string]int
	ServiceDistribution     map[string]int
	FullNodeCount           int
}

// newMetrics derives a Metrics from a Network snapshot.
func newMetrics(nodes map[string]KnownNode, edges []KnownConnection) Metrics {
	m := Metrics{
		NodeCount:               len(nodes),
		EdgeCount:                len(edges),
		HandshakeLatencyBuckets: make(map[string]int),
		VersionDistribution:     make(map[int32]int),
		UserAgentDistribution:   make(map[string]int),
		ServiceDistribution:     make(map[string]int),
	}

	for _, n := range nodes {
		if n.LastConnected.IsZero() {
			continue
		}
		m.VersionDistribution[n.ProtocolVersion]++
		m.UserAgentDistribution[n.UserAgent]++
		m.ServiceDistribution[n.Services.String()]++
		if n.Services.HasFlag(wire.SFNodeNetwork) {
			m.FullNodeCount++
		}

		idx := len(handshakeBuckets)
		for i, upper := range handshakeBuckets {
			if n.HandshakeTime < upper {
				idx = i
				break
			}
		}
		m.HandshakeLatencyBuckets[bucketLabel(idx)]++
	}

	return m
}

// Summary pairs a Metrics with the time it was taken, the unit the
// crawler logs and persists once per main-loop iteration.
type Summary struct {
	Timestamp time.Time
	Metrics   Metrics
}

// String renders a Summary as the single line FileSummaryWriter appends
// to the summary file.
func (s Summary) String() string {
	return fmt.Sprintf(
		"%s nodes=%d edges=%d full_nodes=%d handshake_buckets=%v versions=%v user_agents=%v services=%v",
		s.Timestamp.UTC().Format(time.RFC3339),
		s.Metrics.NodeCount,
		s.Metrics.EdgeCount,
		s.Metrics.FullNodeCount,
		s.Metrics.HandshakeLatencyBuckets,
		s.Metrics.VersionDistribution,
		s.Metrics.UserAgentDistribution,
		s.Metrics.ServiceDistribution,
	)
}

// SummaryWriter persists a Summary somewhere durable. The crawler only
// depends on this interface, not on any particular storage — per
// spec.md's "topology summary" being an external collaborator.
type SummaryWriter interface {
	Append(Summary) error
}

// FileSummaryWriter is the default SummaryWriter: an append-only text
// file, one line per call to Append.
type FileSummaryWriter struct {
	path string
	mu   sync.Mutex
}

// NewFileSummaryWriter returns a FileSummaryWriter appending to path.
func NewFileSummaryWriter(path string) *FileSummaryWriter {
	return &FileSummaryWriter{path: path}
}

// Append writes s as one line to the summary file, creating it if it
// doesn't exist.
func (w *FileSummaryWriter) Append(s Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("crawler: opening summary file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, s.String()); err != nil {
		return fmt.Errorf("crawler: writing summary line: %w", err)
	}
	return nil
}
