// This file exports internal functions for use in tests. It is
// compiled only when running tests.

package crawler

import "net"

// TstSymmetricKey exposes symmetricKey for connection-symmetry tests.
func TstSymmetricKey(a, b net.Addr) uint64 {
	return symmetricKey(a, b)
}

// TstNewMetrics exposes newMetrics for metrics-derivation tests.
func TstNewMetrics(nodes map[string]KnownNode, edges []KnownConnection) Metrics {
	return newMetrics(nodes, edges)
}
