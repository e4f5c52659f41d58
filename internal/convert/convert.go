// Package convert provides small byte/numeric conversions shared by the
// wire primitives — the IPv4-in-IPv6 mapping and endian helpers a
// NetAddress needs that don't belong on the NetAddress type itself.
package convert

import "net"

// To16 returns ip as its 16-byte form, mapping a 4-byte IPv4 address into
// the standard ::ffff:a.b.c.d IPv4-in-IPv6 range the wire format requires.
func To16(ip net.IP) [16]byte {
	var out [16]byte
	v16 := ip.To16()
	if v16 == nil {
		// Unparseable input encodes as the unspecified address rather
		// than panicking; callers validate ahead of time if they care.
		return out
	}
	copy(out[:], v16)
	return out
}

// FromBytes16 is the inverse of To16: it returns the net.IP a NetAddress's
// raw 16 bytes represent, unwrapping an IPv4-mapped address back to its
// 4-byte form for display purposes.
func FromBytes16(b [16]byte) net.IP {
	ip := net.IP(b[:])
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}
