// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/zecharness/ziggurat-go/internal/convert"
)

// NetAddress is a single network address record: optional 4-byte unix
// timestamp, 8-byte service bitfield, 16-byte (IPv4-mapped) IP, and a
// big-endian port.
//
// The timestamp MUST be present when a NetAddress is encoded as part of
// an addr payload and MUST be absent when encoded as part of a version
// payload (see EncodeForAddr / EncodeForVersion). This follows the wire
// rule rather than the comment in the reference implementation this was
// ported from, which claimed the opposite — see DESIGN.md.
type NetAddress struct {
	Timestamp uint32 // unix seconds; ignored by EncodeForVersion
	Services  ServiceFlag
	IP        net.IP
	Port      uint16
}

// EncodeForVersion appends the no-timestamp encoding used inside a
// version payload.
func (a NetAddress) EncodeForVersion(out []byte) []byte {
	return a.encode(out, false)
}

// EncodeForAddr appends the timestamped encoding used inside an addr
// payload.
func (a NetAddress) EncodeForAddr(out []byte) []byte {
	return a.encode(out, true)
}

func (a NetAddress) encode(out []byte, withTimestamp bool) []byte {
	if withTimestamp {
		var ts [4]byte
		binary.LittleEndian.PutUint32(ts[:], a.Timestamp)
		out = append(out, ts[:]...)
	}

	var services [8]byte
	binary.LittleEndian.PutUint64(services[:], uint64(a.Services))
	out = append(out, services[:]...)

	raw := convert.To16(a.IP)
	out = append(out, raw[:]...)

	var port [2]byte
	binary.BigEndian.PutUint16(port[:], a.Port)
	return append(out, port[:]...)
}

// DecodeNetAddress reads a NetAddress, with or without the leading
// timestamp field per hasTimestamp.
func DecodeNetAddress(r io.Reader, hasTimestamp bool) (NetAddress, error) {
	var a NetAddress

	if hasTimestamp {
		var ts [4]byte
		if _, err := io.ReadFull(r, ts[:]); err != nil {
			return a, wrapIOErr(ErrUnexpectedEOF, err, "netaddr timestamp")
		}
		a.Timestamp = binary.LittleEndian.Uint32(ts[:])
	}

	var services [8]byte
	if _, err := io.ReadFull(r, services[:]); err != nil {
		return a, wrapIOErr(ErrUnexpectedEOF, err, "netaddr services")
	}
	a.Services = ServiceFlag(binary.LittleEndian.Uint64(services[:]))

	var ip [16]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return a, wrapIOErr(ErrUnexpectedEOF, err, "netaddr ip")
	}
	a.IP = convert.FromBytes16(ip)

	var port [2]byte
	if _, err := io.ReadFull(r, port[:]); err != nil {
		return a, wrapIOErr(ErrUnexpectedEOF, err, "netaddr port")
	}
	a.Port = binary.BigEndian.Uint16(port[:])

	return a, nil
}

// NetAddressFromTCPAddr builds a timestamp-less NetAddress carrying the
// given services from a resolved TCP address.
func NetAddressFromTCPAddr(addr *net.TCPAddr, services ServiceFlag) NetAddress {
	return NetAddress{
		Services: services,
		IP:       addr.IP,
		Port:     uint16(addr.Port),
	}
}

// TCPAddr is the inverse of NetAddressFromTCPAddr, used by gossip
// consumers (the crawler) that need a net.Addr out of a decoded addr
// entry.
func (a NetAddress) TCPAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: a.IP, Port: int(a.Port)}
}
