package wire_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zecharness/ziggurat-go/wire"
)

func TestVarIntRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := wire.VarInt(rapid.Uint64().Draw(t, "v"))

		encoded := v.Encode(nil)
		assert.Equal(t, v.EncodedLen(), len(encoded))

		decoded, err := wire.DecodeVarInt(bytes.NewReader(encoded))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	})
}

func TestVarStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := wire.VarString(rapid.String().Draw(t, "s"))

		encoded := s.Encode(nil)
		decoded, err := wire.DecodeVarString(bytes.NewReader(encoded))
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	})
}

func TestHashRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var h wire.Hash
		b := rapid.SliceOfN(rapid.Byte(), wire.HashSize, wire.HashSize).Draw(t, "h")
		copy(h[:], b)

		encoded := wire.EncodeHash(nil, h)
		decoded, err := wire.DecodeHash(bytes.NewReader(encoded))
		require.NoError(t, err)
		assert.Equal(t, h, decoded)
	})
}

func genNetAddress(t *rapid.T) wire.NetAddress {
	ip := rapid.SliceOfN(rapid.Byte(), 4, 4).Draw(t, "ip")
	return wire.NetAddress{
		Timestamp: rapid.Uint32().Draw(t, "ts"),
		Services:  wire.ServiceFlag(rapid.Uint64().Draw(t, "services")),
		IP:        net.IPv4(ip[0], ip[1], ip[2], ip[3]),
		Port:      uint16(rapid.UintRange(0, 65535).Draw(t, "port")),
	}
}

// TestNetAddressVersionRoundTrip covers the no-timestamp encoding used
// inside a version payload.
func TestNetAddressVersionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genNetAddress(t)

		encoded := a.EncodeForVersion(nil)
		decoded, err := wire.DecodeNetAddress(bytes.NewReader(encoded), false)
		require.NoError(t, err)

		assert.Equal(t, a.Services, decoded.Services)
		assert.Equal(t, a.Port, decoded.Port)
		assert.True(t, a.IP.Equal(decoded.IP), "IP %s != %s", a.IP, decoded.IP)
		// EncodeForVersion drops the timestamp; re-encoding the decoded
		// value must reproduce the exact bytes written.
		assert.Equal(t, encoded, decoded.EncodeForVersion(nil))
	})
}

// TestNetAddressAddrRoundTrip covers the timestamped encoding used
// inside an addr payload.
func TestNetAddressAddrRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genNetAddress(t)

		encoded := a.EncodeForAddr(nil)
		decoded, err := wire.DecodeNetAddress(bytes.NewReader(encoded), true)
		require.NoError(t, err)

		assert.Equal(t, encoded, decoded.EncodeForAddr(nil))
	})
}

// TestHeaderRoundTrip exercises the 24-byte envelope itself, independent
// of any payload.
func TestHeaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := []byte(rapid.String().Draw(t, "payload"))
		h := wire.Header{
			Magic:    wire.ZecTestNet,
			Command:  wire.CmdPing,
			Length:   uint32(len(payload)),
			Checksum: wire.Checksum(payload),
		}

		var buf bytes.Buffer
		require.NoError(t, wire.WriteHeader(&buf, h))

		decoded, err := wire.ReadHeader(&buf, wire.ZecTestNet)
		require.NoError(t, err)
		assert.Equal(t, h, decoded)
	})
}
