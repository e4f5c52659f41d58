package setup_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecharness/ziggurat-go/setup"
)

func TestZcashdConfigFileIncludesPeersAndMaxConnections(t *testing.T) {
	cfg := setup.NewNodeConfig()
	cfg.LocalAddr = &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 18233}
	cfg.MaxPeers = 12
	cfg.InitialPeers = map[string]struct{}{"127.0.0.1:9000": {}}

	out := setup.TstZcashdConfigFile(cfg)
	assert.Contains(t, out, "maxconnections=12")
	assert.Contains(t, out, "addnode=127.0.0.1:9000")
	assert.Contains(t, out, "testnet=1")
}

func TestZebraConfigFileIsValidYAML(t *testing.T) {
	cfg := setup.NewNodeConfig()
	cfg.LocalAddr = &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 18233}
	cfg.MaxPeers = 8

	out, err := setup.TstZebraConfigFile(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "testnet: true")
	assert.Contains(t, out, "127.0.0.1:18233")
}
