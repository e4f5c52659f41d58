package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecharness/ziggurat-go/filter"
	"github.com/zecharness/ziggurat-go/wire"
)

func TestNewDefaultsToAutoReply(t *testing.T) {
	p := filter.New()
	assert.Equal(t, filter.AutoReply, p.Classify(wire.CmdPing))
	assert.Equal(t, filter.AutoReply, p.Classify(wire.CmdGetHeaders))
	assert.Equal(t, filter.AutoReply, p.Classify(wire.CmdGetData))
}

func TestUnknownCommandDrops(t *testing.T) {
	p := filter.New()
	assert.Equal(t, filter.Drop, p.Classify("bogus"))
	assert.Equal(t, filter.Drop, p.Classify(wire.CmdVersion))
	assert.Equal(t, filter.Drop, p.Classify(wire.CmdVerack))
}

func TestWithAllDisabled(t *testing.T) {
	p := filter.New().WithAllDisabled()
	assert.Equal(t, filter.Disabled, p.Classify(wire.CmdGetAddr))
	assert.Equal(t, filter.Disabled, p.Classify(wire.CmdInv))
}

func TestPerCommandSetterIsIsolated(t *testing.T) {
	p := filter.New().WithGetDataFilter(filter.Disabled)
	assert.Equal(t, filter.Disabled, p.Classify(wire.CmdGetData))
	assert.Equal(t, filter.AutoReply, p.Classify(wire.CmdGetHeaders))
}

func TestCommandFilterRejectsHandshakeCommands(t *testing.T) {
	p := filter.New()

	_, err := p.WithCommandFilter(wire.CmdVersion, filter.Disabled)
	require.Error(t, err)

	_, err = p.WithCommandFilter(wire.CmdVerack, filter.Disabled)
	require.Error(t, err)
}

func TestPolicyIsImmutable(t *testing.T) {
	base := filter.New()
	derived := base.WithPingFilter(filter.Drop)

	assert.Equal(t, filter.AutoReply, base.Classify(wire.CmdPing))
	assert.Equal(t, filter.Drop, derived.Classify(wire.CmdPing))
}
