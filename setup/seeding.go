package setup

import (
	"fmt"
	"time"

	"github.com/zecharness/ziggurat-go/protocol"
	"github.com/zecharness/ziggurat-go/synth"
	"github.com/zecharness/ziggurat-go/testdata"
	"github.com/zecharness/ziggurat-go/wire"
)

// performInitialAction drives the configured Action against the
// synthetic peer that was registered as the SUT's initial peer, then
// tears that peer down. The synthetic peer's own message filter has
// getheaders/getdata set to Disabled so this function sees those
// requests instead of the peer auto-answering them.
func (n *Node) performInitialAction(helper *synth.Node) error {
	defer helper.ShutDown()

	switch action := n.config.InitialAction.(type) {
	case actionNone:
		return nil

	case actionWaitForConnection:
		return waitForConnection(helper)

	case ActionSeedWithTestnetBlocks:
		if n.meta.Kind == Zebra {
			log.Warnf("setup: SeedWithTestnetBlocks is not supported on zebra, waiting for connection instead")
			return waitForConnection(helper)
		}
		return seedWithTestnetBlocks(helper, action.N)

	default:
		return fmt.Errorf("setup: unknown Action %T", action)
	}
}

func waitForConnection(helper *synth.Node) error {
	deadline := time.Now().Add(initialActionTimeout)
	for helper.NumConnected() != 1 {
		if time.Now().After(deadline) {
			return fmt.Errorf("setup: timed out waiting for node to connect")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

func seedWithTestnetBlocks(helper *synth.Node, count int) error {
	all := testdata.TestnetBlocks()
	if count > len(all) {
		count = len(all)
	}
	genesis := all[0]
	blocks := all[1:count] // skip genesis, cap at count

	addr, msg, err := helper.RecvMessageTimeout(initialActionTimeout)
	if err != nil {
		return fmt.Errorf("awaiting GetHeaders: %w", err)
	}
	getHeaders, ok := msg.(protocol.GetHeaders)
	if !ok {
		return fmt.Errorf("expected GetHeaders, got %s", msg.Command())
	}
	genesisHash := genesis.Header.Hash()
	if len(getHeaders.BlockLocatorHashes) != 1 || getHeaders.BlockLocatorHashes[0] != genesisHash {
		return fmt.Errorf("GetHeaders locator hashes %v, expected [%v]", getHeaders.BlockLocatorHashes, genesisHash)
	}
	if getHeaders.HashStop != wire.ZeroHash {
		return fmt.Errorf("GetHeaders hash_stop %v, expected zero", getHeaders.HashStop)
	}

	headers := make([]protocol.BlockHeader, len(blocks))
	for i, b := range blocks {
		headers[i] = b.Header
	}
	if err := helper.SendDirectMessage(addr.String(), protocol.NewHeaders(headers)); err != nil {
		return fmt.Errorf("sending Headers: %w", err)
	}

	addr, msg, err = helper.RecvMessageTimeout(initialActionTimeout)
	if err != nil {
		return fmt.Errorf("awaiting GetData: %w", err)
	}
	getData, ok := msg.(protocol.GetData)
	if !ok {
		return fmt.Errorf("expected GetData, got %s", msg.Command())
	}
	expected := make([]protocol.InvVect, len(blocks))
	for i, b := range blocks {
		expected[i] = b.InvVect()
	}
	if !sameInventory(getData.Items, expected) {
		return fmt.Errorf("GetData inventory did not match the headers just sent")
	}

	for _, b := range blocks {
		if err := helper.SendDirectMessage(addr.String(), b); err != nil {
			return fmt.Errorf("sending Block: %w", err)
		}
	}

	return helper.PingPongTimeout(addr.String(), initialActionTimeout)
}

func sameInventory(got, want []protocol.InvVect) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
