package setup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecharness/ziggurat-go/setup"
)

// fakeNodeMeta points a Node at a shell command standing in for a real
// zcashd/zebra binary, so process-lifecycle behavior can be exercised
// without either binary present.
func fakeNodeMeta(t *testing.T, args ...string) setup.NodeMetaData {
	t.Helper()
	return setup.NodeMetaData{
		Kind:         setup.Zcashd,
		Path:         t.TempDir(),
		StartCommand: "sh",
		StartArgs:    args,
	}
}

func TestStopTerminatesARunningProcess(t *testing.T) {
	meta := fakeNodeMeta(t, "-c", "sleep 30")
	n := setup.NewNode(meta)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.Start(ctx))

	err := n.Stop()
	assert.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(meta.Path, "zcash.conf"))
	assert.True(t, os.IsNotExist(statErr), "config file should be removed by Stop")
}

func TestStopReportsAnEarlyExitAsCrashed(t *testing.T) {
	meta := fakeNodeMeta(t, "-c", "exit 0")
	n := setup.NewNode(meta)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.Start(ctx))

	// Give the shell time to exit before we ask it to stop.
	time.Sleep(200 * time.Millisecond)

	err := n.Stop()
	var crashed setup.ErrSubprocessCrashed
	require.True(t, errors.As(err, &crashed))
	assert.Equal(t, 0, crashed.ExitCode)
}

func TestStopOnNeverStartedNodeIsANoOp(t *testing.T) {
	meta := fakeNodeMeta(t, "-c", "true")
	n := setup.NewNode(meta)
	assert.NoError(t, n.Stop())
}
