// Package setup manages a system-under-test Zcash node process: writing
// its config file, starting and stopping it, and optionally driving a
// scripted exchange against it via a synthetic peer before handing
// control back to the caller.
package setup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zecharness/ziggurat-go/filter"
	"github.com/zecharness/ziggurat-go/synth"
)

// stopGracePeriod is how long Stop waits after SIGTERM before
// escalating to SIGKILL.
const stopGracePeriod = 5 * time.Second

// initialActionTimeout bounds every RecvMessageTimeout/PingPongTimeout
// call performInitialAction makes.
const initialActionTimeout = 10 * time.Second

// Node represents one instance of a system-under-test: its
// configuration, its metadata (binary location and start command), and
// the running process once started.
type Node struct {
	config NodeConfig
	meta   NodeMetaData
	cmd    *exec.Cmd
}

// NewNode builds a Node from meta, with a default NodeConfig.
func NewNode(meta NodeMetaData) *Node {
	return &Node{config: NewNodeConfig(), meta: meta}
}

// Addr returns the address this Node's config tells the SUT to bind.
func (n *Node) Addr() *net.TCPAddr { return n.config.LocalAddr }

// InitialPeers sets the initial peer addresses written to the SUT's
// config file.
func (n *Node) InitialPeers(peers []net.Addr) *Node {
	n.config.InitialPeers = make(map[string]struct{}, len(peers))
	for _, p := range peers {
		n.config.InitialPeers[p.String()] = struct{}{}
	}
	return n
}

// MaxPeers sets the SUT's maximum peer count.
func (n *Node) MaxPeers(max int) *Node {
	n.config.MaxPeers = max
	return n
}

// LogToStdout sets whether the SUT's stdout/stderr are inherited by
// this process (true) or discarded (false, the default).
func (n *Node) LogToStdout(v bool) *Node {
	n.config.LogToStdout = v
	return n
}

// InitialAction sets what Start does once the SUT process is spawned.
func (n *Node) InitialAction(a Action) *Node {
	n.config.InitialAction = a
	return n
}

// Start cleans up any leftover state from a prior run, optionally builds
// a synthetic peer to register as an initial peer and drive the
// configured Action, writes the SUT's config file, and spawns the SUT
// process.
func (n *Node) Start(ctx context.Context) error {
	if err := n.cleanup(); err != nil {
		return fmt.Errorf("setup: cleanup before start: %w", err)
	}

	if n.config.LocalAddr == nil {
		addr, err := freeLoopbackAddr()
		if err != nil {
			return fmt.Errorf("setup: choosing local addr: %w", err)
		}
		n.config.LocalAddr = addr
	}

	var helper *synth.Node
	needsHelper := false
	switch n.config.InitialAction.(type) {
	case actionWaitForConnection, ActionSeedWithTestnetBlocks:
		needsHelper = true
	}

	if needsHelper {
		policy := filter.New().
			WithAllAutoReply().
			WithGetHeadersFilter(filter.Disabled).
			WithGetDataFilter(filter.Disabled)

		node, err := synth.NewBuilder().
			WithFullHandshake().
			WithMessageFilter(policy).
			Build(ctx)
		if err != nil {
			return fmt.Errorf("setup: building synthetic peer: %w", err)
		}
		helper = node

		if n.config.InitialPeers == nil {
			n.config.InitialPeers = make(map[string]struct{})
		}
		n.config.InitialPeers[helper.ListeningAddr().String()] = struct{}{}
	}

	if err := generateConfigFile(n.meta, n.config); err != nil {
		if helper != nil {
			helper.ShutDown()
		}
		return fmt.Errorf("setup: writing config file: %w", err)
	}

	cmd := exec.CommandContext(ctx, n.meta.StartCommand, n.meta.StartArgs...)
	cmd.Dir = n.meta.Path
	cmd.Stdin = nil
	if n.config.LogToStdout {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		if helper != nil {
			helper.ShutDown()
		}
		return fmt.Errorf("setup: starting node process: %w", err)
	}
	n.cmd = cmd

	if helper != nil {
		if err := n.performInitialAction(helper); err != nil {
			return fmt.Errorf("setup: initial action: %w", err)
		}
	}

	return nil
}

// Stop terminates the SUT process (SIGTERM, then SIGKILL after
// stopGracePeriod), reaps it, and cleans up the config file and cache
// directory. It returns ErrSubprocessCrashed if the process had already
// exited (whether with a non-zero or an unexpected zero code) before
// Stop was called.
//
// Go has no destructors, so unlike the reference implementation's Drop
// impl, callers MUST call Stop explicitly (e.g. via defer) — this is
// documented as an intentional deviation, not an oversight.
func (n *Node) Stop() error {
	if n.cmd == nil || n.cmd.Process == nil {
		return n.cleanup()
	}
	pid := n.cmd.Process.Pid

	var crashErr error
	exited, exitCode, err := probeExited(pid)
	if err != nil {
		return fmt.Errorf("setup: probing node process: %w", err)
	}
	if exited {
		// The process was gone before we asked it to stop — crashed,
		// whether its exit code was zero or not.
		crashErr = ErrSubprocessCrashed{ExitCode: exitCode}
	} else if err := terminateGracefully(pid); err != nil {
		log.Warnf("setup: terminating node process: %v", err)
	}

	if err := n.cleanup(); err != nil {
		return err
	}

	return crashErr
}

// probeExited performs a non-blocking check of whether pid has already
// exited, the Go equivalent of the reference implementation's
// try_wait().
func probeExited(pid int) (exited bool, exitCode int, err error) {
	var status unix.WaitStatus
	wpid, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
	if err != nil {
		return false, 0, err
	}
	if wpid == 0 {
		return false, 0, nil
	}
	return true, status.ExitStatus(), nil
}

// terminateGracefully sends SIGTERM and waits up to stopGracePeriod for
// the process to exit on its own, escalating to SIGKILL if it doesn't.
// It reaps pid itself via a blocking wait4, so callers must not also
// call (*exec.Cmd).Wait on the same process.
func terminateGracefully(pid int) error {
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("sigterm: %w", err)
	}

	reaped := make(chan struct{})
	go func() {
		var status unix.WaitStatus
		_, _ = unix.Wait4(pid, &status, 0, nil)
		close(reaped)
	}()

	select {
	case <-reaped:
		return nil
	case <-time.After(stopGracePeriod):
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("sigkill: %w", err)
	}
	<-reaped
	return nil
}

func (n *Node) cleanup() error {
	if err := n.cleanupConfigFile(); err != nil {
		return err
	}
	return n.cleanupCache()
}

func (n *Node) cleanupConfigFile() error {
	err := os.Remove(n.meta.configFilepath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (n *Node) cleanupCache() error {
	// Zebra runs in ephemeral mode and has no cache directory to clean.
	if n.meta.Kind != Zcashd {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	err = os.RemoveAll(home + "/.zcash/testnet3")
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// freeLoopbackAddr binds an ephemeral loopback TCP port, closes it
// immediately, and returns the address — a common trick for reserving a
// port number the SUT will bind a moment later.
func freeLoopbackAddr() (*net.TCPAddr, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr), nil
}
