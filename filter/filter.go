// Package filter classifies inbound protocol messages arriving on an
// established connection into one of three dispositions: answered
// automatically, handed to the test, or silently discarded. It never
// touches version/verack, which belong exclusively to the handshake
// state machine.
package filter

import (
	"fmt"

	"github.com/zecharness/ziggurat-go/wire"
)

// Action is what a synthetic peer does with an inbound message once the
// handshake is established.
type Action int

const (
	// AutoReply answers the message inline with a canned response (or,
	// for ping, the matching pong) without surfacing it to the test.
	AutoReply Action = iota
	// Disabled forwards the message to the test via the peer's inbound
	// channel; no canned reply is sent.
	Disabled
	// Drop silently discards the message.
	Drop
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case AutoReply:
		return "auto-reply"
	case Disabled:
		return "disabled"
	case Drop:
		return "drop"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// filterableCommands lists every command a Policy may classify. version
// and verack are deliberately excluded: the handshake state machine
// owns them, never the filter.
var filterableCommands = map[string]bool{
	wire.CmdPing:       true,
	wire.CmdPong:       true,
	wire.CmdGetAddr:    true,
	wire.CmdAddr:       true,
	wire.CmdGetHeaders: true,
	wire.CmdHeaders:    true,
	wire.CmdGetBlocks:  true,
	wire.CmdInv:        true,
	wire.CmdGetData:    true,
	wire.CmdBlock:      true,
	wire.CmdTx:         true,
	wire.CmdMemPool:    true,
	wire.CmdNotFound:   true,
	wire.CmdReject:     true,
}

// Policy maps a command string to the Action a synthetic peer takes for
// it once the connection is established. The zero value is not usable;
// build one with New.
type Policy struct {
	actions map[string]Action
}

// New returns a Policy with every filterable command set to AutoReply,
// the default a freshly built synthetic peer starts with.
func New() Policy {
	p := Policy{actions: make(map[string]Action, len(filterableCommands))}
	for cmd := range filterableCommands {
		p.actions[cmd] = AutoReply
	}
	return p
}

// Classify returns the Action configured for cmd. Commands the policy
// does not know about (including version/verack) classify as Drop.
func (p Policy) Classify(cmd string) Action {
	if p.actions == nil {
		return Drop
	}
	a, ok := p.actions[cmd]
	if !ok {
		return Drop
	}
	return a
}

// with returns a copy of p with cmd set to action, rejecting attempts to
// filter the handshake-owned commands.
func (p Policy) with(cmd string, action Action) (Policy, error) {
	if cmd == wire.CmdVersion || cmd == wire.CmdVerack {
		return p, fmt.Errorf("filter: %s is owned by the handshake state machine, not a Policy", cmd)
	}
	if !filterableCommands[cmd] {
		return p, fmt.Errorf("filter: unknown command %q", cmd)
	}

	next := Policy{actions: make(map[string]Action, len(p.actions))}
	for k, v := range p.actions {
		next.actions[k] = v
	}
	next.actions[cmd] = action
	return next, nil
}

// WithAllAutoReply returns a copy of p with every command set to
// AutoReply.
func (p Policy) WithAllAutoReply() Policy {
	next := Policy{actions: make(map[string]Action, len(p.actions))}
	for cmd := range p.actions {
		next.actions[cmd] = AutoReply
	}
	return next
}

// WithAllDisabled returns a copy of p with every command set to
// Disabled, forwarding everything to the test.
func (p Policy) WithAllDisabled() Policy {
	next := Policy{actions: make(map[string]Action, len(p.actions))}
	for cmd := range p.actions {
		next.actions[cmd] = Disabled
	}
	return next
}

// The WithXxxFilter family below each set exactly one command's Action,
// returning an error only if cmd names version/verack or something this
// Policy doesn't classify. They panic on that error since the command
// name is a compile-time constant under our control everywhere they are
// called in this tree; callers wiring arbitrary strings should use
// WithCommandFilter instead.

func must(p Policy, err error) Policy {
	if err != nil {
		panic(err)
	}
	return p
}

// WithCommandFilter sets the Action for an arbitrary command string,
// returning an error instead of panicking.
func (p Policy) WithCommandFilter(cmd string, action Action) (Policy, error) {
	return p.with(cmd, action)
}

func (p Policy) WithPingFilter(a Action) Policy       { return must(p.with(wire.CmdPing, a)) }
func (p Policy) WithPongFilter(a Action) Policy       { return must(p.with(wire.CmdPong, a)) }
func (p Policy) WithGetAddrFilter(a Action) Policy    { return must(p.with(wire.CmdGetAddr, a)) }
func (p Policy) WithAddrFilter(a Action) Policy       { return must(p.with(wire.CmdAddr, a)) }
func (p Policy) WithGetHeadersFilter(a Action) Policy { return must(p.with(wire.CmdGetHeaders, a)) }
func (p Policy) WithHeadersFilter(a Action) Policy    { return must(p.with(wire.CmdHeaders, a)) }
func (p Policy) WithGetBlocksFilter(a Action) Policy  { return must(p.with(wire.CmdGetBlocks, a)) }
func (p Policy) WithInvFilter(a Action) Policy        { return must(p.with(wire.CmdInv, a)) }
func (p Policy) WithGetDataFilter(a Action) Policy    { return must(p.with(wire.CmdGetData, a)) }
func (p Policy) WithBlockFilter(a Action) Policy      { return must(p.with(wire.CmdBlock, a)) }
func (p Policy) WithTxFilter(a Action) Policy         { return must(p.with(wire.CmdTx, a)) }
func (p Policy) WithMemPoolFilter(a Action) Policy    { return must(p.with(wire.CmdMemPool, a)) }
func (p Policy) WithNotFoundFilter(a Action) Policy   { return must(p.with(wire.CmdNotFound, a)) }
func (p Policy) WithRejectFilter(a Action) Policy     { return must(p.with(wire.CmdReject, a)) }
