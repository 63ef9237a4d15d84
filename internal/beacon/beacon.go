// Package beacon implements LAN peer announcement over UDP broadcast or
// multicast. A Beacon periodically transmits an opaque payload to the local
// segment and delivers matching payloads received from other nodes, without
// any directory server.
package beacon

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

const (
	// BeaconMax is the maximum size of a beacon payload in bytes.
	BeaconMax = 255

	// DefaultInterval is the default delay between beacon transmissions.
	DefaultInterval = 1000 * time.Millisecond
)

// ErrNoInterface is returned by Start when no non-loopback IPv4 interface
// could be resolved.
var ErrNoInterface = errors.New("no usable broadcast interface found")

const (
	commandBacklog = 16
	signalBacklog  = 64
)

// Beacon is the caller-facing handle. Its methods translate into commands for
// the background agent, which owns the UDP socket and all transmit state.
type Beacon struct {
	log      zerolog.Logger
	announce net.IP
	cmds     chan command
	signals  chan Signal
	hostname string
	started  bool
}

// New returns an unstarted Beacon announcing to the limited broadcast address.
func New(log zerolog.Logger) *Beacon {
	return &Beacon{
		log:      log,
		announce: net.IPv4bcast,
		cmds:     make(chan command, commandBacklog),
		signals:  make(chan Signal, signalBacklog),
	}
}

// SetAnnounceTarget overrides the announce address, typically with a
// multicast group. Must be called before Start.
func (b *Beacon) SetAnnounceTarget(addr string) error {
	if b.started {
		return fmt.Errorf("announce target cannot change after start")
	}
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("invalid announce target %q: not an IPv4 address", addr)
	}
	b.announce = ip.To4()
	return nil
}

// Start launches the agent on the given UDP port and blocks until it reports
// its resolved local address. ErrNoInterface means no interface qualified.
func (b *Beacon) Start(port int) error {
	a := newAgent(port, b.announce, b.cmds, b.signals, b.log)

	ready := make(chan startup, 1)
	go a.run(ready)

	st := <-ready
	if st.err != nil {
		return st.err
	}
	b.hostname = st.addr
	b.started = true
	return nil
}

// SetInterval changes the transmit interval. It applies from the next
// scheduling decision; an already-scheduled send is not moved.
func (b *Beacon) SetInterval(interval time.Duration) {
	b.cmds <- command{kind: cmdInterval, interval: interval}
}

// NoEcho discards received beacons that are byte-identical to our own active
// payload. There is no way to switch it off again.
func (b *Beacon) NoEcho() {
	b.cmds <- command{kind: cmdNoEcho}
}

// Publish starts transmitting the given payload, the first send happening
// immediately. An empty payload transmits nothing. Payloads over BeaconMax
// bytes are dropped, not truncated.
func (b *Beacon) Publish(transmit []byte) {
	if len(transmit) > BeaconMax {
		b.log.Warn().Int("size", len(transmit)).Msg("Beacon payload too big, not published")
		return
	}
	b.cmds <- command{kind: cmdPublish, payload: transmit}
}

// Silence stops transmitting until the next Publish.
func (b *Beacon) Silence() {
	b.cmds <- command{kind: cmdSilence}
}

// Subscribe installs a prefix filter on received beacons. A zero-length
// filter accepts everything. Filters over BeaconMax bytes are dropped.
func (b *Beacon) Subscribe(filter []byte) {
	if len(filter) > BeaconMax {
		b.log.Warn().Int("size", len(filter)).Msg("Beacon filter too big, not subscribed")
		return
	}
	b.cmds <- command{kind: cmdSubscribe, payload: filter}
}

// Unsubscribe removes the filter, restoring accept-all behaviour.
func (b *Beacon) Unsubscribe() {
	b.cmds <- command{kind: cmdUnsubscribe}
}

// Hostname returns the local address the agent reported at startup.
func (b *Beacon) Hostname() string {
	return b.hostname
}

// Signals returns the channel carrying beacons received from other nodes.
// The channel is closed when the agent terminates.
func (b *Beacon) Signals() <-chan Signal {
	return b.signals
}

// Stop terminates the agent and blocks until it has closed its socket,
// discarding any signals still in flight. Stopping a beacon that was never
// started is a no-op.
func (b *Beacon) Stop() {
	if !b.started {
		return
	}
	b.cmds <- command{kind: cmdTerminate}
	for range b.signals {
	}
}
