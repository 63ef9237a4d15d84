package beacon

import (
	"bytes"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
)

const rxBacklog = 64

// datagram is one received UDP packet, handed from the socket reader to the
// event loop.
type datagram struct {
	data []byte
	src  *net.UDPAddr
}

// agent owns the UDP socket and all beacon state. Every field is touched only
// from the run goroutine; the socket reader just forwards datagrams.
type agent struct {
	port     int
	announce net.IP
	binding  *interfaceBinding
	conn     *net.UDPConn

	cmds    <-chan command
	signals chan<- Signal
	rx      chan datagram
	done    chan struct{}

	interval   time.Duration
	transmit   []byte
	filter     []byte
	noecho     bool
	terminated bool
	pingAt     time.Time

	log zerolog.Logger
}

func newAgent(port int, announce net.IP, cmds <-chan command, signals chan<- Signal, log zerolog.Logger) *agent {
	return &agent{
		port:     port,
		announce: announce,
		cmds:     cmds,
		signals:  signals,
		rx:       make(chan datagram, rxBacklog),
		done:     make(chan struct{}),
		interval: DefaultInterval,
		log:      log,
	}
}

// run resolves the network interface, configures the UDP socket and executes
// the event loop. The startup report carries the resolved local address, or
// the error that kept the agent from starting. Closing the signals channel is
// the termination acknowledgment and happens only after the socket is closed.
func (a *agent) run(ready chan<- startup) {
	defer close(a.signals)

	binding, err := resolveInterface(a.log)
	if err != nil {
		ready <- startup{err: err}
		return
	}
	a.binding = binding

	// Broadcast beacons always target the subnet broadcast address; the
	// limited broadcast default only signals that we are not multicasting.
	if !a.announce.IsMulticast() {
		a.announce = binding.Broadcast
	}

	if err := a.initSocket(); err != nil {
		ready <- startup{err: err}
		return
	}

	ready <- startup{addr: binding.Addr.String()}

	go a.readLoop(a.conn)
	a.loop()

	a.conn.Close()
	close(a.done)
}

// loop multiplexes the command channel, inbound datagrams and the transmit
// timer. The timer is armed only while a non-empty payload is set; otherwise
// the loop waits indefinitely. One command is processed per iteration.
func (a *agent) loop() {
	for {
		var timer *time.Timer
		var timerC <-chan time.Time
		if len(a.transmit) > 0 {
			wait := time.Until(a.pingAt)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case cmd := <-a.cmds:
			a.handleCommand(cmd)
		case dg := <-a.rx:
			a.handleDatagram(dg)
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}

		if len(a.transmit) > 0 && !time.Now().Before(a.pingAt) {
			a.send()
			a.pingAt = time.Now().Add(a.interval)
		}

		if a.terminated {
			return
		}
	}
}

func (a *agent) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdInterval:
		a.interval = cmd.interval
	case cmdNoEcho:
		a.noecho = true
	case cmdPublish:
		a.transmit = cmd.payload
		// broadcast immediately
		a.pingAt = time.Now()
	case cmdSilence:
		a.transmit = nil
	case cmdSubscribe:
		a.filter = cmd.payload
	case cmdUnsubscribe:
		a.filter = nil
	case cmdTerminate:
		a.terminated = true
	default:
		a.log.Warn().Int("command", int(cmd.kind)).Msg("Unexpected beacon command, ignoring")
	}
}

// readLoop moves datagrams from the socket into the rx channel. It exits when
// its socket is closed, which is also how a socket reset retires it.
func (a *agent) readLoop(conn *net.UDPConn) {
	buf := make([]byte, BeaconMax)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			a.log.Warn().Err(err).Msg("Beacon receive failed")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case a.rx <- datagram{data: data, src: src}:
		case <-a.done:
			return
		}
	}
}

// handleDatagram applies the filter and echo checks to one received beacon
// and delivers survivors upstream.
func (a *agent) handleDatagram(dg datagram) {
	if !acceptsFilter(a.filter, dg.data) {
		a.log.Debug().Str("src", dg.src.IP.String()).Msg("Beacon does not match filter, discarding")
		return
	}
	if a.noecho && len(a.transmit) > 0 && bytes.Equal(a.transmit, dg.data) {
		return
	}
	a.signals <- Signal{Addr: dg.src.IP.String(), Transmit: dg.data}
}

// acceptsFilter reports whether data passes the subscription filter. An empty
// filter accepts everything; otherwise data must start with the filter bytes.
func acceptsFilter(filter, data []byte) bool {
	if len(filter) == 0 {
		return true
	}
	return len(data) >= len(filter) && bytes.Equal(data[:len(filter)], filter)
}

// send transmits the active payload to the announce target. A failed send
// reinitialises the socket and retries once; a second failure is logged and
// the loop carries on until the next scheduled attempt.
func (a *agent) send() {
	dst := &net.UDPAddr{IP: a.announce, Port: a.port}

	_, err := a.conn.WriteToUDP(a.transmit, dst)
	if err == nil {
		return
	}
	a.log.Warn().Err(err).Str("target", dst.String()).Msg("Beacon send failed, reinitialising socket")

	if err := a.resetSocket(); err != nil {
		a.log.Error().Err(err).Msg("Socket reinitialisation failed")
		return
	}
	if _, err := a.conn.WriteToUDP(a.transmit, dst); err != nil {
		a.log.Error().Err(err).Str("target", dst.String()).Msg("Beacon send failed after socket reset")
	}
}

func (a *agent) resetSocket() error {
	// Closing the old socket also retires its reader.
	a.conn.Close()
	if err := a.initSocket(); err != nil {
		return err
	}
	go a.readLoop(a.conn)
	return nil
}
