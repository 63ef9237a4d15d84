package beacon

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"syscall"

	"golang.org/x/net/ipv4"
)

const multicastTTL = 2

// initSocket creates and configures the UDP socket for the announce target,
// replacing a.conn.
func (a *agent) initSocket() error {
	if a.announce.IsMulticast() {
		return a.initMulticast()
	}
	return a.initBroadcast()
}

func (a *agent) initMulticast() error {
	lc := net.ListenConfig{Control: reuseControl}

	laddr := net.JoinHostPort(a.binding.Addr.String(), strconv.Itoa(a.port))
	pc, err := lc.ListenPacket(context.Background(), "udp4", laddr)
	if err != nil {
		return fmt.Errorf("binding multicast socket to %s: %w", laddr, err)
	}
	conn := pc.(*net.UDPConn)

	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(multicastTTL); err != nil {
		a.log.Warn().Err(err).Msg("Failed to set multicast TTL")
	}
	// Loopback stays on so receivers on the same host see our beacons.
	if err := p.SetMulticastLoopback(true); err != nil {
		a.log.Warn().Err(err).Msg("Failed to enable multicast loopback")
	}
	// nil interface: the kernel chooses, i.e. a wildcard membership.
	if err := p.JoinGroup(nil, &net.UDPAddr{IP: a.announce}); err != nil {
		conn.Close()
		return fmt.Errorf("joining multicast group %s: %w", a.announce, err)
	}

	a.conn = conn
	a.log.Debug().
		Str("group", a.announce.String()).
		Int("port", a.port).
		Str("interface", a.binding.Name).
		Msg("Multicast beacon socket ready")
	return nil
}

func (a *agent) initBroadcast() error {
	var laddr string
	switch bindStrategyFor(runtime.GOOS) {
	case bindBroadcast:
		laddr = net.JoinHostPort(a.binding.Broadcast.String(), strconv.Itoa(a.port))
	default:
		laddr = net.JoinHostPort("0.0.0.0", strconv.Itoa(a.port))
	}

	lc := net.ListenConfig{Control: broadcastControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", laddr)
	if err != nil {
		return fmt.Errorf("binding broadcast socket to %s: %w", laddr, err)
	}

	a.conn = pc.(*net.UDPConn)
	a.log.Debug().
		Str("target", a.announce.String()).
		Str("bind", laddr).
		Str("interface", a.binding.Name).
		Msg("Broadcast beacon socket ready")
	return nil
}

// reuseControl enables address reuse before bind. Port reuse is best-effort
// since not every platform supports it.
func reuseControl(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = setReuse(fd)
	}); err != nil {
		return err
	}
	return serr
}

// broadcastControl enables address reuse and broadcast sends before bind.
func broadcastControl(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		if serr = setReuse(fd); serr != nil {
			return
		}
		serr = setBroadcast(fd)
	}); err != nil {
		return err
	}
	return serr
}
