package beacon

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// interfaceBinding is the network context resolved once at agent startup.
type interfaceBinding struct {
	Name      string
	Addr      net.IP
	Network   net.IP
	Broadcast net.IP
}

// resolveInterface picks the first non-loopback interface carrying an IPv4
// address with a netmask. There is no preference ordering among qualifying
// interfaces; enumeration order wins.
func resolveInterface(log zerolog.Logger) (*interfaceBinding, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("enumerating interfaces: %w", err)
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			log.Debug().Err(err).Str("interface", iface.Name).Msg("Failed to read addresses, skipping")
			continue
		}

		ipnet := firstIPv4(addrs)
		if ipnet == nil {
			log.Debug().Str("interface", iface.Name).Msg("No IPv4 address, skipping")
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			log.Debug().Str("interface", iface.Name).Msg("Loopback device, skipping")
			continue
		}

		binding := bindingFromIPNet(iface.Name, ipnet)
		log.Debug().
			Str("interface", binding.Name).
			Str("address", binding.Addr.String()).
			Str("network", binding.Network.String()).
			Str("broadcast", binding.Broadcast.String()).
			Msg("Interface selected")
		return binding, nil
	}

	return nil, ErrNoInterface
}

// firstIPv4 returns the first interface address carrying both an IPv4 address
// and a netmask.
func firstIPv4(addrs []net.Addr) *net.IPNet {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.Mask == nil {
			continue
		}
		if ipnet.IP.To4() == nil {
			continue
		}
		return ipnet
	}
	return nil
}

// bindingFromIPNet derives the network and broadcast addresses from an
// address+netmask pair.
func bindingFromIPNet(name string, n *net.IPNet) *interfaceBinding {
	ip := n.IP.To4()

	mask := n.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}

	network := ip.Mask(mask)
	broadcast := make(net.IP, len(ip))
	for i := range ip {
		broadcast[i] = ip[i] | ^mask[i]
	}

	return &interfaceBinding{
		Name:      name,
		Addr:      ip,
		Network:   network,
		Broadcast: broadcast,
	}
}
