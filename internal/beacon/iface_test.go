package beacon

import (
	"net"
	"testing"
)

func TestBindingFromIPNet_Slash24(t *testing.T) {
	_, ipnet, err := net.ParseCIDR("192.168.1.100/24")
	if err != nil {
		t.Fatalf("parse CIDR: %v", err)
	}
	ipnet.IP = net.ParseIP("192.168.1.100")

	b := bindingFromIPNet("eth0", ipnet)

	if b.Name != "eth0" {
		t.Errorf("Name: got %s, want eth0", b.Name)
	}
	if got := b.Addr.String(); got != "192.168.1.100" {
		t.Errorf("Addr: got %s, want 192.168.1.100", got)
	}
	if got := b.Network.String(); got != "192.168.1.0" {
		t.Errorf("Network: got %s, want 192.168.1.0", got)
	}
	if got := b.Broadcast.String(); got != "192.168.1.255" {
		t.Errorf("Broadcast: got %s, want 192.168.1.255", got)
	}
}

func TestBindingFromIPNet_Slash23(t *testing.T) {
	_, ipnet, err := net.ParseCIDR("10.51.240.17/23")
	if err != nil {
		t.Fatalf("parse CIDR: %v", err)
	}
	ipnet.IP = net.ParseIP("10.51.240.17")

	b := bindingFromIPNet("wlan0", ipnet)

	if got := b.Network.String(); got != "10.51.240.0" {
		t.Errorf("Network: got %s, want 10.51.240.0", got)
	}
	if got := b.Broadcast.String(); got != "10.51.241.255" {
		t.Errorf("Broadcast: got %s, want 10.51.241.255", got)
	}
}

func TestBindingFromIPNet_WideMask(t *testing.T) {
	// Interface addresses sometimes carry a 16-byte mask for an IPv4 address.
	ipnet := &net.IPNet{
		IP:   net.ParseIP("172.16.4.2"),
		Mask: net.CIDRMask(112+4, 128),
	}

	b := bindingFromIPNet("en1", ipnet)

	if got := b.Broadcast.String(); got != "172.16.15.255" {
		t.Errorf("Broadcast: got %s, want 172.16.15.255", got)
	}
}

func TestFirstIPv4(t *testing.T) {
	v6 := &net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)}
	v4 := &net.IPNet{IP: net.ParseIP("192.168.0.5"), Mask: net.CIDRMask(24, 32)}

	got := firstIPv4([]net.Addr{v6, v4})
	if got != v4 {
		t.Fatalf("expected the IPv4 address to be selected, got %v", got)
	}
}

func TestFirstIPv4_NoneFound(t *testing.T) {
	v6 := &net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)}

	if got := firstIPv4([]net.Addr{v6}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
