package network

import (
	"net"
	"testing"
)

func ipNet(cidr string) net.Addr {
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestGetInterfaceType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"en0", "wifi"},
		{"en1", "ethernet"},
		{"eth0", "ethernet"},
		{"enp3s0", "ethernet"},
		{"wlan0", "wifi"},
		{"wlp2s0", "wifi"},
		{"docker0", "other"},
		{"utun3", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetInterfaceType(tt.name); got != tt.want {
				t.Errorf("GetInterfaceType(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestListenAddresses_OrderAndFiltering(t *testing.T) {
	up := net.FlagUp | net.FlagBroadcast
	interfaces := []iface{
		{name: "docker0", flags: up, addrs: []net.Addr{ipNet("172.17.0.1/16")}},
		{name: "wlan0", flags: up, addrs: []net.Addr{ipNet("192.168.1.20/24"), ipNet("fe80::1/64")}},
		{name: "eth0", flags: up, addrs: []net.Addr{ipNet("10.0.0.5/8")}},
		{name: "eth1", flags: net.FlagBroadcast, addrs: []net.Addr{ipNet("10.1.0.5/8")}},
		{name: "lo", flags: up | net.FlagLoopback, addrs: []net.Addr{ipNet("127.0.0.1/8")}},
		{name: "eth2", flags: up, addrs: []net.Addr{ipNet("169.254.3.4/16")}},
	}

	got := listenAddresses(interfaces, "4000")

	want := []string{
		"http://10.0.0.5:4000",
		"http://192.168.1.20:4000",
		"http://172.17.0.1:4000",
		"http://localhost:4000",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d addresses %+v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].URL != w {
			t.Errorf("address %d = %s, want %s", i, got[i].URL, w)
		}
	}
	if got[0].Interface != "eth0" || got[0].InterfaceType != "ethernet" {
		t.Errorf("first address = %+v, want eth0 ethernet", got[0])
	}
}

func TestListenAddresses_OnlyLocalhost(t *testing.T) {
	got := listenAddresses(nil, "8080")
	if len(got) != 1 {
		t.Fatalf("expected only localhost, got %+v", got)
	}
	if got[0].InterfaceType != "localhost" || got[0].URL != "http://localhost:8080" {
		t.Errorf("unexpected localhost entry %+v", got[0])
	}
}

func TestListenAddresses_System(t *testing.T) {
	got, err := ListenAddresses("4000")
	if err != nil {
		t.Fatalf("ListenAddresses() error: %v", err)
	}
	if len(got) == 0 || got[len(got)-1].InterfaceType != "localhost" {
		t.Errorf("expected localhost as the final address, got %+v", got)
	}
}
