// Package network lists the addresses a local server can be reached on, so
// a tablet on the lighting network can open the palette.
package network

import (
	"fmt"
	"net"
	"strings"
)

// Address is one URL the server is reachable at.
type Address struct {
	Interface     string
	IP            string
	InterfaceType string // "ethernet", "wifi", "other", "localhost"
	URL           string
}

// GetInterfaceType guesses the type of a network interface from its name.
func GetInterfaceType(ifaceName string) string {
	name := strings.ToLower(ifaceName)

	// en0 is typically WiFi on macOS
	if name == "en0" {
		return "wifi"
	}

	// Common WiFi naming patterns
	if strings.HasPrefix(name, "wlan") ||
		strings.HasPrefix(name, "wl") ||
		strings.Contains(name, "wifi") ||
		strings.Contains(name, "wireless") {
		return "wifi"
	}

	// Common ethernet naming patterns
	if strings.HasPrefix(name, "eth") ||
		strings.HasPrefix(name, "en") {
		return "ethernet"
	}

	return "other"
}

// iface is the part of net.Interface the address listing needs.
type iface struct {
	name  string
	flags net.Flags
	addrs []net.Addr
}

// ListenAddresses returns the IPv4 URLs for port on every interface that is
// up, ordered ethernet, wifi, other, with localhost last.
func ListenAddresses(port string) ([]Address, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	list := make([]iface, 0, len(interfaces))
	for _, i := range interfaces {
		addrs, err := i.Addrs()
		if err != nil {
			continue
		}
		list = append(list, iface{name: i.Name, flags: i.Flags, addrs: addrs})
	}
	return listenAddresses(list, port), nil
}

func listenAddresses(interfaces []iface, port string) []Address {
	var ethernet, wifi, other []Address

	for _, i := range interfaces {
		// Skip down interfaces and loopback
		if i.flags&net.FlagUp == 0 || i.flags&net.FlagLoopback != 0 {
			continue
		}

		for _, addr := range i.addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			// Only IPv4
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLinkLocalUnicast() {
				continue
			}

			a := Address{
				Interface:     i.name,
				IP:            ip4.String(),
				InterfaceType: GetInterfaceType(i.name),
				URL:           fmt.Sprintf("http://%s:%s", ip4, port),
			}
			switch a.InterfaceType {
			case "ethernet":
				ethernet = append(ethernet, a)
			case "wifi":
				wifi = append(wifi, a)
			default:
				other = append(other, a)
			}
		}
	}

	out := make([]Address, 0, len(ethernet)+len(wifi)+len(other)+1)
	out = append(out, ethernet...)
	out = append(out, wifi...)
	out = append(out, other...)
	return append(out, Address{
		Interface:     "lo",
		IP:            "127.0.0.1",
		InterfaceType: "localhost",
		URL:           "http://localhost:" + port,
	})
}
