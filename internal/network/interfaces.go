// Package network provides network interface filtering and management.
package network

import (
	"net"
)

// DefaultInterfaces returns network interfaces suitable for mDNS multicast,
// excluding VPN interfaces, Docker interfaces, loopback, and down interfaces.
//
// This is the default interface set used when a responder or querier is
// not configured with an explicit interface; callers that want every
// interface, or a custom selection, should enumerate net.Interfaces()
// themselves.
func DefaultInterfaces() ([]net.Interface, error) {
	allIfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	filtered := make([]net.Interface, 0, len(allIfaces))
	for _, iface := range allIfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isVPN(iface.Name) {
			continue
		}
		if isDocker(iface.Name) {
			continue
		}

		filtered = append(filtered, iface)
	}

	return filtered, nil
}

// isVPN returns true if the interface name matches known VPN naming patterns.
//
// Recognized patterns:
//   - utun*      - macOS system VPNs, Tunnelblick, OpenVPN
//   - tun*       - Linux OpenVPN, generic TUN devices
//   - ppp*       - PPTP, L2TP tunnels
//   - wg*        - WireGuard (standard naming)
//   - tailscale* - Tailscale VPN
//   - wireguard* - WireGuard (alternative naming)
func isVPN(name string) bool {
	vpnPrefixes := []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"}
	for _, prefix := range vpnPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// isDocker returns true if the interface name matches Docker interface patterns.
//
// Recognized patterns:
//   - docker0  - Default Docker bridge (exact match)
//   - veth*    - Virtual ethernet pairs (container connections)
//   - br-*     - Custom Docker bridge networks
func isDocker(name string) bool {
	// Exact match: docker0
	if name == "docker0" {
		return true
	}

	// Prefix matches
	dockerPrefixes := []string{"veth", "br-"}
	for _, prefix := range dockerPrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}

	return false
}
