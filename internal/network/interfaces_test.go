package network

import (
	"net"
	"testing"
)

// TestDefaultInterfaces_ExcludesVPN verifies VPN interfaces are excluded by default.
func TestDefaultInterfaces_ExcludesVPN(t *testing.T) {
	
	// Get actual system interfaces
	ifaces, err := DefaultInterfaces()
	if err != nil {
		t.Fatalf("DefaultInterfaces() returned error: %v", err)
	}

	// Verify NO VPN interfaces in result
	vpnPatterns := []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"}
	for _, iface := range ifaces {
		for _, pattern := range vpnPatterns {
			if len(iface.Name) >= len(pattern) && iface.Name[:len(pattern)] == pattern {
				t.Errorf("DefaultInterfaces() included VPN interface %q (pattern: %s)", iface.Name, pattern)
			}
		}
	}
}

// TestDefaultInterfaces_ExcludesDocker verifies Docker interfaces are excluded by default.
func TestDefaultInterfaces_ExcludesDocker(t *testing.T) {
	
	// Get actual system interfaces
	ifaces, err := DefaultInterfaces()
	if err != nil {
		t.Fatalf("DefaultInterfaces() returned error: %v", err)
	}

	// Verify NO Docker interfaces in result
	for _, iface := range ifaces {
		// Check exact match: docker0
		if iface.Name == "docker0" {
			t.Errorf("DefaultInterfaces() included Docker interface %q", iface.Name)
		}

		// Check prefix: veth*
		if len(iface.Name) >= 4 && iface.Name[:4] == "veth" {
			t.Errorf("DefaultInterfaces() included Docker veth interface %q", iface.Name)
		}

		// Check prefix: br-*
		if len(iface.Name) >= 3 && iface.Name[:3] == "br-" {
			t.Errorf("DefaultInterfaces() included Docker bridge interface %q", iface.Name)
		}
	}
}

// TestDefaultInterfaces_ExcludesLoopback verifies loopback is excluded.
func TestDefaultInterfaces_ExcludesLoopback(t *testing.T) {
	
	// Get actual system interfaces
	ifaces, err := DefaultInterfaces()
	if err != nil {
		t.Fatalf("DefaultInterfaces() returned error: %v", err)
	}

	// Verify NO loopback interfaces in result
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			t.Errorf("DefaultInterfaces() included loopback interface %q", iface.Name)
		}
	}
}

// TestDefaultInterfaces_RequiresUpAndMulticast verifies only UP+MULTICAST interfaces are included.
func TestDefaultInterfaces_RequiresUpAndMulticast(t *testing.T) {
	
	// Get actual system interfaces
	ifaces, err := DefaultInterfaces()
	if err != nil {
		t.Fatalf("DefaultInterfaces() returned error: %v", err)
	}

	// Verify ALL interfaces in result have UP+MULTICAST flags
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			t.Errorf("DefaultInterfaces() included DOWN interface %q (flags: %v)", iface.Name, iface.Flags)
		}

		if iface.Flags&net.FlagMulticast == 0 {
			t.Errorf("DefaultInterfaces() included non-MULTICAST interface %q (flags: %v)", iface.Name, iface.Flags)
		}
	}
}

// TestIsVPN verifies VPN pattern detection.
func TestIsVPN(t *testing.T) {
	tests := []struct {
		name      string
		ifaceName string
		want      bool
	}{
		{"macOS OpenVPN", "utun0", true},
		{"Linux OpenVPN", "tun0", true},
		{"PPTP", "ppp0", true},
		{"WireGuard", "wg0", true},
		{"Tailscale", "tailscale0", true},
		{"Regular Ethernet", "eth0", false},
		{"WiFi", "wlan0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isVPN(tt.ifaceName)
			if got != tt.want {
				t.Errorf("isVPN(%q) = %v, want %v", tt.ifaceName, got, tt.want)
			}
		})
	}
}

// TestIsDocker verifies Docker pattern detection.
func TestIsDocker(t *testing.T) {
	tests := []struct {
		name      string
		ifaceName string
		want      bool
	}{
		{"Docker bridge", "docker0", true},
		{"Virtual ethernet", "veth1a2b3c4", true},
		{"Custom bridge", "br-abc123", true},
		{"Regular Ethernet", "eth0", false},
		{"WiFi", "wlan0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isDocker(tt.ifaceName)
			if got != tt.want {
				t.Errorf("isDocker(%q) = %v, want %v", tt.ifaceName, got, tt.want)
			}
		})
	}
}
