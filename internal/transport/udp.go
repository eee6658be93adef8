package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/network"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// Config describes how to bind a single UDP socket for mDNS use.
type Config struct {
	// Family selects IPv4 or IPv6.
	Family Family

	// BindAddr is the local address to bind. Empty binds the wildcard
	// address for the family ("0.0.0.0" / "[::]").
	BindAddr string

	// Port is the local port. 0 requests an ephemeral port.
	Port int

	// JoinMulticast, if true, joins the family's mDNS group
	// (224.0.0.251 or ff02::fb) on every interface returned by
	// network.DefaultInterfaces (up, multicast-capable, not loopback, VPN
	// or Docker), or on Interface alone when set.
	JoinMulticast bool

	// MulticastHops sets the outgoing multicast TTL (IPv4) or hop limit
	// (IPv6). Zero defaults to protocol.DefaultMulticastHops.
	MulticastHops int

	// Interface, when set, restricts multicast group membership to this
	// interface and selects it as the outgoing multicast interface.
	Interface *net.Interface
}

// UDPTransport is a Transport backed by a single net.PacketConn, wrapped
// in the family-appropriate golang.org/x/net control type for multicast
// group and TTL/hop-limit management.
type UDPTransport struct {
	conn   net.PacketConn
	pconn4 *ipv4.PacketConn
	pconn6 *ipv6.PacketConn
	family Family
}

// NewUDPTransport binds and configures a UDP socket per cfg. Any failure
// after the socket is opened closes it before returning, so callers never
// leak a half-configured descriptor.
func NewUDPTransport(cfg Config) (*UDPTransport, error) {
	lc := net.ListenConfig{Control: PlatformControl}

	addr := net.JoinHostPort(cfg.BindAddr, fmt.Sprintf("%d", cfg.Port))
	conn, err := lc.ListenPacket(context.Background(), cfg.Family.network(), addr)
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "bind socket",
			Err:       err,
			Details:   fmt.Sprintf("%s %s", cfg.Family, addr),
		}
	}

	t := &UDPTransport{conn: conn, family: cfg.Family}

	hops := cfg.MulticastHops
	if hops <= 0 {
		hops = protocol.DefaultMulticastHops
	}

	if cfg.Family == FamilyIPv6 {
		if err := t.configureIPv6(cfg, hops); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return t, nil
	}

	if err := t.configureIPv4(cfg, hops); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *UDPTransport) configureIPv4(cfg Config, hops int) error {
	p := ipv4.NewPacketConn(t.conn)
	t.pconn4 = p

	if cfg.JoinMulticast {
		if err := joinIPv4(p, cfg.Interface); err != nil {
			return err
		}
	}

	if err := p.SetMulticastTTL(hops); err != nil {
		return &errors.NetworkError{Operation: "set multicast TTL", Err: err}
	}
	_ = p.SetMulticastLoopback(true)

	if cfg.Interface != nil {
		if err := p.SetMulticastInterface(cfg.Interface); err != nil {
			return &errors.NetworkError{Operation: "set outgoing multicast interface", Err: err, Details: cfg.Interface.Name}
		}
	}

	return nil
}

func (t *UDPTransport) configureIPv6(cfg Config, hops int) error {
	p := ipv6.NewPacketConn(t.conn)
	t.pconn6 = p

	if cfg.JoinMulticast {
		if err := joinIPv6(p, cfg.Interface); err != nil {
			return err
		}
	}

	if err := p.SetHopLimit(hops); err != nil {
		return &errors.NetworkError{Operation: "set multicast hop limit", Err: err}
	}
	_ = p.SetMulticastLoopback(true)

	if cfg.Interface != nil {
		if err := p.SetMulticastInterface(cfg.Interface); err != nil {
			return &errors.NetworkError{Operation: "set outgoing multicast interface", Err: err, Details: cfg.Interface.Name}
		}
	}

	return nil
}

func joinIPv4(p *ipv4.PacketConn, only *net.Interface) error {
	group := protocol.MulticastGroupIPv4()

	if only != nil {
		if err := p.JoinGroup(only, &net.UDPAddr{IP: group.IP}); err != nil {
			return &errors.NetworkError{Operation: "join multicast group", Err: err, Details: only.Name}
		}
		return nil
	}

	// No interface requested: join on every interface network.DefaultInterfaces
	// considers suitable for mDNS, which excludes VPN (utun/tun/wg/tailscale)
	// and Docker (docker0/veth/br-) interfaces so the group isn't joined on a
	// link that will never see another mDNS peer.
	ifaces, err := network.DefaultInterfaces()
	if err != nil {
		return &errors.NetworkError{Operation: "enumerate interfaces", Err: err}
	}

	joined := 0
	for _, iface := range ifaces {
		ifaceCopy := iface
		if err := p.JoinGroup(&ifaceCopy, &net.UDPAddr{IP: group.IP}); err == nil {
			joined++
		}
	}
	if joined == 0 {
		return &errors.NetworkError{Operation: "join multicast group", Details: "no interfaces joined 224.0.0.251"}
	}
	return nil
}

func joinIPv6(p *ipv6.PacketConn, only *net.Interface) error {
	group := protocol.MulticastGroupIPv6()

	if only != nil {
		if err := p.JoinGroup(only, &net.UDPAddr{IP: group.IP}); err != nil {
			return &errors.NetworkError{Operation: "join multicast group", Err: err, Details: only.Name}
		}
		return nil
	}

	ifaces, err := network.DefaultInterfaces()
	if err != nil {
		return &errors.NetworkError{Operation: "enumerate interfaces", Err: err}
	}

	joined := 0
	for _, iface := range ifaces {
		ifaceCopy := iface
		if err := p.JoinGroup(&ifaceCopy, &net.UDPAddr{IP: group.IP}); err == nil {
			joined++
		}
	}
	if joined == 0 {
		return &errors.NetworkError{Operation: "join multicast group", Details: "no interfaces joined ff02::fb"}
	}
	return nil
}

// Send implements Transport.
func (t *UDPTransport) Send(ctx context.Context, payload []byte, dst net.Addr) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	} else {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}

	n, err := t.conn.WriteTo(payload, dst)
	if err != nil {
		return &errors.NetworkError{Operation: "send datagram", Err: err, Details: dst.String()}
	}
	if n != len(payload) {
		return &errors.NetworkError{
			Operation: "send datagram",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(payload)),
		}
	}
	return nil
}

// Receive implements Transport. It copies out of the pooled buffer before
// returning, so the caller owns the returned slice.
func (t *UDPTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(deadline)
	} else {
		_ = t.conn.SetReadDeadline(time.Time{})
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)

	n, addr, err := t.conn.ReadFrom(*bufPtr)
	if err != nil {
		return nil, nil, &errors.NetworkError{Operation: "receive datagram", Err: err}
	}

	out := make([]byte, n)
	copy(out, (*bufPtr)[:n])
	return out, addr, nil
}

// LocalAddr implements Transport.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close implements Transport.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}

var _ Transport = (*UDPTransport)(nil)

// InterfaceIPv4Addr returns the first IPv4 unicast address bound to
// iface, used to rebind a querier's unicast socket away from the
// wildcard address per the interface-binding option.
func InterfaceIPv4Addr(iface *net.Interface) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, &errors.NetworkError{Operation: "enumerate interface addresses", Err: err, Details: iface.Name}
	}

	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && ip.To4() != nil {
			return ip.To4(), nil
		}
	}

	return nil, &errors.NetworkError{
		Operation: "enumerate interface addresses",
		Details:   fmt.Sprintf("interface %s has no IPv4 address", iface.Name),
	}
}
