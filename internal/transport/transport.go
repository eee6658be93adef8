// Package transport implements the UDP multicast socket abstraction used
// by the responder and querier: bind, join, send, receive, close, for
// both the IPv4 and IPv6 mDNS address families.
package transport

import (
	"context"
	"net"
)

// Transport abstracts a single bound UDP socket. Implementations wrap a
// net.PacketConn together with whatever multicast group membership and
// outgoing-interface configuration was requested at construction time.
type Transport interface {
	// Send transmits payload to dst.
	Send(ctx context.Context, payload []byte, dst net.Addr) error

	// Receive blocks until a datagram arrives or ctx is done, returning
	// the payload and its source address.
	Receive(ctx context.Context) ([]byte, net.Addr, error)

	// LocalAddr returns the socket's bound local address.
	LocalAddr() net.Addr

	// Close releases the underlying socket. Idempotent.
	Close() error
}

// Family identifies an mDNS address family.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// network returns the net.ListenConfig network name for this family.
func (f Family) network() string {
	if f == FamilyIPv6 {
		return "udp6"
	}
	return "udp4"
}
