// Package responder implements the mDNS response side: answering
// incoming queries for one or more registered services per RFC 6762 and
// RFC 6763.
package responder

import (
	"context"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
	internalresponder "github.com/onoffswitch/beacon-mdns/internal/responder"
	"github.com/onoffswitch/beacon-mdns/internal/transport"
)

// Responder answers mDNS queries for the zones it was configured with. A
// Responder is not running until Start is called, and does not hold any
// socket before then.
type Responder struct {
	cfg      Config
	composer *internalresponder.Composer

	mu      sync.Mutex
	running bool
	sockets []socket
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// socket pairs an open transport with the address family it answers
// queries received on, so outgoing responses know which group to
// multicast to.
type socket struct {
	transport transport.Transport
	family    transport.Family
}

// New constructs a Responder from opts. At least one zone is required.
func New(opts ...Option) (*Responder, error) {
	cfg := Config{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if len(cfg.Zones) == 0 {
		return nil, &errors.ValidationError{Field: "zones", Message: "at least one zone is required"}
	}
	if cfg.DisableIPv4 && cfg.DisableIPv6 {
		return nil, &errors.ValidationError{Field: "config", Message: "cannot disable both IPv4 and IPv6"}
	}

	composer := internalresponder.NewComposer()
	for _, z := range cfg.Zones {
		composer.Add(z)
	}

	return &Responder{cfg: cfg, composer: composer}, nil
}

// IsRunning reports whether Start has succeeded and Stop has not yet been
// called.
func (r *Responder) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start opens a multicast-joined UDP socket per enabled address family
// and begins answering queries. Start tolerates one family failing to
// bind as long as the other succeeds; if neither does, it returns a
// LifecycleError with Kind NoSocketUsable.
func (r *Responder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return &errors.LifecycleError{Kind: errors.AlreadyRunning, Operation: "start responder"}
	}

	sockets := r.openSockets()
	if len(sockets) == 0 {
		return &errors.LifecycleError{Kind: errors.NoSocketUsable, Operation: "start responder"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	r.sockets = sockets
	r.cancel = cancel
	r.group = g

	for _, s := range sockets {
		s := s
		g.Go(func() error {
			r.serve(gctx, s)
			return nil
		})
	}

	r.running = true
	return nil
}

// Stop shuts down all query-handling goroutines and closes every socket.
// Stop is idempotent: calling it on a Responder that is not running
// returns a LifecycleError with Kind NotRunning.
func (r *Responder) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return &errors.LifecycleError{Kind: errors.NotRunning, Operation: "stop responder"}
	}
	cancel := r.cancel
	sockets := r.sockets
	group := r.group
	r.running = false
	r.sockets = nil
	r.cancel = nil
	r.group = nil
	r.mu.Unlock()

	cancel()
	for _, s := range sockets {
		_ = s.transport.Close()
	}
	_ = group.Wait()

	return nil
}

func (r *Responder) openSockets() []socket {
	var opened []socket

	open := func(family transport.Family) {
		cfg := transport.Config{
			Family:        family,
			Port:          protocol.Port,
			JoinMulticast: true,
			MulticastHops: r.cfg.MulticastHops,
			Interface:     r.cfg.Interface,
		}
		t, err := transport.NewUDPTransport(cfg)
		if err != nil {
			r.log("bind " + family.String() + " failed: " + err.Error())
			return
		}
		opened = append(opened, socket{transport: t, family: family})
	}

	if !r.cfg.DisableIPv4 {
		open(transport.FamilyIPv4)
	}
	if !r.cfg.DisableIPv6 {
		open(transport.FamilyIPv6)
	}

	return opened
}

func (r *Responder) serve(ctx context.Context, s socket) {
	for {
		data, addr, err := s.transport.Receive(ctx)
		if err != nil {
			return
		}
		r.handleDatagram(ctx, s, data, addr)
	}
}

func (r *Responder) handleDatagram(ctx context.Context, s socket, data []byte, addr net.Addr) {
	query, err := message.ParseMessage(data)
	if err != nil {
		r.log("discard malformed datagram from " + addr.String() + ": " + err.Error())
		return
	}

	if !query.Header.IsQuery() || query.Header.GetOPCODE() != 0 || query.Header.GetRCODE() != 0 {
		return
	}

	plan := internalresponder.Plan(r.composer, query)

	if len(plan.Multicast) == 0 && len(plan.Unicast) == 0 {
		if r.cfg.LogEmptyResponses {
			r.log("no zone matched query from " + addr.String())
		}
		return
	}

	if len(plan.Multicast) > 0 {
		payload, err := internalresponder.BuildMulticast(plan.Multicast)
		if err != nil {
			r.log("build multicast response: " + err.Error())
		} else if err := s.transport.Send(ctx, payload, groupAddr(s.family)); err != nil {
			r.log("send multicast response: " + err.Error())
		}
	}

	if len(plan.Unicast) > 0 {
		payload, err := internalresponder.BuildUnicast(query.Header.ID, plan.Unicast)
		if err != nil {
			r.log("build unicast response: " + err.Error())
			return
		}
		if err := s.transport.Send(ctx, payload, addr); err != nil {
			r.log("send unicast response: " + err.Error())
		}
	}
}

func groupAddr(family transport.Family) net.Addr {
	if family == transport.FamilyIPv6 {
		return protocol.MulticastGroupIPv6()
	}
	return protocol.MulticastGroupIPv4()
}

func (r *Responder) log(msg string) {
	if r.cfg.Logger != nil {
		r.cfg.Logger(msg)
	}
}
