// Package querier implements the mDNS query side: sending a DNS-SD PTR
// query for a service type over IPv4 and IPv6 multicast, and streaming
// back the complete ServiceEntry values assembled from whatever
// PTR/SRV/TXT/A/AAAA answers arrive.
package querier

import (
	"context"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
	"github.com/onoffswitch/beacon-mdns/internal/transport"
)

// Querier sends DNS-SD queries and aggregates the responses. A Querier
// holds no sockets between calls: Discover and Query each open, use, and
// close their own sockets, so concurrent calls never interfere and a
// Querier that is never used opens no sockets at all.
type Querier struct {
	cfg Config
}

// New constructs a Querier from opts. The only construction-time failure
// is an invalid option (e.g. disabling both address families).
func New(opts ...Option) (*Querier, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.DisableIPv4 && cfg.DisableIPv6 {
		return nil, &errors.ValidationError{
			Field:   "config",
			Message: "cannot disable both IPv4 and IPv6",
		}
	}
	return &Querier{cfg: cfg}, nil
}

// Discover runs Query to completion and returns every ServiceEntry found
// before ctx is done or the configured timeout elapses.
func (q *Querier) Discover(ctx context.Context, service string) ([]ServiceEntry, error) {
	ch, err := q.Query(ctx, service)
	if err != nil {
		return nil, err
	}

	var out []ServiceEntry
	for entry := range ch {
		out = append(out, entry)
	}
	return out, nil
}

// Query sends a PTR query for service and returns a channel of
// ServiceEntry values as they complete. The channel closes when ctx is
// done, the configured timeout elapses, or (with no timeout and no
// context deadline) never — callers in that mode must cancel ctx
// themselves.
func (q *Querier) Query(ctx context.Context, service string) (<-chan ServiceEntry, error) {
	sockets, err := q.openSockets()
	if err != nil {
		return nil, err
	}

	name := queryName(service, q.cfg.Domain)
	if err := q.sendQueries(ctx, sockets, name); err != nil {
		closeSockets(sockets)
		return nil, err
	}

	var readCtx context.Context
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && q.cfg.Timeout > 0 {
		readCtx, cancel = context.WithTimeout(ctx, q.cfg.Timeout)
	} else {
		readCtx, cancel = context.WithCancel(ctx)
	}

	recvCh := make(chan []byte, 32)
	g, _ := errgroup.WithContext(readCtx)
	for _, s := range sockets {
		s := s
		g.Go(func() error {
			readLoop(readCtx, s, recvCh)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(recvCh)
	}()

	out := make(chan ServiceEntry, 16)
	go q.aggregate(readCtx, cancel, sockets, recvCh, service, out)

	return out, nil
}

func readLoop(ctx context.Context, s socket, recvCh chan<- []byte) {
	for {
		data, _, err := s.transport.Receive(ctx)
		if err != nil {
			return
		}
		select {
		case recvCh <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (q *Querier) aggregate(
	ctx context.Context,
	cancel context.CancelFunc,
	sockets []socket,
	recvCh <-chan []byte,
	service string,
	out chan<- ServiceEntry,
) {
	defer close(out)
	defer cancel()
	defer closeSockets(sockets)

	agg := newAggregator(service, q.cfg.Domain)

	for {
		select {
		case data, ok := <-recvCh:
			if !ok {
				return
			}
			recs, err := decodeRecords(data)
			if err != nil {
				q.log("discard malformed datagram: " + err.Error())
				continue
			}
			for _, r := range recs {
				for _, entry := range agg.ingest(r) {
					select {
					case out <- entry:
					case <-ctx.Done():
						return
					}
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (q *Querier) log(msg string) {
	if q.cfg.Logger != nil {
		q.cfg.Logger(msg)
	}
}

// socket pairs an open transport with the address family it was opened
// for and whether it is the family's unicast (send+unicast-reply) or
// multicast (receive-only group member) leg. Per §4.F a querier holds
// two sockets per enabled family: queries are sent from the unicast
// socket only, but both legs are read concurrently.
type socket struct {
	transport transport.Transport
	family    transport.Family
	unicast   bool
}

// openSockets opens a unicast and a multicast socket per enabled address
// family. Any failure while opening a family's pair disables that
// family (both sockets it already opened are closed); at least one
// family must end up with a usable pair, or openSockets fails and
// releases everything it opened.
func (q *Querier) openSockets() ([]socket, error) {
	var opened []socket

	openFamily := func(family transport.Family) ([]socket, error) {
		uniCfg := transport.Config{
			Family:        family,
			Port:          0,
			MulticastHops: q.cfg.MulticastHops,
		}
		if family == transport.FamilyIPv4 && q.cfg.Interface != nil {
			if ip, err := transport.InterfaceIPv4Addr(q.cfg.Interface); err == nil {
				uniCfg.BindAddr = ip.String()
			}
		}

		uni, err := transport.NewUDPTransport(uniCfg)
		if err != nil && uniCfg.BindAddr != "" {
			// Fallback: rebind to the wildcard address per §4.F.
			uniCfg.BindAddr = ""
			uni, err = transport.NewUDPTransport(uniCfg)
		}
		if err != nil {
			return nil, err
		}

		multiCfg := transport.Config{
			Family:        family,
			Port:          protocol.Port,
			JoinMulticast: true,
			MulticastHops: q.cfg.MulticastHops,
			Interface:     q.cfg.Interface,
		}
		multi, err := transport.NewUDPTransport(multiCfg)
		if err != nil {
			_ = uni.Close()
			return nil, err
		}

		return []socket{
			{transport: uni, family: family, unicast: true},
			{transport: multi, family: family, unicast: false},
		}, nil
	}

	if !q.cfg.DisableIPv4 {
		pair, err := openFamily(transport.FamilyIPv4)
		if err != nil {
			q.log("ipv4 socket pair failed: " + err.Error())
		} else {
			opened = append(opened, pair...)
		}
	}
	if !q.cfg.DisableIPv6 {
		pair, err := openFamily(transport.FamilyIPv6)
		if err != nil {
			q.log("ipv6 socket pair failed: " + err.Error())
		} else {
			opened = append(opened, pair...)
		}
	}

	if len(opened) == 0 {
		closeSockets(opened)
		return nil, &errors.LifecycleError{Kind: errors.NoSocketUsable, Operation: "open querier sockets"}
	}

	return opened, nil
}

func closeSockets(sockets []socket) {
	for _, s := range sockets {
		_ = s.transport.Close()
	}
}

// sendQueries sends the query payload from each family's unicast socket
// only; the multicast sockets exist to receive, not to send. At least
// one family must succeed or the query fails outright.
func (q *Querier) sendQueries(ctx context.Context, sockets []socket, name string) error {
	payload, err := message.BuildQuery(name, uint16(protocol.RecordTypePTR), q.cfg.WantUnicastResponse)
	if err != nil {
		return err
	}

	sent := 0
	var lastErr error
	for _, s := range sockets {
		if !s.unicast {
			continue
		}
		dst := groupAddr(s.family)
		if err := s.transport.Send(ctx, payload, dst); err != nil {
			lastErr = err
			q.log("send query on " + s.family.String() + " failed: " + err.Error())
			continue
		}
		sent++
	}
	if sent == 0 {
		if lastErr == nil {
			lastErr = &errors.LifecycleError{Kind: errors.NoSocketUsable, Operation: "send query"}
		}
		return lastErr
	}
	return nil
}

func groupAddr(family transport.Family) net.Addr {
	if family == transport.FamilyIPv6 {
		return protocol.MulticastGroupIPv6()
	}
	return protocol.MulticastGroupIPv4()
}

// queryName builds the fully-qualified "<service>.<domain>." name queried
// for PTR records.
func queryName(service, domain string) string {
	return trimDots(service) + "." + trimDots(domain) + "."
}
