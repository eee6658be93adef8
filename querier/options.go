package querier

import (
	"net"
	"time"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
)

// Config holds a Querier's construction-time settings.
type Config struct {
	// Domain is the DNS-SD domain to query within. Defaults to "local.".
	Domain string

	// Timeout bounds how long Discover waits for responses when the
	// caller's context carries no deadline of its own. Zero means wait
	// until the caller cancels.
	Timeout time.Duration

	// Interface restricts the querier to a single network interface. Nil
	// joins the multicast group on every up, multicast-capable interface
	// that is not loopback, VPN or Docker (network.DefaultInterfaces).
	Interface *net.Interface

	// WantUnicastResponse sets the U-bit on outgoing queries, asking
	// responders to answer unicast rather than multicast.
	WantUnicastResponse bool

	// DisableIPv4 / DisableIPv6 skip opening sockets for that family.
	// Disabling both is a configuration error.
	DisableIPv4 bool
	DisableIPv6 bool

	// MulticastHops sets the outgoing multicast TTL (IPv4) / hop limit
	// (IPv6). Zero uses the protocol default.
	MulticastHops int

	// Logger, when set, receives a line for each query sent and each
	// malformed datagram discarded. Nil disables logging.
	Logger func(string)
}

// Option configures a Config passed to New.
type Option func(*Config) error

// WithDomain sets the DNS-SD domain to query within.
func WithDomain(domain string) Option {
	return func(c *Config) error {
		if domain == "" {
			return &errors.ValidationError{Field: "domain", Message: "domain cannot be empty"}
		}
		c.Domain = domain
		return nil
	}
}

// WithTimeout sets how long Discover waits for responses absent a
// context deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		c.Timeout = timeout
		return nil
	}
}

// WithInterface restricts the querier to a single network interface.
func WithInterface(iface *net.Interface) Option {
	return func(c *Config) error {
		if iface == nil {
			return &errors.ValidationError{Field: "interface", Message: "interface cannot be nil"}
		}
		c.Interface = iface
		return nil
	}
}

// WithUnicastResponse sets the U-bit on outgoing queries.
func WithUnicastResponse(want bool) Option {
	return func(c *Config) error {
		c.WantUnicastResponse = want
		return nil
	}
}

// WithIPv4Only disables IPv6 socket setup.
func WithIPv4Only() Option {
	return func(c *Config) error {
		c.DisableIPv6 = true
		return nil
	}
}

// WithIPv6Only disables IPv4 socket setup.
func WithIPv6Only() Option {
	return func(c *Config) error {
		c.DisableIPv4 = true
		return nil
	}
}

// WithMulticastHops sets the outgoing multicast TTL/hop limit.
func WithMulticastHops(hops int) Option {
	return func(c *Config) error {
		if hops <= 0 {
			return &errors.ValidationError{Field: "multicastHops", Value: hops, Message: "hops must be positive"}
		}
		c.MulticastHops = hops
		return nil
	}
}

// WithLogger sets the function receiving diagnostic lines.
func WithLogger(logger func(string)) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

func defaultConfig() Config {
	return Config{
		Domain:  "local.",
		Timeout: time.Second,
	}
}
