package responder

import (
	"net"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/records"
)

// Config holds a Responder's construction-time settings.
type Config struct {
	// Zones are the services this responder answers for. At least one
	// is required.
	Zones []*records.Zone

	// Interface restricts the responder to a single network interface.
	// Nil joins the multicast group on every up, multicast-capable
	// interface that is not loopback, VPN or Docker
	// (network.DefaultInterfaces).
	Interface *net.Interface

	// DisableIPv4 / DisableIPv6 skip binding that address family.
	// Disabling both is a configuration error.
	DisableIPv4 bool
	DisableIPv6 bool

	// MulticastHops sets the outgoing multicast TTL (IPv4) / hop limit
	// (IPv6). Zero uses the protocol default.
	MulticastHops int

	// LogEmptyResponses, if true, logs every query that matched no
	// zone. Off by default since most queries on a shared multicast
	// segment are for other responders' names.
	LogEmptyResponses bool

	// Logger, when set, receives a line for each logged event. Nil
	// disables logging.
	Logger func(string)
}

// Option configures a Config passed to New.
type Option func(*Config) error

// WithZone adds a zone to the responder's configuration.
func WithZone(z *records.Zone) Option {
	return func(c *Config) error {
		if z == nil {
			return &errors.ValidationError{Field: "zone", Message: "zone cannot be nil"}
		}
		c.Zones = append(c.Zones, z)
		return nil
	}
}

// WithInterface restricts the responder to a single network interface.
func WithInterface(iface *net.Interface) Option {
	return func(c *Config) error {
		if iface == nil {
			return &errors.ValidationError{Field: "interface", Message: "interface cannot be nil"}
		}
		c.Interface = iface
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

// WithLogEmptyResponses enables logging of queries matching no zone.
func WithLogEmptyResponses(enabled bool) Option {
	return func(c *Config) error {
		c.LogEmptyResponses = enabled
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
