// Package records implements the mDNS zone model: a single registered
// service's canonical names and the records it answers for each of them,
// per RFC 6763 §4 and §9 (DNS-SD enumeration).
package records

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// EnumServiceAddr is the DNS-SD service-type enumeration name per
// RFC 6763 §9, shared by every zone within a domain.
const enumServiceTypeLabel = "_services._dns-sd._udp"

// Resolver resolves a hostname to its IP addresses. Injected so a zone's
// address defaults can be tested without touching the real resolver.
type Resolver interface {
	LookupIPAddr(host string) ([]net.IP, error)
}

// SystemResolver resolves via net.LookupIP.
type SystemResolver struct{}

// LookupIPAddr implements Resolver using the standard library resolver.
func (SystemResolver) LookupIPAddr(host string) ([]net.IP, error) {
	return net.LookupIP(host)
}

// Zone is a single registered service: its instance name, service type,
// domain, target host, port, addresses and TXT metadata, plus the four
// canonical names derived from them.
type Zone struct {
	Instance string
	Service  string
	Domain   string
	HostName string
	Port     int
	IPs      []net.IP
	TXT      []string

	serviceAddr  string
	instanceAddr string
	enumAddr     string
}

// ServiceConfig is the input to NewZone: the fields a caller supplies when
// registering a service. HostName and IPs are optional; when absent they
// default to the local hostname and its resolved addresses.
type ServiceConfig struct {
	Instance string
	Service  string
	Domain   string
	HostName string
	Port     int
	IPs      []net.IP
	TXT      []string
}

// NewZone validates cfg and constructs a Zone, defaulting Domain to
// "local.", HostName to the OS hostname, and IPs to the result of
// resolving HostName, via resolver.
func NewZone(cfg ServiceConfig, resolver Resolver) (*Zone, error) {
	if cfg.Instance == "" {
		return nil, &errors.ValidationError{Field: "instance", Message: "instance name cannot be empty"}
	}
	if cfg.Service == "" {
		return nil, &errors.ValidationError{Field: "service", Message: "service type cannot be empty"}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, &errors.ValidationError{Field: "port", Value: cfg.Port, Message: "port must be in [1, 65535]"}
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "local."
	}
	domain = ensureTrailingDot(domain)

	hostName := cfg.HostName
	if hostName == "" {
		osHost, err := os.Hostname()
		if err != nil {
			return nil, &errors.ValidationError{Field: "host_name", Message: fmt.Sprintf("cannot determine local hostname: %v", err)}
		}
		hostName = ensureTrailingDot(osHost) + domain
	}
	hostName = ensureTrailingDot(hostName)

	if err := validateFQDNLabels(cfg.Service); err != nil {
		return nil, &errors.ValidationError{Field: "service", Value: cfg.Service, Message: err.Error()}
	}
	if err := validateFQDNLabels(domain); err != nil {
		return nil, &errors.ValidationError{Field: "domain", Value: domain, Message: err.Error()}
	}
	if err := validateFQDNLabels(hostName); err != nil {
		return nil, &errors.ValidationError{Field: "host_name", Value: hostName, Message: err.Error()}
	}

	ips := cfg.IPs
	if len(ips) == 0 {
		resolved, err := resolver.LookupIPAddr(strings.TrimSuffix(hostName, "."))
		if err != nil || len(resolved) == 0 {
			return nil, &errors.ValidationError{
				Field:   "host_name",
				Value:   hostName,
				Message: fmt.Sprintf("could not resolve addresses for %s", hostName),
			}
		}
		ips = resolved
	}

	trimmedService := trimDots(cfg.Service)
	serviceAddr := trimmedService + "." + domain
	instanceAddr := cfg.Instance + "." + serviceAddr
	enumAddr := enumServiceTypeLabel + "." + domain

	return &Zone{
		Instance:     cfg.Instance,
		Service:      trimmedService,
		Domain:       domain,
		HostName:     hostName,
		Port:         cfg.Port,
		IPs:          ips,
		TXT:          cfg.TXT,
		serviceAddr:  serviceAddr,
		instanceAddr: instanceAddr,
		enumAddr:     enumAddr,
	}, nil
}

func ensureTrailingDot(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

func trimDots(s string) string {
	return strings.Trim(s, ".")
}

// validateFQDNLabels validates fqdn's labels against RFC 1035 §3.1's
// character-set and hyphen-boundary rule, delegating to the same
// protocol.ValidateName used by the wire-level response path so a zone
// can never be constructed with labels the responder would otherwise
// refuse to answer for.
func validateFQDNLabels(fqdn string) error {
	return protocol.ValidateName(fqdn)
}

// ServiceAddr returns the zone's "_service._proto.domain." name.
func (z *Zone) ServiceAddr() string { return z.serviceAddr }

// InstanceAddr returns the zone's "instance._service._proto.domain." name.
func (z *Zone) InstanceAddr() string { return z.instanceAddr }

// EnumAddr returns the zone's "_services._dns-sd._udp.domain." name.
func (z *Zone) EnumAddr() string { return z.enumAddr }

// Question is the normalized form of an incoming question used for zone
// dispatch: a lower-cased, dot-terminated name and a record type.
type Question struct {
	Name string
	Type uint16
}

// Records is the result of matching a question against a zone: the
// records to place in the answer section, plus any records the zone adds
// to the additional section (e.g. instance bundle records alongside a
// PTR answer).
type Records struct {
	Answers     []*message.ResourceRecord
	Additionals []*message.ResourceRecord
}

// RecordsFor dispatches q against the zone's four canonical names per the
// responder's zone-answer table.
func (z *Zone) RecordsFor(q Question) Records {
	name := normalizeName(q.Name)

	switch name {
	case normalizeName(z.enumAddr):
		if matchesType(q.Type, protocol.RecordTypePTR) {
			return Records{Answers: []*message.ResourceRecord{z.ptrRecord(z.enumAddr, z.serviceAddr)}}
		}

	case normalizeName(z.serviceAddr):
		if matchesType(q.Type, protocol.RecordTypePTR) {
			return Records{
				Answers:     []*message.ResourceRecord{z.ptrRecord(z.serviceAddr, z.instanceAddr)},
				Additionals: z.instanceBundle(),
			}
		}

	case normalizeName(z.instanceAddr):
		switch protocol.RecordType(q.Type) {
		case protocol.RecordTypeANY:
			return Records{Answers: z.instanceBundle()}
		case protocol.RecordTypeSRV:
			recs := []*message.ResourceRecord{z.srvRecord()}
			recs = append(recs, z.addressRecords(z.HostName)...)
			return Records{Answers: recs}
		case protocol.RecordTypeTXT:
			return Records{Answers: []*message.ResourceRecord{z.txtRecord()}}
		case protocol.RecordTypeA:
			return Records{Answers: z.aRecords(z.HostName)}
		case protocol.RecordTypeAAAA:
			return Records{Answers: z.aaaaRecords(z.HostName)}
		}

	case normalizeName(z.HostName):
		switch protocol.RecordType(q.Type) {
		case protocol.RecordTypeA:
			return Records{Answers: z.aRecords(z.HostName)}
		case protocol.RecordTypeAAAA:
			return Records{Answers: z.aaaaRecords(z.HostName)}
		}
	}

	return Records{}
}

func matchesType(qtype uint16, rtype protocol.RecordType) bool {
	return protocol.RecordType(qtype) == protocol.RecordTypeANY || protocol.RecordType(qtype) == rtype
}

func normalizeName(name string) string {
	return strings.ToLower(ensureTrailingDot(name))
}

// instanceBundle is the SRV + TXT + A/AAAA set answering an ANY query (or
// carried as additionals alongside a PTR answer).
func (z *Zone) instanceBundle() []*message.ResourceRecord {
	recs := []*message.ResourceRecord{z.srvRecord(), z.txtRecord()}
	recs = append(recs, z.addressRecords(z.HostName)...)
	return recs
}

func (z *Zone) addressRecords(name string) []*message.ResourceRecord {
	recs := z.aRecords(name)
	recs = append(recs, z.aaaaRecords(name)...)
	return recs
}

func (z *Zone) aRecords(name string) []*message.ResourceRecord {
	var recs []*message.ResourceRecord
	for _, ip := range z.IPs {
		v4 := ip.To4()
		if v4 == nil {
			continue
		}
		recs = append(recs, &message.ResourceRecord{
			Name:       name,
			Type:       protocol.RecordTypeA,
			Class:      protocol.ClassIN,
			TTL:        protocol.RecordTTL,
			Data:       message.EncodeARDATA(v4),
			CacheFlush: true,
		})
	}
	return recs
}

func (z *Zone) aaaaRecords(name string) []*message.ResourceRecord {
	var recs []*message.ResourceRecord
	for _, ip := range z.IPs {
		if ip.To4() != nil {
			continue
		}
		v6 := ip.To16()
		if v6 == nil {
			continue
		}
		recs = append(recs, &message.ResourceRecord{
			Name:       name,
			Type:       protocol.RecordTypeAAAA,
			Class:      protocol.ClassIN,
			TTL:        protocol.RecordTTL,
			Data:       message.EncodeAAAARDATA(v6),
			CacheFlush: true,
		})
	}
	return recs
}

func (z *Zone) ptrRecord(name, target string) *message.ResourceRecord {
	targetData, _ := message.EncodePTRRDATA(target) // nosemgrep: beacon-error-swallowing
	return &message.ResourceRecord{
		Name:       name,
		Type:       protocol.RecordTypePTR,
		Class:      protocol.ClassIN,
		TTL:        protocol.RecordTTL,
		Data:       targetData,
		CacheFlush: false,
	}
}

func (z *Zone) srvRecord() *message.ResourceRecord {
	data, _ := message.EncodeSRVRDATA(10, 1, uint16(z.Port), z.HostName) // nosemgrep: beacon-error-swallowing
	return &message.ResourceRecord{
		Name:       z.instanceAddr,
		Type:       protocol.RecordTypeSRV,
		Class:      protocol.ClassIN,
		TTL:        protocol.RecordTTL,
		Data:       data,
		CacheFlush: true,
	}
}

func (z *Zone) txtRecord() *message.ResourceRecord {
	return &message.ResourceRecord{
		Name:       z.instanceAddr,
		Type:       protocol.RecordTypeTXT,
		Class:      protocol.ClassIN,
		TTL:        protocol.RecordTTL,
		Data:       message.EncodeTXTRDATA(z.TXT),
		CacheFlush: true,
	}
}
