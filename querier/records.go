// Package querier implements mDNS service discovery: sending a PTR query
// for a service type and reassembling the PTR/SRV/TXT/A/AAAA answers that
// trickle back, possibly out of order and from multiple sockets, into
// complete ServiceEntry values.
package querier

import (
	"net"
	"strings"

	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// ServiceEntry is one discovered service instance, assembled from however
// many PTR/SRV/TXT/A/AAAA records were needed to complete it.
type ServiceEntry struct {
	Name      string
	Host      string
	IPv4      []net.IP
	IPv6      []net.IP
	Port      uint16
	TXT       string
	TXTFields []string
	HasTXT    bool

	sent bool
}

// Complete reports whether e has everything a caller needs: at least one
// address, a port, and an observed TXT record.
func (e *ServiceEntry) Complete() bool {
	return (len(e.IPv4) > 0 || len(e.IPv6) > 0) && e.Port != 0 && e.HasTXT
}

// wireRecord is the aggregator's type-dispatched view of one incoming
// answer record, decoded from the wire by decodeRecords.
type wireRecord struct {
	name string
	typ  protocol.RecordType

	target string        // PTR target, SRV target
	ip     net.IP        // A, AAAA
	port   uint16        // SRV
	txt    []string      // TXT
	srv    message.SRVData
}

// aggregator reassembles a stream of wireRecords into ServiceEntry values,
// keyed by name with PTR-driven aliasing: entries live in a stable arena
// (so two names can share one identity by pointing at the same arena
// slot), while completedNames prevents re-emitting an entry once sent.
type aggregator struct {
	entries []*ServiceEntry
	byName  map[string]int

	completed map[string]bool

	service string // trimmed, lower-cased
	domain  string // trimmed, lower-cased
}

func newAggregator(service, domain string) *aggregator {
	return &aggregator{
		byName:    make(map[string]int),
		completed: make(map[string]bool),
		service:   trimDots(strings.ToLower(service)),
		domain:    trimDots(strings.ToLower(domain)),
	}
}

func (a *aggregator) getOrInsert(name string) int {
	if idx, ok := a.byName[name]; ok {
		return idx
	}
	e := &ServiceEntry{Name: name}
	a.entries = append(a.entries, e)
	idx := len(a.entries) - 1
	a.byName[name] = idx
	return idx
}

// ingest applies one record to aggregator state and returns any entries
// that became complete as a result, in the order completeness was first
// attained. Each entry is returned at most once across the aggregator's
// lifetime.
func (a *aggregator) ingest(r wireRecord) []ServiceEntry {
	idx := a.getOrInsert(r.name)
	e := a.entries[idx]
	if e.Host == "" {
		e.Host = r.name
	}

	switch r.typ {
	case protocol.RecordTypePTR:
		tIdx := a.getOrInsert(r.target)
		a.entries[tIdx].Name = r.target
		a.byName[r.name] = tIdx

	case protocol.RecordTypeSRV:
		e.Host = r.srv.Target
		e.Port = r.srv.Port

	case protocol.RecordTypeA:
		addIPv4(e, r.ip)
		for _, o := range a.entries {
			if o != e && o.Host == r.name {
				addIPv4(o, r.ip)
			}
		}

	case protocol.RecordTypeAAAA:
		addIPv6(e, r.ip)
		for _, o := range a.entries {
			if o != e && o.Host == r.name {
				addIPv6(o, r.ip)
			}
		}

	case protocol.RecordTypeTXT:
		e.TXTFields = r.txt
		if len(r.txt) > 0 {
			e.TXT = r.txt[0]
		} else {
			e.TXT = ""
		}
		e.HasTXT = true

	default:
		// NSEC and anything else: ignored.
	}

	return a.scanCompleted()
}

func addIPv4(e *ServiceEntry, ip net.IP) {
	if ip == nil {
		return
	}
	for _, existing := range e.IPv4 {
		if existing.Equal(ip) {
			return
		}
	}
	e.IPv4 = append(e.IPv4, ip)
}

func addIPv6(e *ServiceEntry, ip net.IP) {
	if ip == nil {
		return
	}
	for _, existing := range e.IPv6 {
		if existing.Equal(ip) {
			return
		}
	}
	e.IPv6 = append(e.IPv6, ip)
}

func (a *aggregator) scanCompleted() []ServiceEntry {
	var out []ServiceEntry
	for _, e := range a.entries {
		if e.sent {
			continue
		}
		if a.completed[e.Name] {
			continue
		}
		if !e.Complete() {
			continue
		}
		if !a.matches(e.Name) {
			continue
		}
		e.sent = true
		a.completed[e.Name] = true
		out = append(out, *e)
	}
	return out
}

// matches reports whether name (the aggregator's entry key) identifies an
// instance of the requested service+domain: either the normalized name
// ends with "<service>.<domain>." directly, or it does once its first
// label (the instance name) is dropped.
func (a *aggregator) matches(name string) bool {
	norm := normalizeDotted(name)
	pattern := a.service + "." + a.domain + "."

	if strings.HasSuffix(norm, pattern) {
		return true
	}

	if i := strings.IndexByte(norm, '.'); i >= 0 && norm[i+1:] == pattern {
		return true
	}

	return false
}

func trimDots(s string) string {
	return strings.Trim(s, ".")
}

func normalizeDotted(s string) string {
	s = strings.ToLower(s)
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}
