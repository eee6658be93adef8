// Package protocol defines mDNS protocol constants per RFC 6762 (Multicast
// DNS) and RFC 6763 (DNS-SD).
package protocol

import "net"

// mDNS protocol constants per RFC 6762 §5.
const (
	// Port is the mDNS port number (5353).
	Port = 5353

	// MulticastAddrIPv4 is the mDNS IPv4 multicast address.
	MulticastAddrIPv4 = "224.0.0.251"

	// MulticastAddrIPv6 is the mDNS IPv6 multicast address (link-local).
	MulticastAddrIPv6 = "ff02::fb"
)

// MulticastGroupIPv4 returns the mDNS IPv4 multicast group address.
func MulticastGroupIPv4() *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.ParseIP(MulticastAddrIPv4), // nosemgrep: beacon-hardcoded-multicast-address
		Port: Port,
	}
}

// MulticastGroupIPv6 returns the mDNS IPv6 multicast group address.
func MulticastGroupIPv6() *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.ParseIP(MulticastAddrIPv6), // nosemgrep: beacon-hardcoded-multicast-address
		Port: Port,
	}
}

// RecordType represents a DNS record type per RFC 1035 §3.2.2.
type RecordType uint16

// Supported DNS record types per RFC 1035, RFC 2782 (SRV), and RFC 3596
// (AAAA). NSEC (47) is recognized on the read path per RFC 6762 §6.1 but
// otherwise ignored.
const (
	RecordTypeA    RecordType = 1
	RecordTypePTR  RecordType = 12
	RecordTypeTXT  RecordType = 16
	RecordTypeAAAA RecordType = 28
	RecordTypeSRV  RecordType = 33
	RecordTypeNSEC RecordType = 47
	RecordTypeANY  RecordType = 255
)

// String returns the human-readable name for a RecordType.
func (rt RecordType) String() string {
	switch rt {
	case RecordTypeA:
		return "A"
	case RecordTypePTR:
		return "PTR"
	case RecordTypeTXT:
		return "TXT"
	case RecordTypeAAAA:
		return "AAAA"
	case RecordTypeSRV:
		return "SRV"
	case RecordTypeNSEC:
		return "NSEC"
	case RecordTypeANY:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// IsSupported reports whether the codec has a dedicated RDATA parser for
// this type. Types outside this set are still parsed structurally (name,
// type, class, ttl, rdlength) but their RDATA is skipped by rdlength.
func (rt RecordType) IsSupported() bool {
	switch rt {
	case RecordTypeA, RecordTypePTR, RecordTypeTXT, RecordTypeAAAA, RecordTypeSRV, RecordTypeNSEC, RecordTypeANY:
		return true
	default:
		return false
	}
}

// DNSClass represents a DNS class per RFC 1035 §3.2.4.
type DNSClass uint16

const (
	// ClassIN is the Internet (IN) class.
	ClassIN DNSClass = 1

	// ClassMask isolates the 15-bit class code from a question or answer
	// class field, discarding the U-bit / cache-flush bit in bit 15.
	ClassMask uint16 = 0x7FFF

	// UnicastResponseBit is the top bit of a question's class field,
	// requesting that the response be sent unicast per RFC 6762 §5.4.
	UnicastResponseBit uint16 = 1 << 15

	// CacheFlushBit is the top bit of a resource record's class field,
	// indicating the record supersedes previously cached records of the
	// same name and type per RFC 6762 §10.2.
	CacheFlushBit uint16 = 1 << 15
)

// DNS header flags per RFC 1035 §4.1.1 and RFC 6762 §18.
const (
	FlagQR uint16 = 1 << 15 // 0x8000 Query/Response
	FlagAA uint16 = 1 << 10 // 0x0400 Authoritative Answer
	FlagTC uint16 = 1 << 9  // 0x0200 Truncated
	FlagRD uint16 = 1 << 8  // 0x0100 Recursion Desired
	FlagRA uint16 = 1 << 7  // 0x0080 Recursion Available
)

// OPCODE values per RFC 1035 §4.1.1.
const (
	OpcodeQuery uint16 = 0
)

// RCODE values per RFC 1035 §4.1.1.
const (
	RCodeNoError uint16 = 0
)

// DNS name constraints per RFC 1035 §3.1.
const (
	// MaxLabelLength is the maximum length of a single DNS label.
	MaxLabelLength = 63

	// MaxNameLength is the maximum wire-format length of a DNS name.
	MaxNameLength = 255
)

// CompressionMask identifies a compression pointer: the high two bits of
// the length/pointer octet are both set (0xC0) per RFC 1035 §4.1.4.
const CompressionMask byte = 0xC0

// RecordTTL is the TTL, in seconds, used for every record this responder
// emits per RFC 6762 §10 (as narrowed by this implementation: no
// distinction between service and hostname record TTLs).
const RecordTTL uint32 = 120

// DefaultMulticastHops is the default outgoing multicast TTL (IPv4) /
// hop-limit (IPv6) per RFC 6762 §11.
const DefaultMulticastHops = 1
