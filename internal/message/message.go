// Package message implements the DNS wire format per RFC 1035 §4, with the
// mDNS bit reinterpretations of RFC 6762 §18 (U-bit, cache-flush bit).
package message

// DNSHeader represents the DNS message header per RFC 1035 §4.1.1.
//
// The header is always 12 bytes.
//
// Wire format (big-endian):
//
//	                                1  1  1  1  1  1
//	  0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                      ID                       |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA|   Z    |   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    QDCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    ANCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    NSCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    ARCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type DNSHeader struct {
	// ID is the transaction ID. Responder replies use 0 for multicast
	// responses and the query's id for unicast responses.
	ID uint16

	// Flags is the bit-packed header flags field:
	//   QR (bit 15): 0=query, 1=response
	//   OPCODE (bits 11-14): 0=standard query
	//   AA (bit 10): Authoritative Answer
	//   TC (bit 9): Truncated
	//   RD (bit 8): Recursion Desired
	//   RA (bit 7): Recursion Available
	//   Z (bits 4-6): Reserved, must be zero
	//   RCODE (bits 0-3): Response Code
	Flags uint16

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsQuery reports whether this is a query message (QR bit clear).
func (h *DNSHeader) IsQuery() bool {
	return (h.Flags & 0x8000) == 0
}

// IsResponse reports whether this is a response message (QR bit set).
func (h *DNSHeader) IsResponse() bool {
	return (h.Flags & 0x8000) != 0
}

// GetRCODE extracts the response code (bits 0-3) from Flags.
func (h *DNSHeader) GetRCODE() uint8 {
	return uint8(h.Flags & 0x000F) //nolint:gosec // masked to 4 bits
}

// GetOPCODE extracts the operation code (bits 11-14) from Flags.
func (h *DNSHeader) GetOPCODE() uint8 {
	return uint8((h.Flags >> 11) & 0x0F) //nolint:gosec // masked to 4 bits
}

// Question represents a question section entry per RFC 1035 §4.1.2.
//
// Wire format:
//
//	                                1  1  1  1  1  1
//	  0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	/                     QNAME                     /
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                     QTYPE                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                     QCLASS                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type Question struct {
	// QNAME is the domain name being queried, in dotted form.
	QNAME string

	// QTYPE is the query type: A(1), PTR(12), TXT(16), AAAA(28), SRV(33),
	// NSEC(47), or ANY(255).
	QTYPE uint16

	// QCLASS is the query class; the top bit is the U-bit (RFC 6762 §5.4),
	// requesting a unicast response. Low 15 bits are the class code
	// (IN=1).
	QCLASS uint16
}

// Answer represents an answer/authority/additional section entry per
// RFC 1035 §4.1.3.
//
// Wire format:
//
//	                                1  1  1  1  1  1
//	  0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	/                      NAME                     /
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                      TYPE                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                     CLASS                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                      TTL                      |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   RDLENGTH                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--|
//	/                     RDATA                     /
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type Answer struct {
	// NAME is the domain name this record refers to, in dotted form.
	NAME string

	// TYPE is the resource record type: A(1), PTR(12), TXT(16), AAAA(28),
	// SRV(33), NSEC(47). Other values are carried structurally but their
	// RDATA is opaque (skipped by RDLENGTH, not parsed).
	TYPE uint16

	// CLASS is the resource record class; the top bit is the cache-flush
	// bit (RFC 6762 §10.2). Low 15 bits are the class code (IN=1).
	CLASS uint16

	// TTL is the record's time-to-live in seconds.
	TTL uint32

	// RDLENGTH is the length of RDATA in bytes, as it appeared on the
	// wire (authoritative for skip-on-unknown-type parsing).
	RDLENGTH uint16

	// RDATA is the type-specific resource data, RDLENGTH bytes.
	RDATA []byte
}

// DNSMessage represents a complete DNS message per RFC 1035 §4.1: a header
// plus the question, answer, authority, and additional sections.
type DNSMessage struct {
	Header      DNSHeader
	Questions   []Question
	Answers     []Answer
	Authorities []Answer
	Additionals []Answer
}
