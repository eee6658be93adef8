// Package message implements DNS message parsing per RFC 1035.
package message

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// SRVData represents SRV record data per RFC 2782: the location
// (hostname and port) of a service.
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// ParseMessage parses a complete DNS message from wire format per
// RFC 1035 §4.1. Parsing is total: any structural failure (short read,
// bad pointer, oversized label, pointer cycle) returns an error and no
// partial message, never panics.
func ParseMessage(msg []byte) (*DNSMessage, error) {
	header, err := ParseHeader(msg)
	if err != nil {
		return nil, err
	}

	offset := 12

	questions := make([]Question, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		question, newOffset, err := ParseQuestion(msg, offset)
		if err != nil {
			return nil, err
		}
		questions[i] = question
		offset = newOffset
	}

	answers := make([]Answer, header.ANCount)
	for i := uint16(0); i < header.ANCount; i++ {
		answer, newOffset, err := ParseAnswer(msg, offset)
		if err != nil {
			return nil, err
		}
		answers[i] = answer
		offset = newOffset
	}

	authorities := make([]Answer, header.NSCount)
	for i := uint16(0); i < header.NSCount; i++ {
		authority, newOffset, err := ParseAnswer(msg, offset)
		if err != nil {
			return nil, err
		}
		authorities[i] = authority
		offset = newOffset
	}

	additionals := make([]Answer, header.ARCount)
	for i := uint16(0); i < header.ARCount; i++ {
		additional, newOffset, err := ParseAnswer(msg, offset)
		if err != nil {
			return nil, err
		}
		additionals[i] = additional
		offset = newOffset
	}

	return &DNSMessage{
		Header:      header,
		Questions:   questions,
		Answers:     answers,
		Authorities: authorities,
		Additionals: additionals,
	}, nil
}

// ParseHeader parses the 12-byte DNS message header per RFC 1035 §4.1.1.
func ParseHeader(msg []byte) (DNSHeader, error) {
	if len(msg) < 12 {
		return DNSHeader{}, &errors.WireFormatError{
			Operation: "parse header",
			Offset:    0,
			Message:   fmt.Sprintf("message too short for header: %d bytes, expected at least 12", len(msg)),
		}
	}

	return DNSHeader{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		Flags:   binary.BigEndian.Uint16(msg[2:4]),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

// ParseQuestion parses a question section entry per RFC 1035 §4.1.2.
func ParseQuestion(msg []byte, offset int) (Question, int, error) {
	qname, newOffset, err := ParseName(msg, offset)
	if err != nil {
		return Question{}, offset, err
	}

	if newOffset+4 > len(msg) {
		return Question{}, offset, &errors.WireFormatError{
			Operation: "parse question",
			Offset:    newOffset,
			Message:   "truncated question: not enough bytes for QTYPE and QCLASS",
		}
	}

	return Question{
		QNAME:  qname,
		QTYPE:  binary.BigEndian.Uint16(msg[newOffset : newOffset+2]),
		QCLASS: binary.BigEndian.Uint16(msg[newOffset+2 : newOffset+4]),
	}, newOffset + 4, nil
}

// ParseAnswer parses an answer/authority/additional section entry per
// RFC 1035 §4.1.3. Unrecognized record types are not an error: the
// fixed fields are still parsed, and the reader advances exactly
// rdlength bytes regardless of whether a type-specific RDATA parser
// exists for this type.
func ParseAnswer(msg []byte, offset int) (Answer, int, error) {
	name, newOffset, err := ParseName(msg, offset)
	if err != nil {
		return Answer{}, offset, err
	}

	if newOffset+10 > len(msg) {
		return Answer{}, offset, &errors.WireFormatError{
			Operation: "parse answer",
			Offset:    newOffset,
			Message:   "truncated answer: not enough bytes for fixed fields",
		}
	}

	rtype := binary.BigEndian.Uint16(msg[newOffset : newOffset+2])
	class := binary.BigEndian.Uint16(msg[newOffset+2 : newOffset+4])
	ttl := binary.BigEndian.Uint32(msg[newOffset+4 : newOffset+8])
	rdlength := binary.BigEndian.Uint16(msg[newOffset+8 : newOffset+10])

	rdataOffset := newOffset + 10

	if rdataOffset+int(rdlength) > len(msg) {
		return Answer{}, offset, &errors.WireFormatError{
			Operation: "parse answer",
			Offset:    rdataOffset,
			Message:   fmt.Sprintf("truncated RDATA: expected %d bytes, only %d available", rdlength, len(msg)-rdataOffset),
		}
	}

	// Names embedded in RDATA (PTR target, SRV target) may carry
	// compression pointers into the *message*, not the isolated RDATA
	// slice — so RDATA-dependent parsing happens here, against msg and
	// an absolute offset, while rdataOffset is still in scope.
	if RecordTypeHasCompressedName(rtype) {
		if _, nameEnd, err := parseRDATAName(rtype, msg, rdataOffset); err == nil {
			consumed := nameEnd - rdataOffset
			if consumed > int(rdlength) {
				return Answer{}, offset, &errors.WireFormatError{
					Operation: "parse answer",
					Offset:    rdataOffset,
					Message:   "RDATA name extends past rdlength",
				}
			}
		}
	}

	rdata := make([]byte, rdlength)
	copy(rdata, msg[rdataOffset:rdataOffset+int(rdlength)])

	answer := Answer{
		NAME:     name,
		TYPE:     rtype,
		CLASS:    class,
		TTL:      ttl,
		RDLENGTH: rdlength,
		RDATA:    rdata,
	}

	return answer, rdataOffset + int(rdlength), nil
}

// RecordTypeHasCompressedName reports whether a record type's RDATA may
// contain a domain name subject to compression (PTR, SRV) and therefore
// must be decoded against the full message buffer rather than an
// isolated RDATA slice.
func RecordTypeHasCompressedName(recordType uint16) bool {
	switch protocol.RecordType(recordType) {
	case protocol.RecordTypePTR, protocol.RecordTypeSRV:
		return true
	default:
		return false
	}
}

func parseRDATAName(recordType uint16, msg []byte, offset int) (string, int, error) {
	switch protocol.RecordType(recordType) {
	case protocol.RecordTypePTR:
		return ParseName(msg, offset)
	case protocol.RecordTypeSRV:
		return ParseName(msg, offset+6)
	default:
		return "", offset, fmt.Errorf("record type %d has no compressed name", recordType)
	}
}

// ParseRDATA decodes type-specific RDATA into a Go value, given the full
// message buffer and the absolute offset of the RDATA (not an isolated
// copy): this is required because PTR and SRV RDATA carry compressed
// domain names whose pointers are offsets into the whole packet.
//
// Returns (nil, nil) for NSEC (recognized, ignored per RFC 6762 §6.1) and
// for any type without a dedicated parser — unrecognized types are
// skipped, not errors.
func ParseRDATA(recordType uint16, msg []byte, rdataOffset int, rdlength uint16) (interface{}, error) {
	end := rdataOffset + int(rdlength)
	if end > len(msg) {
		return nil, &errors.WireFormatError{
			Operation: "parse RDATA",
			Offset:    rdataOffset,
			Message:   "RDATA extends past end of message",
		}
	}
	rdata := msg[rdataOffset:end]

	switch protocol.RecordType(recordType) {
	case protocol.RecordTypeA:
		if len(rdata) != 4 {
			return nil, &errors.WireFormatError{
				Operation: "parse A record",
				Offset:    rdataOffset,
				Message:   fmt.Sprintf("invalid A record length: %d bytes, expected 4", len(rdata)),
			}
		}
		return net.IPv4(rdata[0], rdata[1], rdata[2], rdata[3]), nil

	case protocol.RecordTypeAAAA:
		if len(rdata) != 16 {
			return nil, &errors.WireFormatError{
				Operation: "parse AAAA record",
				Offset:    rdataOffset,
				Message:   fmt.Sprintf("invalid AAAA record length: %d bytes, expected 16", len(rdata)),
			}
		}
		ip := make(net.IP, 16)
		copy(ip, rdata)
		return ip, nil

	case protocol.RecordTypePTR:
		name, _, err := ParseName(msg, rdataOffset)
		if err != nil {
			return nil, err
		}
		return name, nil

	case protocol.RecordTypeTXT:
		var strs []string
		pos := 0
		for pos < len(rdata) {
			length := int(rdata[pos])
			pos++
			if pos+length > len(rdata) {
				return nil, &errors.WireFormatError{
					Operation: "parse TXT record",
					Offset:    rdataOffset + pos,
					Message:   fmt.Sprintf("truncated TXT string: expected %d bytes, only %d available", length, len(rdata)-pos),
				}
			}
			strs = append(strs, string(rdata[pos:pos+length]))
			pos += length
		}
		return strs, nil

	case protocol.RecordTypeSRV:
		if len(rdata) < 6 {
			return nil, &errors.WireFormatError{
				Operation: "parse SRV record",
				Offset:    rdataOffset,
				Message:   fmt.Sprintf("truncated SRV record: %d bytes, expected at least 6", len(rdata)),
			}
		}
		target, _, err := ParseName(msg, rdataOffset+6)
		if err != nil {
			return nil, err
		}
		return SRVData{
			Priority: binary.BigEndian.Uint16(rdata[0:2]),
			Weight:   binary.BigEndian.Uint16(rdata[2:4]),
			Port:     binary.BigEndian.Uint16(rdata[4:6]),
			Target:   target,
		}, nil

	case protocol.RecordTypeNSEC:
		// Recognized but ignored on the reader path.
		return nil, nil

	default:
		// Unrecognized type: skipped, not an error.
		return nil, nil
	}
}
