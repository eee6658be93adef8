// Package message implements DNS message construction per RFC 1035 and
// the mDNS flag conventions of RFC 6762 §18.
package message

// nosemgrep: beacon-external-dependencies
import (
	"crypto/rand" // required for query ID generation (gosec G404)
	"encoding/binary"
	"math/big"
	"net"
	"strings"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// BuildQuery constructs an mDNS query message: a random 16-bit id, all
// flags zero, and one question.
//
// Parameters:
//   - name: the DNS name to query
//   - recordType: the query type (A, PTR, TXT, AAAA, SRV, ANY)
//   - wantUnicastResponse: sets the question class's U-bit (RFC 6762
//     §5.4), requesting the responder answer unicast rather than
//     multicast
func BuildQuery(name string, recordType uint16, wantUnicastResponse bool) ([]byte, error) {
	if !protocol.RecordType(recordType).IsSupported() {
		return nil, &errors.ValidationError{
			Field:   "recordType",
			Value:   recordType,
			Message: "unsupported record type",
		}
	}

	encodedName, err := EncodeName(name)
	if err != nil {
		return nil, err
	}

	header := buildQueryHeader()
	question := buildQuestionSection(encodedName, recordType, wantUnicastResponse)
	query := append(header, question...)

	return query, nil
}

func buildQueryHeader() []byte {
	header := make([]byte, 12)

	idBig, err := rand.Int(rand.Reader, big.NewInt(65536))
	if err != nil {
		idBig = big.NewInt(0)
	}
	id := uint16(idBig.Uint64() % 65536) //nolint:gosec // bounded to [0,65535] above
	binary.BigEndian.PutUint16(header[0:2], id)

	// Flags: all zero (QR=0, OPCODE=0, AA=0, TC=0, RD=0).
	binary.BigEndian.PutUint16(header[2:4], 0)
	binary.BigEndian.PutUint16(header[4:6], 1) // QDCOUNT
	binary.BigEndian.PutUint16(header[6:8], 0)
	binary.BigEndian.PutUint16(header[8:10], 0)
	binary.BigEndian.PutUint16(header[10:12], 0)

	return header
}

func buildQuestionSection(encodedName []byte, recordType uint16, wantUnicastResponse bool) []byte {
	question := make([]byte, 0, len(encodedName)+4)
	question = append(question, encodedName...)

	qtype := make([]byte, 2)
	binary.BigEndian.PutUint16(qtype, recordType)
	question = append(question, qtype...)

	qclass := uint16(protocol.ClassIN)
	if wantUnicastResponse {
		qclass |= protocol.UnicastResponseBit
	}
	qclassBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(qclassBytes, qclass)
	question = append(question, qclassBytes...)

	return question
}

// BuildResponse constructs an mDNS response message per RFC 6762 §18: a
// given id (0 for multicast responses, the query's id for unicast
// responses), flags 0x8400 (QR|AA), an empty question section, and all
// records packed into the answer section.
func BuildResponse(id uint16, answers []*ResourceRecord) ([]byte, error) {
	header := buildResponseHeader(id, len(answers))

	response := make([]byte, 0, 512)
	response = append(response, header...)

	for _, answer := range answers {
		answerBytes, err := serializeResourceRecord(answer)
		if err != nil {
			return nil, err
		}
		response = append(response, answerBytes...)
	}

	return response, nil
}

func buildResponseHeader(id uint16, answerCount int) []byte {
	header := make([]byte, 12)

	binary.BigEndian.PutUint16(header[0:2], id)

	flags := protocol.FlagQR | protocol.FlagAA
	binary.BigEndian.PutUint16(header[2:4], flags)

	binary.BigEndian.PutUint16(header[4:6], 0) // QDCOUNT

	if answerCount > 65535 { //nolint:gosec // bounded by 9000-byte datagram cap
		answerCount = 65535
	}
	binary.BigEndian.PutUint16(header[6:8], uint16(answerCount))

	binary.BigEndian.PutUint16(header[8:10], 0) // NSCOUNT
	binary.BigEndian.PutUint16(header[10:12], 0) // ARCOUNT

	return header
}

// serializeResourceRecord serializes a resource record to wire format per
// RFC 1035 §3.2.1: name, type, class (with cache-flush bit), TTL,
// rdlength, rdata.
func serializeResourceRecord(rr *ResourceRecord) ([]byte, error) {
	if rr == nil {
		return nil, &errors.ValidationError{
			Field:   "ResourceRecord",
			Value:   nil,
			Message: "cannot serialize nil resource record",
		}
	}

	encodedName, err := encodeRecordName(rr.Name)
	if err != nil {
		return nil, err
	}

	recordSize := len(encodedName) + 10 + len(rr.Data)
	record := make([]byte, 0, recordSize)
	record = append(record, encodedName...)

	typeBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(typeBytes, uint16(rr.Type))
	record = append(record, typeBytes...)

	class := uint16(rr.Class)
	if rr.CacheFlush {
		class |= protocol.CacheFlushBit
	}
	classBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(classBytes, class)
	record = append(record, classBytes...)

	ttlBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(ttlBytes, rr.TTL)
	record = append(record, ttlBytes...)

	rdataLen := len(rr.Data)
	if rdataLen > 65535 { //nolint:gosec // bounded by 9000-byte datagram cap
		rdataLen = 65535
	}
	rdlengthBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(rdlengthBytes, uint16(rdataLen))
	record = append(record, rdlengthBytes...)

	record = append(record, rr.Data...)

	return record, nil
}

// encodeRecordName encodes rr.Name, using the service-instance-name form
// (RFC 6763 §4.3, UTF-8/space-tolerant single label) whenever the name
// looks like "<instance>._service._proto...." rather than a plain
// hostname.
func encodeRecordName(name string) ([]byte, error) {
	if strings.Contains(name, "._") {
		parts := strings.SplitN(name, "._", 2)
		if len(parts) == 2 {
			return EncodeServiceInstanceName(parts[0], "_"+parts[1])
		}
	}
	return EncodeName(name)
}

// ResourceRecord is the outgoing form of a resource record: a name, type,
// class, TTL, and pre-encoded RDATA, ready for wire serialization by
// BuildResponse.
type ResourceRecord struct {
	Name       string
	Type       protocol.RecordType
	Class      protocol.DNSClass
	TTL        uint32
	Data       []byte
	CacheFlush bool
}

// EncodeARDATA encodes an IPv4 address as A-record RDATA (4 octets,
// big-endian).
func EncodeARDATA(ip net.IP) []byte {
	v4 := ip.To4()
	return []byte{v4[0], v4[1], v4[2], v4[3]}
}

// EncodeAAAARDATA encodes an IPv6 address as AAAA-record RDATA (16
// octets).
func EncodeAAAARDATA(ip net.IP) []byte {
	v6 := ip.To16()
	out := make([]byte, 16)
	copy(out, v6)
	return out
}

// EncodePTRRDATA encodes a PTR record's target name as RDATA, using the
// same service-instance-name form as encodeRecordName so an instance
// target may contain spaces.
func EncodePTRRDATA(target string) ([]byte, error) {
	return encodeRecordName(target)
}

// EncodeSRVRDATA encodes SRV-record RDATA: priority, weight, port,
// followed by the (uncompressed) target name.
func EncodeSRVRDATA(priority, weight, port uint16, target string) ([]byte, error) {
	targetBytes, err := EncodeName(target)
	if err != nil {
		return nil, err
	}

	rdata := make([]byte, 6, 6+len(targetBytes))
	binary.BigEndian.PutUint16(rdata[0:2], priority)
	binary.BigEndian.PutUint16(rdata[2:4], weight)
	binary.BigEndian.PutUint16(rdata[4:6], port)
	rdata = append(rdata, targetBytes...)

	return rdata, nil
}

// EncodeTXTRDATA encodes TXT-record RDATA: the concatenation of
// length-prefixed strings. An empty list encodes as a single zero-length
// string per RFC 6763 §6.1.
func EncodeTXTRDATA(fields []string) []byte {
	if len(fields) == 0 {
		return []byte{0x00}
	}

	rdata := make([]byte, 0, 64)
	for _, f := range fields {
		s := f
		if len(s) > 255 {
			s = s[:255]
		}
		rdata = append(rdata, byte(len(s)))
		rdata = append(rdata, []byte(s)...)
	}
	return rdata
}
