// Package message implements DNS name encoding and compression per RFC 1035 §4.1.4.
package message

import (
	"fmt"
	"strings"

	"github.com/onoffswitch/beacon-mdns/internal/errors"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// ParseName parses a DNS name from a message buffer, following compression
// pointers per RFC 1035 §4.1.4.
//
// Names are a sequence of length-prefixed labels terminated by a
// zero-length label. A length byte with both high bits set (0xC0) is
// instead a 14-bit pointer to an earlier offset in the same buffer; the
// reader seeks there and continues. Pointer loops are rejected by
// remembering every offset visited during this call and failing if one
// repeats.
//
// Parameters:
//   - msg: the complete DNS message buffer — compression pointers are
//     offsets into this buffer, so the isolated RDATA slice is never
//     sufficient; callers parsing RDATA-embedded names (PTR target, SRV
//     target) must pass the full message and the record's absolute offset.
//   - offset: the starting offset of the name within msg
//
// Returns the dotted-form name and the offset immediately following the
// name's on-wire encoding (i.e. after the pointer, for a name that used
// one; after the terminator, otherwise).
func ParseName(msg []byte, offset int) (name string, newOffset int, err error) {
	if offset < 0 || offset >= len(msg) {
		return "", offset, &errors.WireFormatError{
			Operation: "parse name",
			Offset:    offset,
			Message:   "offset out of bounds",
		}
	}

	var labels []string
	visited := make(map[int]bool)
	pos := offset
	jumped := false

	for {
		if pos >= len(msg) {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    pos,
				Message:   "unexpected end of message while parsing name",
			}
		}

		length := msg[pos]

		if (length & protocol.CompressionMask) == protocol.CompressionMask {
			if pos+1 >= len(msg) {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    pos,
					Message:   "truncated compression pointer",
				}
			}

			pointerOffset := int(msg[pos]&0x3F)<<8 | int(msg[pos+1])

			if visited[pointerOffset] {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    pos,
					Message:   fmt.Sprintf("compression pointer loop at offset %d", pointerOffset),
				}
			}
			visited[pos] = true

			if !jumped {
				newOffset = pos + 2
				jumped = true
			}

			pos = pointerOffset
			continue
		}

		if length == 0 {
			if !jumped {
				newOffset = pos + 1
			}
			break
		}

		if length > protocol.MaxLabelLength {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    pos,
				Message:   fmt.Sprintf("label length %d exceeds maximum %d bytes per RFC 1035 §3.1", length, protocol.MaxLabelLength),
			}
		}

		if pos+1+int(length) > len(msg) {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    pos,
				Message:   fmt.Sprintf("truncated label: expected %d bytes, only %d available", length, len(msg)-pos-1),
			}
		}

		labels = append(labels, string(msg[pos+1:pos+1+int(length)]))
		visited[pos] = true
		pos += 1 + int(length)
	}

	name = strings.Join(labels, ".")

	if len(name) > protocol.MaxNameLength {
		return "", offset, &errors.WireFormatError{
			Operation: "parse name",
			Offset:    offset,
			Message:   fmt.Sprintf("name length %d exceeds maximum %d bytes per RFC 1035 §3.1", len(name), protocol.MaxNameLength),
		}
	}

	return name, newOffset, nil
}

// EncodeServiceInstanceName encodes a service instance name per RFC 6763
// §4.3, where the instance portion is a single label that may contain
// arbitrary UTF-8 (including spaces), followed by the strictly-validated
// service type labels.
//
// Example: "My Printer" + "_http._tcp.local." encodes as
// [10]My Printer[5]_http[4]_tcp[5]local[0].
func EncodeServiceInstanceName(instanceName, serviceType string) ([]byte, error) {
	if len(instanceName) == 0 {
		return nil, &errors.ValidationError{
			Field:   "instanceName",
			Value:   instanceName,
			Message: "instance name cannot be empty",
		}
	}

	if len(instanceName) > protocol.MaxLabelLength {
		return nil, &errors.ValidationError{
			Field:   "instanceName",
			Value:   instanceName,
			Message: fmt.Sprintf("instance name exceeds maximum label length %d bytes", protocol.MaxLabelLength),
		}
	}

	encoded := make([]byte, 0, 256)
	encoded = append(encoded, byte(len(instanceName)))
	encoded = append(encoded, []byte(instanceName)...)

	serviceTypeEncoded, err := EncodeName(serviceType)
	if err != nil {
		return nil, fmt.Errorf("encoding service type: %w", err)
	}

	if len(serviceTypeEncoded) > 0 && serviceTypeEncoded[len(serviceTypeEncoded)-1] == 0 {
		serviceTypeEncoded = serviceTypeEncoded[:len(serviceTypeEncoded)-1]
	}

	encoded = append(encoded, serviceTypeEncoded...)
	encoded = append(encoded, 0)

	return encoded, nil
}

// EncodeName encodes a DNS name into wire format per RFC 1035 §3.1:
// length-prefixed labels terminated by a zero-length label. The packer
// does not perform output-side compression (RFC 6762 §18.14 makes it a
// SHOULD, not a MUST; readers must accept both compressed and
// uncompressed names regardless).
func EncodeName(name string) ([]byte, error) {
	if name == "" || name == "." {
		return []byte{0}, nil
	}

	labels := strings.Split(name, ".")
	if len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	encoded := make([]byte, 0, 256)
	for _, label := range labels {
		if len(label) == 0 {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: "empty label (consecutive dots)",
			}
		}

		if len(label) > protocol.MaxLabelLength {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: fmt.Sprintf("label %q exceeds maximum length %d bytes per RFC 1035 §3.1", label, protocol.MaxLabelLength),
			}
		}

		if label[0] == '-' || label[len(label)-1] == '-' {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: fmt.Sprintf("label %q: hyphen cannot be first or last character", label),
			}
		}

		for i, ch := range label {
			valid := (ch >= 'a' && ch <= 'z') ||
				(ch >= 'A' && ch <= 'Z') ||
				(ch >= '0' && ch <= '9') ||
				ch == '-' ||
				ch == '_'

			if !valid {
				return nil, &errors.ValidationError{
					Field:   "name",
					Value:   name,
					Message: fmt.Sprintf("invalid character %q in label %q (position %d)", ch, label, i),
				}
			}
		}

		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, []byte(label)...)
	}

	encoded = append(encoded, 0)

	if len(encoded) > protocol.MaxNameLength {
		return nil, &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("encoded name length %d exceeds maximum %d bytes per RFC 1035 §3.1", len(encoded), protocol.MaxNameLength),
		}
	}

	return encoded, nil
}
