package querier

import (
	"net"

	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

// decodeRecords walks a raw incoming datagram and decodes every record in
// its answer and additional sections into wireRecords, ready for the
// aggregator. Authority-section records are skipped (advanced over, not
// decoded) since nothing in the querier consumes them.
//
// This walks the message by hand rather than through message.ParseMessage
// because PTR/SRV RDATA targets require the absolute offset of their RDATA
// within the full packet (domain-name compression may point anywhere
// earlier in the message), which message.Answer's isolated RDATA copy
// does not retain.
func decodeRecords(msg []byte) ([]wireRecord, error) {
	header, err := message.ParseHeader(msg)
	if err != nil {
		return nil, err
	}

	offset := 12

	for i := uint16(0); i < header.QDCount; i++ {
		_, newOffset, err := message.ParseQuestion(msg, offset)
		if err != nil {
			return nil, err
		}
		offset = newOffset
	}

	var out []wireRecord

	decodeSection := func(count uint16, collect bool) error {
		for i := uint16(0); i < count; i++ {
			answer, newOffset, err := message.ParseAnswer(msg, offset)
			if err != nil {
				return err
			}
			offset = newOffset

			if collect {
				rdataOffset := newOffset - int(answer.RDLENGTH)
				rec, ok, err := decodeOne(answer, msg, rdataOffset)
				if err != nil {
					return err
				}
				if ok {
					out = append(out, rec)
				}
			}
		}
		return nil
	}

	if err := decodeSection(header.ANCount, true); err != nil {
		return nil, err
	}
	if err := decodeSection(header.NSCount, false); err != nil {
		return nil, err
	}
	if err := decodeSection(header.ARCount, true); err != nil {
		return nil, err
	}

	return out, nil
}

func decodeOne(answer message.Answer, msg []byte, rdataOffset int) (wireRecord, bool, error) {
	parsed, err := message.ParseRDATA(answer.TYPE, msg, rdataOffset, answer.RDLENGTH)
	if err != nil {
		return wireRecord{}, false, err
	}
	if parsed == nil {
		return wireRecord{}, false, nil
	}

	rec := wireRecord{name: answer.NAME, typ: protocol.RecordType(answer.TYPE)}

	switch v := parsed.(type) {
	case string:
		rec.target = v
	case message.SRVData:
		rec.srv = v
		rec.target = v.Target
		rec.port = v.Port
	case []string:
		rec.txt = v
	case net.IP:
		rec.ip = v
	}

	return rec, true, nil
}
