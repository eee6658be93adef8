package responder

import (
	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
	"github.com/onoffswitch/beacon-mdns/records"
)

// ResponsePlan holds the multicast and unicast answer buckets built from
// the questions in a single incoming query, per RFC 6762 §6's
// unicast-response-bit routing rule. Both buckets are flat: a zone's
// answer and additional records for a matched question are appended to
// the same bucket, since the outgoing mDNS response places everything in
// the answer section (RFC 6762 §18).
type ResponsePlan struct {
	Multicast []*message.ResourceRecord
	Unicast   []*message.ResourceRecord
}

// Plan evaluates every question in query against composer's zones and
// partitions the resulting records by the question's U-bit. Questions
// that match nothing contribute to neither bucket.
func Plan(composer *Composer, query *message.DNSMessage) ResponsePlan {
	var plan ResponsePlan

	for _, q := range query.Questions {
		result := composer.RecordsFor(records.Question{Name: q.QNAME, Type: q.QTYPE})
		if len(result.Answers) == 0 && len(result.Additionals) == 0 {
			continue
		}

		if q.QCLASS&protocol.UnicastResponseBit != 0 {
			plan.Unicast = append(plan.Unicast, result.Answers...)
			plan.Unicast = append(plan.Unicast, result.Additionals...)
		} else {
			plan.Multicast = append(plan.Multicast, result.Answers...)
			plan.Multicast = append(plan.Multicast, result.Additionals...)
		}
	}

	return plan
}

// BuildMulticast packs recs into a wire-format response with id=0 per
// RFC 6762 §18.
func BuildMulticast(recs []*message.ResourceRecord) ([]byte, error) {
	return message.BuildResponse(0, recs)
}

// BuildUnicast packs recs into a wire-format response with id=queryID,
// answering the unicast bucket of a query per RFC 6762 §18.
func BuildUnicast(queryID uint16, recs []*message.ResourceRecord) ([]byte, error) {
	return message.BuildResponse(queryID, recs)
}
