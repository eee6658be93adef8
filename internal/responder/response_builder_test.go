package responder

import (
	"net"
	"testing"

	"github.com/onoffswitch/beacon-mdns/internal/message"
	"github.com/onoffswitch/beacon-mdns/internal/protocol"
)

func TestPlan_RoutesByUnicastBit(t *testing.T) {
	c := NewComposer()
	z := mustZone(t, "Instance", "_http._tcp")
	c.Add(z)

	query := &message.DNSMessage{
		Questions: []message.Question{
			{QNAME: z.ServiceAddr(), QTYPE: uint16(protocol.RecordTypePTR), QCLASS: uint16(protocol.ClassIN) | protocol.UnicastResponseBit},
		},
	}

	plan := Plan(c, query)
	if len(plan.Unicast) == 0 {
		t.Fatal("expected unicast bucket to be populated")
	}
	if len(plan.Multicast) != 0 {
		t.Fatal("expected multicast bucket to stay empty")
	}
}

func TestPlan_MulticastByDefault(t *testing.T) {
	c := NewComposer()
	z := mustZone(t, "Instance", "_http._tcp")
	c.Add(z)

	query := &message.DNSMessage{
		Questions: []message.Question{
			{QNAME: z.ServiceAddr(), QTYPE: uint16(protocol.RecordTypePTR), QCLASS: uint16(protocol.ClassIN)},
		},
	}

	plan := Plan(c, query)
	if len(plan.Multicast) == 0 {
		t.Fatal("expected multicast bucket to be populated")
	}
	if len(plan.Unicast) != 0 {
		t.Fatal("expected unicast bucket to stay empty")
	}
}

func TestPlan_UnmatchedQuestionContributesNothing(t *testing.T) {
	c := NewComposer()
	c.Add(mustZone(t, "Instance", "_http._tcp"))

	query := &message.DNSMessage{
		Questions: []message.Question{
			{QNAME: "_ssh._tcp.local.", QTYPE: uint16(protocol.RecordTypePTR), QCLASS: uint16(protocol.ClassIN)},
		},
	}

	plan := Plan(c, query)
	if len(plan.Multicast) != 0 || len(plan.Unicast) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestBuildMulticast_HeaderFields(t *testing.T) {
	recs := []*message.ResourceRecord{
		{Name: "x.local.", Type: protocol.RecordTypeA, Class: protocol.ClassIN, TTL: 120, Data: net.IPv4(1, 2, 3, 4).To4()},
	}

	payload, err := BuildMulticast(recs)
	if err != nil {
		t.Fatalf("BuildMulticast: %v", err)
	}

	header, err := message.ParseHeader(payload)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if header.ID != 0 {
		t.Errorf("multicast response ID = %d, want 0", header.ID)
	}
	if header.Flags != protocol.FlagQR|protocol.FlagAA {
		t.Errorf("flags = 0x%04x, want 0x8400", header.Flags)
	}
	if header.ANCount != 1 {
		t.Errorf("ANCount = %d, want 1", header.ANCount)
	}
}

func TestBuildUnicast_CarriesQueryID(t *testing.T) {
	recs := []*message.ResourceRecord{
		{Name: "x.local.", Type: protocol.RecordTypeA, Class: protocol.ClassIN, TTL: 120, Data: net.IPv4(1, 2, 3, 4).To4()},
	}

	payload, err := BuildUnicast(0xBEEF, recs)
	if err != nil {
		t.Fatalf("BuildUnicast: %v", err)
	}

	header, err := message.ParseHeader(payload)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if header.ID != 0xBEEF {
		t.Errorf("unicast response ID = 0x%04x, want 0xBEEF", header.ID)
	}
}
