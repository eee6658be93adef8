package responder

import (
	"net"
	"testing"

	"github.com/onoffswitch/beacon-mdns/internal/protocol"
	"github.com/onoffswitch/beacon-mdns/records"
)

type fixedResolver struct{ ips []net.IP }

func (f fixedResolver) LookupIPAddr(string) ([]net.IP, error) { return f.ips, nil }

func mustZone(t *testing.T, instance, service string) *records.Zone {
	t.Helper()
	z, err := records.NewZone(records.ServiceConfig{
		Instance: instance,
		Service:  service,
		Domain:   "local.",
		HostName: "host.local.",
		Port:     80,
		IPs:      []net.IP{net.IPv4(192, 168, 0, 1)},
	}, fixedResolver{})
	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}
	return z
}

func TestComposer_ConcatenatesInOrder(t *testing.T) {
	c := NewComposer()
	z1 := mustZone(t, "Printer A", "_http._tcp")
	z2 := mustZone(t, "Printer B", "_http._tcp")
	c.Add(z1)
	c.Add(z2)

	result := c.RecordsFor(records.Question{Name: z1.ServiceAddr(), Type: uint16(protocol.RecordTypePTR)})
	if len(result.Answers) != 2 {
		t.Fatalf("expected 2 PTR answers (one per zone), got %d", len(result.Answers))
	}
	if string(result.Answers[0].Data) == string(result.Answers[1].Data) {
		t.Fatalf("expected distinct PTR targets per zone")
	}
}

func TestComposer_NoCrossZoneDedup(t *testing.T) {
	c := NewComposer()
	c.Add(mustZone(t, "Same", "_http._tcp"))
	c.Add(mustZone(t, "Same", "_http._tcp"))

	result := c.RecordsFor(records.Question{Name: "_http._tcp.local.", Type: uint16(protocol.RecordTypePTR)})
	if len(result.Answers) != 2 {
		t.Fatalf("expected duplicate answers preserved, got %d", len(result.Answers))
	}
}

func TestComposer_EmptyWhenNoZonesMatch(t *testing.T) {
	c := NewComposer()
	c.Add(mustZone(t, "X", "_http._tcp"))

	result := c.RecordsFor(records.Question{Name: "_ssh._tcp.local.", Type: uint16(protocol.RecordTypePTR)})
	if len(result.Answers) != 0 || len(result.Additionals) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
