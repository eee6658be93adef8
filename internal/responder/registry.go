// Package responder implements the zone composer and response-building
// logic used by the top-level Responder engine.
package responder

import (
	"sync"

	"github.com/onoffswitch/beacon-mdns/records"
)

// Composer concatenates per-zone answers across an ordered set of
// registered zones: for a given question, each zone's RecordsFor is
// queried in registration order and the results appended, with no
// cross-zone deduplication.
type Composer struct {
	mu    sync.RWMutex
	zones []*records.Zone
}

// NewComposer creates an empty Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Add registers z, appending it to the end of the zone list.
func (c *Composer) Add(z *records.Zone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zones = append(c.zones, z)
}

// Zones returns a snapshot of the registered zones in registration order.
func (c *Composer) Zones() []*records.Zone {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*records.Zone, len(c.zones))
	copy(out, c.zones)
	return out
}

// RecordsFor evaluates q against every registered zone in order and
// concatenates the results.
func (c *Composer) RecordsFor(q records.Question) records.Records {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out records.Records
	for _, z := range c.zones {
		r := z.RecordsFor(q)
		out.Answers = append(out.Answers, r.Answers...)
		out.Additionals = append(out.Additionals, r.Additionals...)
	}
	return out
}
