/*
Package querier discovers DNS-SD services advertised over mDNS.

A Querier sends a PTR query for a service type ("_http._tcp.local.") over
IPv4 and IPv6 multicast and reassembles whatever PTR, SRV, TXT, A, and
AAAA records come back — from any number of responders, in any order —
into complete ServiceEntry values.

# Discovering services

Discover blocks until the configured timeout elapses (or ctx is done),
collecting every service instance that completes within that window:

	q, err := querier.New(querier.WithTimeout(2 * time.Second))
	if err != nil {
		log.Fatal(err)
	}

	entries, err := q.Discover(context.Background(), "_http._tcp")
	if err != nil {
		log.Fatal(err)
	}

	for _, e := range entries {
		fmt.Printf("%s: %v:%d\n", e.Name, e.IPv4, e.Port)
	}

# Streaming discovery

Query returns entries as they complete, without waiting for the whole
window to elapse:

	ch, err := q.Query(ctx, "_http._tcp")
	if err != nil {
		log.Fatal(err)
	}
	for entry := range ch {
		fmt.Println(entry.Name, entry.Host)
	}

# Completeness

A ServiceEntry is only emitted once it has an address (IPv4 or IPv6), a
non-zero port, and an observed TXT record — see ServiceEntry.Complete.
Each entry is emitted exactly once, at the point its arrival completes
it, regardless of how many further duplicate or updating records follow.
*/
package querier
