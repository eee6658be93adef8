// Package txt implements the DNS-SD TXT record key/value convention
// (RFC 6763 §6): a TXT record is a set of length-prefixed strings, each
// either "key=value" or a bare "key" meaning presence with an empty
// value.
package txt

import "strings"

// MakeTXT renders fields as DNS-SD TXT strings, one "key=value" entry
// per map entry (or bare "key" when value is empty). Iteration order
// over a Go map is unspecified, so callers that need a stable wire
// encoding should not rely on the returned order.
func MakeTXT(fields map[string]string) []string {
	out := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			out = append(out, k)
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

// ParseTXT parses TXT strings back into a key/value map. A bare entry
// with no "=" becomes (key, ""). Duplicate keys: last one wins.
func ParseTXT(strs []string) map[string]string {
	fields := make(map[string]string, len(strs))
	for _, s := range strs {
		if idx := strings.IndexByte(s, '='); idx >= 0 {
			fields[s[:idx]] = s[idx+1:]
		} else {
			fields[s] = ""
		}
	}
	return fields
}
