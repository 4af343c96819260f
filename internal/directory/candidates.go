package directory

import "strings"

// DefaultMaxCandidates bounds the session candidate list when no limit is
// configured.
const DefaultMaxCandidates = 5

// PrepareCandidates turns a raw search result into a session-ready
// candidate list: telehealth-only providers are excluded at ingestion,
// string fields are normalized, and the list is truncated to max entries.
// The directory's ranking order is preserved; no local re-sorting.
func PrepareCandidates(providers []Provider, max int) []Provider {
	if max <= 0 {
		max = DefaultMaxCandidates
	}

	out := make([]Provider, 0, max)
	for _, p := range providers {
		if p.Telehealth {
			continue
		}
		p.Name = normalizeText(p.Name)
		p.Specialty = normalizeText(p.Specialty)
		p.Location.Address = normalizeText(p.Location.Address)
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}

// normalizeText trims the string and collapses embedded newlines and
// runs of whitespace to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
