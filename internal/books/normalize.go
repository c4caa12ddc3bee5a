package books

import "strings"

// NormalizeQuery canonicalizes raw search text for comparison and cache keys:
// leading/trailing whitespace trimmed, internal whitespace runs collapsed to a
// single space, lowercased. Total and idempotent.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
