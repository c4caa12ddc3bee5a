package books

// MergeUniqueByID appends the incoming books that are not already present in
// previous, comparing by id. The returned slice is a fresh copy; appendedCount
// is the number of genuinely new books, which is what the pagination cursor
// advances by.
func MergeUniqueByID(previous, incoming []Book) (merged []Book, appendedCount int) {
	seen := make(map[string]struct{}, len(previous))
	for _, b := range previous {
		seen[b.ID] = struct{}{}
	}

	merged = make([]Book, 0, len(previous)+len(incoming))
	merged = append(merged, previous...)

	for _, b := range incoming {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		merged = append(merged, b)
		appendedCount++
	}

	return merged, appendedCount
}
