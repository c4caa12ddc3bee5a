package books

import (
	"strconv"
	"strings"
)

// FormatAuthors joins the author list for display.
func FormatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown author"
	}
	return strings.Join(authors, ", ")
}

// FormatYear renders the published year, or a dash when unknown.
func FormatYear(year int) string {
	if year <= 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

// Truncate shortens text to maxLen runes, ellipsized.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
