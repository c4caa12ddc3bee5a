package books

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/lepinkainen/biblio/internal/googlebooks"
)

var leadingYearRe = regexp.MustCompile(`^(\d{4})`)

// MapVolume converts a raw catalog volume into a Book. It returns nil rather
// than an error when the record lacks an id or its info block; malformed
// records are dropped, never surfaced.
func MapVolume(v *googlebooks.Volume) *Book {
	if v == nil || v.ID == "" || v.VolumeInfo == nil {
		return nil
	}

	info := v.VolumeInfo

	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = PlaceholderTitle
	}

	language := info.Language
	if language == "" {
		language = DefaultLanguage
	}

	isbn10, isbn13 := extractISBNs(info.IndustryIdentifiers)

	book := &Book{
		ID:            v.ID,
		Title:         title,
		Subtitle:      strings.TrimSpace(info.Subtitle),
		Authors:       cleanStrings(info.Authors),
		Publisher:     strings.TrimSpace(info.Publisher),
		PublishedDate: info.PublishedDate,
		PublishedYear: parseLeadingYear(info.PublishedDate),
		PageCount:     max(info.PageCount, 0),
		Language:      language,
		Description:   strings.TrimSpace(info.Description),
		Categories:    cleanStrings(info.Categories),
		ISBN10:        isbn10,
		ISBN13:        isbn13,
		Thumbnail:     bestThumbnail(info.ImageLinks),
		AverageRating: info.AverageRating,
		RatingsCount:  max(info.RatingsCount, 0),
		PreviewLink:   info.PreviewLink,
		InfoLink:      info.InfoLink,
	}
	if v.SaleInfo != nil {
		book.BuyLink = v.SaleInfo.BuyLink
	}

	return book
}

// MapVolumes maps each volume and filters out the malformed ones, preserving
// order.
func MapVolumes(volumes []googlebooks.Volume) []Book {
	mapped := make([]Book, 0, len(volumes))
	for i := range volumes {
		book := MapVolume(&volumes[i])
		if book == nil {
			slog.Debug("Dropping malformed volume", "id", volumes[i].ID)
			continue
		}
		mapped = append(mapped, *book)
	}
	return mapped
}

// bestThumbnail picks the largest available cover variant and upgrades the
// scheme to https.
func bestThumbnail(links *googlebooks.ImageLinks) string {
	if links == nil {
		return ""
	}
	for _, candidate := range []string{
		links.ExtraLarge,
		links.Large,
		links.Medium,
		links.Small,
		links.Thumbnail,
		links.SmallThumbnail,
	} {
		if candidate != "" {
			return upgradeToHTTPS(candidate)
		}
	}
	return ""
}

func upgradeToHTTPS(rawURL string) string {
	if rest, ok := strings.CutPrefix(rawURL, "http://"); ok {
		return "https://" + rest
	}
	return rawURL
}

// extractISBNs scans the heterogeneous identifier list for ISBN type tags.
func extractISBNs(identifiers []googlebooks.IndustryIdentifier) (isbn10, isbn13 string) {
	for _, id := range identifiers {
		switch id.Type {
		case "ISBN_10":
			isbn10 = id.Identifier
		case "ISBN_13":
			isbn13 = id.Identifier
		}
	}
	return isbn10, isbn13
}

// parseLeadingYear extracts a leading 4-digit year from a free-form
// publication date ("2003", "2003-05-01", ...). Zero means unknown.
func parseLeadingYear(date string) int {
	match := leadingYearRe.FindStringSubmatch(date)
	if match == nil {
		return 0
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return year
}

func cleanStrings(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
