package books

import (
	"log/slog"
	"net/url"
)

// ValidationResult reports why a Book failed validation.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate performs the required-field checks every Book must pass before it
// enters application state: non-empty id, non-empty title, non-nil authors.
func Validate(b *Book) ValidationResult {
	if b == nil {
		return ValidationResult{Errors: []string{"book must not be nil"}}
	}

	var errs []string
	if b.ID == "" {
		errs = append(errs, "id is required")
	}
	if b.Title == "" {
		errs = append(errs, "title is required")
	}
	if b.Authors == nil {
		errs = append(errs, "authors must be a list")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Sanitize returns a cleaned copy of the Book, or nil if it fails validation.
// An unparseable thumbnail URL is nulled out and the list fields are coerced
// to empty slices so consumers never see nil.
func Sanitize(b *Book) *Book {
	if !Validate(b).Valid {
		return nil
	}

	clean := *b

	if clean.Thumbnail != "" && !isValidURL(clean.Thumbnail) {
		clean.Thumbnail = ""
	}
	if clean.Authors == nil {
		clean.Authors = []string{}
	}
	if clean.Categories == nil {
		clean.Categories = []string{}
	}

	return &clean
}

// SanitizeAll runs the sanitizer gate over a mapped batch, silently dropping
// records that fail validation. Every path that turns catalog volumes into
// user-visible output goes through this.
func SanitizeAll(list []Book) []Book {
	valid := make([]Book, 0, len(list))
	for i := range list {
		clean := Sanitize(&list[i])
		if clean == nil {
			slog.Debug("Dropping invalid book", "id", list[i].ID)
			continue
		}
		valid = append(valid, *clean)
	}
	return valid
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}
