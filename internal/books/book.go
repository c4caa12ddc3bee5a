// Package books defines the internal Book model and the defensive pipeline
// that turns raw catalog volumes into validated application state.
package books

// DefaultLanguage is used when the catalog omits a language code.
const DefaultLanguage = "en"

// PlaceholderTitle is used when the catalog omits a title entirely.
const PlaceholderTitle = "Unknown Title"

// Book is the internal representation of a catalog volume. Books are built
// only by MapVolume followed by Sanitize and are never mutated afterwards,
// only replaced. Zero values mean "unknown" for the numeric fields.
type Book struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Subtitle string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Authors  []string `json:"authors" yaml:"authors"`

	Publisher     string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty" yaml:"published_date,omitempty"`
	PublishedYear int    `json:"publishedYear,omitempty" yaml:"published_year,omitempty"`
	PageCount     int    `json:"pageCount,omitempty" yaml:"page_count,omitempty"`
	Language      string `json:"language,omitempty" yaml:"language,omitempty"`

	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Categories  []string `json:"categories" yaml:"categories"`

	ISBN10 string `json:"isbn10,omitempty" yaml:"isbn10,omitempty"`
	ISBN13 string `json:"isbn13,omitempty" yaml:"isbn13,omitempty"`

	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`

	AverageRating float64 `json:"averageRating,omitempty" yaml:"average_rating,omitempty"`
	RatingsCount  int     `json:"ratingsCount" yaml:"ratings_count"`

	PreviewLink string `json:"previewLink,omitempty" yaml:"preview_link,omitempty"`
	InfoLink    string `json:"infoLink,omitempty" yaml:"info_link,omitempty"`
	BuyLink     string `json:"buyLink,omitempty" yaml:"buy_link,omitempty"`
}
