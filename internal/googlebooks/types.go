package googlebooks

// SearchResponse is the wire format of the volumes search endpoint.
type SearchResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single catalog record as returned by the API.
type Volume struct {
	ID         string      `json:"id"`
	VolumeInfo *VolumeInfo `json:"volumeInfo"`
	SaleInfo   *SaleInfo   `json:"saleInfo,omitempty"`
}

// VolumeInfo carries the descriptive block of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle,omitempty"`
	Authors             []string             `json:"authors,omitempty"`
	Publisher           string               `json:"publisher,omitempty"`
	PublishedDate       string               `json:"publishedDate,omitempty"`
	Description         string               `json:"description,omitempty"`
	PageCount           int                  `json:"pageCount,omitempty"`
	Categories          []string             `json:"categories,omitempty"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers,omitempty"`
	ImageLinks          *ImageLinks          `json:"imageLinks,omitempty"`
	AverageRating       float64              `json:"averageRating,omitempty"`
	RatingsCount        int                  `json:"ratingsCount,omitempty"`
	Language            string               `json:"language,omitempty"`
	PreviewLink         string               `json:"previewLink,omitempty"`
	InfoLink            string               `json:"infoLink,omitempty"`
}

// IndustryIdentifier is one entry of the heterogeneous identifier list.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks lists the available cover variants, smallest to largest.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Small          string `json:"small,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Large          string `json:"large,omitempty"`
	ExtraLarge     string `json:"extraLarge,omitempty"`
}

// SaleInfo carries purchase information for a volume.
type SaleInfo struct {
	BuyLink string `json:"buyLink,omitempty"`
}
