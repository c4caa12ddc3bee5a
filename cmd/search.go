package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lepinkainen/biblio/internal/books"
	"github.com/lepinkainen/biblio/internal/config"
	"github.com/lepinkainen/biblio/internal/googlebooks"
)

// SearchCmd represents the search command
type SearchCmd struct {
	Query []string `arg:"" optional:"" help:"Free-text query"`

	// Fielded query flags, combined with the free-text query
	Title     string `help:"Match words in the title"`
	Author    string `help:"Match an author name"`
	ISBN      string `help:"Match an ISBN (hyphens and spaces are ignored)"`
	Subject   string `help:"Match a subject/category"`
	Publisher string `help:"Match a publisher name"`

	Page     int    `help:"Result page to show" default:"1"`
	PageSize int    `help:"Results per page (1-40)" default:"10"`
	Lang     string `help:"Restrict results to a two-letter language code"`
	Newest   bool   `help:"Order by publication date instead of relevance"`
	JSON     bool   `help:"Print results as JSON"`
}

// DetailCmd represents the detail command
type DetailCmd struct {
	ID      string `arg:"" help:"Volume id to look up"`
	NoCache bool   `help:"Bypass the local volume cache"`
	JSON    bool   `help:"Print the volume as JSON"`
}

func newBooksClient() *googlebooks.Client {
	return googlebooks.NewClient(
		googlebooks.WithAPIKey(config.GoogleBooksAPIKey),
	)
}

func (s *SearchCmd) buildQuery() (string, error) {
	freeText := books.NormalizeQuery(strings.Join(s.Query, " "))

	fielded, err := googlebooks.BuildAdvancedQuery(googlebooks.AdvancedQuery{
		Title:     s.Title,
		Author:    s.Author,
		ISBN:      s.ISBN,
		Subject:   s.Subject,
		Publisher: s.Publisher,
	})
	if err != nil && !errors.Is(err, googlebooks.ErrNoCriteria) {
		return "", err
	}

	query := strings.TrimSpace(freeText + " " + fielded)
	if query == "" {
		return "", googlebooks.ErrEmptyQuery
	}
	return query, nil
}

func (s *SearchCmd) Run() error {
	query, err := s.buildQuery()
	if err != nil {
		return err
	}

	if s.Page < 1 {
		s.Page = 1
	}

	orderBy := googlebooks.OrderByRelevance
	if s.Newest {
		orderBy = googlebooks.OrderByNewest
	}

	client := newBooksClient()
	resp, err := client.Search(context.Background(), query, googlebooks.SearchOptions{
		StartIndex:   (s.Page - 1) * s.PageSize,
		MaxResults:   s.PageSize,
		OrderBy:      orderBy,
		LangRestrict: s.Lang,
	})
	if err != nil {
		return err
	}

	results := books.SanitizeAll(books.MapVolumes(resp.Items))
	if s.JSON {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	fmt.Printf("Showing %d of %d results (page %d)\n\n", len(results), resp.TotalItems, s.Page)
	for _, book := range results {
		printBookLine(book)
	}
	return nil
}

func (d *DetailCmd) Run() error {
	client := newBooksClient()

	var volume *googlebooks.Volume
	var err error
	if d.NoCache {
		volume, err = client.GetVolume(context.Background(), d.ID)
	} else {
		volume, _, err = client.GetVolumeCached(context.Background(), d.ID)
	}
	if err != nil {
		return err
	}

	book := books.Sanitize(books.MapVolume(volume))
	if book == nil {
		return fmt.Errorf("volume %s has no usable data", d.ID)
	}

	if d.JSON {
		return printJSON(book)
	}

	printBookDetail(*book)
	return nil
}

func printBookLine(book books.Book) {
	fmt.Printf("%-14s %s (%s) by %s\n",
		book.ID,
		book.Title,
		books.FormatYear(book.PublishedYear),
		books.FormatAuthors(book.Authors))
}

func printBookDetail(book books.Book) {
	fmt.Printf("%s\n", book.Title)
	if book.Subtitle != "" {
		fmt.Printf("%s\n", book.Subtitle)
	}
	fmt.Printf("\nAuthors:   %s\n", books.FormatAuthors(book.Authors))
	fmt.Printf("Published: %s", books.FormatYear(book.PublishedYear))
	if book.Publisher != "" {
		fmt.Printf(" by %s", book.Publisher)
	}
	fmt.Println()
	if book.PageCount > 0 {
		fmt.Printf("Pages:     %d\n", book.PageCount)
	}
	if book.ISBN13 != "" {
		fmt.Printf("ISBN-13:   %s\n", book.ISBN13)
	}
	if book.ISBN10 != "" {
		fmt.Printf("ISBN-10:   %s\n", book.ISBN10)
	}
	if len(book.Categories) > 0 {
		fmt.Printf("Subjects:  %s\n", strings.Join(book.Categories, ", "))
	}
	if book.AverageRating > 0 {
		fmt.Printf("Rating:    %.1f (%d ratings)\n", book.AverageRating, book.RatingsCount)
	}
	if book.Description != "" {
		fmt.Printf("\n%s\n", books.Truncate(book.Description, 600))
	}
	if book.InfoLink != "" {
		fmt.Printf("\n%s\n", book.InfoLink)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
