package favorites

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/biblio/internal/books"
)

// noteFrontmatter is the YAML header written to each exported note.
type noteFrontmatter struct {
	Title      string   `yaml:"title"`
	Type       string   `yaml:"type"`
	Authors    []string `yaml:"authors,omitempty"`
	Year       int      `yaml:"year,omitempty"`
	Publisher  string   `yaml:"publisher,omitempty"`
	Pages      int      `yaml:"pages,omitempty"`
	ISBN13     string   `yaml:"isbn13,omitempty"`
	ISBN10     string   `yaml:"isbn10,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	Rating     float64  `yaml:"rating,omitempty"`
	Language   string   `yaml:"language,omitempty"`
}

// ExportMarkdown writes one markdown note per favorite into directory,
// returning the number of notes written. Existing notes are skipped unless
// overwrite is set.
func (s *Store) ExportMarkdown(directory string, overwrite bool) (int, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	written := 0
	for _, book := range s.List() {
		path := filepath.Join(directory, sanitizeFilename(book.Title)+".md")
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				slog.Info("Note already exists, skipping", "filename", path)
				continue
			}
		}

		note, err := renderNote(book)
		if err != nil {
			return written, fmt.Errorf("failed to render note for %q: %w", book.Title, err)
		}
		if err := os.WriteFile(path, note, 0644); err != nil {
			return written, fmt.Errorf("failed to write note: %w", err)
		}

		slog.Info("Wrote note", "filename", path)
		written++
	}
	return written, nil
}

func renderNote(book books.Book) ([]byte, error) {
	header, err := yaml.Marshal(noteFrontmatter{
		Title:      book.Title,
		Type:       "book",
		Authors:    book.Authors,
		Year:       book.PublishedYear,
		Publisher:  book.Publisher,
		Pages:      book.PageCount,
		ISBN13:     book.ISBN13,
		ISBN10:     book.ISBN10,
		Categories: book.Categories,
		Rating:     book.AverageRating,
		Language:   book.Language,
	})
	if err != nil {
		return nil, err
	}

	var doc strings.Builder
	doc.WriteString("---\n")
	doc.Write(header)
	doc.WriteString("---\n\n")

	if book.Thumbnail != "" {
		fmt.Fprintf(&doc, "![](%s)\n\n", book.Thumbnail)
	}
	if book.Description != "" {
		doc.WriteString(book.Description)
		doc.WriteString("\n\n")
	}
	if book.InfoLink != "" {
		fmt.Fprintf(&doc, "[More info](%s)\n", book.InfoLink)
	}

	return []byte(doc.String()), nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, ":", " -")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "untitled"
	}
	return name
}
