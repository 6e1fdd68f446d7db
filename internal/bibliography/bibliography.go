// Package bibliography reads the books table that lists a document's sources.
package bibliography

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/tafsirgest/internal/doctree"
)

// ErrNoBooksTable is returned when the document holds no four-column table.
var ErrNoBooksTable = errors.New("no books table found")

// Columns is the fixed width of a books table.
const Columns = 4

// Book is one row of the books table.
type Book struct {
	Codex           string   `json:"codex"`
	Name            string   `json:"name"`
	Authors         []string `json:"authors"`
	PublicationYear string   `json:"publication_year"`
}

// SkippedRow records a row that could not be read.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Catalog is the books table with any rows that were skipped.
type Catalog struct {
	BlockIndex int          `json:"block_index"`
	Books      []Book       `json:"books"`
	Skipped    []SkippedRow `json:"skipped,omitempty"`
}

// ReadBooks returns the books of the last four-column table in blocks.
func ReadBooks(blocks doctree.Blocks) ([]Book, error) {
	c, err := ReadCatalog(blocks)
	if err != nil {
		return nil, err
	}
	return c.Books, nil
}

// ReadCatalog is ReadBooks plus the skipped-row notes. Row 0 is a header.
func ReadCatalog(blocks doctree.Blocks) (*Catalog, error) {
	idx := -1
	for i, b := range blocks {
		if t, ok := b.(*doctree.Table); ok && t.Columns() == Columns {
			idx = i
		}
	}
	if idx < 0 {
		return nil, ErrNoBooksTable
	}

	table := blocks[idx].(*doctree.Table)
	c := &Catalog{BlockIndex: idx, Books: []Book{}}
	for r, row := range table.Rows {
		if r == 0 {
			continue
		}
		if len(row.Cells) < Columns {
			c.Skipped = append(c.Skipped, SkippedRow{
				Row:    r,
				Reason: fmt.Sprintf("has %d cells, want %d", len(row.Cells), Columns),
			})
			continue
		}
		book := Book{
			Codex:           strings.TrimSpace(row.Cells[0].Text()),
			Name:            strings.TrimSpace(row.Cells[1].Text()),
			Authors:         authors(row.Cells[2]),
			PublicationYear: strings.TrimSpace(row.Cells[3].Text()),
		}
		if book.Codex == "" && book.Name == "" && len(book.Authors) == 0 && book.PublicationYear == "" {
			c.Skipped = append(c.Skipped, SkippedRow{Row: r, Reason: "empty row"})
			continue
		}
		c.Books = append(c.Books, book)
	}
	return c, nil
}

// authors returns one author per non-blank paragraph of the cell.
func authors(cell doctree.Cell) []string {
	out := []string{}
	for _, b := range cell.Blocks {
		p, ok := b.(*doctree.Paragraph)
		if !ok {
			continue
		}
		if name := strings.TrimSpace(p.Text()); name != "" {
			out = append(out, name)
		}
	}
	return out
}
