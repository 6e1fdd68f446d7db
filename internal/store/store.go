// Package store persists parsed documents.
package store

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_sink.go -package=mocks github.com/dgallion1/tafsirgest/internal/store Sink

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/tafsirgest/internal/bibliography"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// Source values for Record.Source.
const (
	SourceUpload = "upload"
	SourceGDocs  = "gdocs"
)

// Record is a parsed document together with where it came from.
type Record struct {
	DocID     string                   `json:"doc_id"`
	Title     string                   `json:"title"`
	Source    string                   `json:"source"`
	SourceRef string                   `json:"source_ref"`
	Hash      string                   `json:"hash"`
	Document  *exegesis.ParsedDocument `json:"document"`
	Books     []bibliography.Book      `json:"books,omitempty"`
	ParsedAt  time.Time                `json:"parsed_at"`
}

// Summary is the listing view of a Record.
type Summary struct {
	DocID         string    `json:"doc_id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	Hash          string    `json:"hash"`
	ChapterNumber int       `json:"chapter_number"`
	VerseCount    int       `json:"verse_count"`
	ParsedAt      time.Time `json:"parsed_at"`
}

// Sink stores parsed documents.
type Sink interface {
	// Save inserts or replaces the record with r.DocID.
	Save(ctx context.Context, r *Record) error
	// FindByHash returns the id of a document with the given content hash.
	FindByHash(ctx context.Context, hash string) (docID string, found bool, err error)
	// Get returns ErrNotFound if no document has docID.
	Get(ctx context.Context, docID string) (*Record, error)
	// GetVerse returns one verse of a stored document, or ErrNotFound.
	GetVerse(ctx context.Context, docID string, number int) (*exegesis.Verse, error)
	// List returns the most recently parsed documents first.
	List(ctx context.Context, limit int) ([]Summary, error)
	// Delete removes a document. Deleting a missing document returns ErrNotFound.
	Delete(ctx context.Context, docID string) error
}

// Summarize builds the listing view of r.
func Summarize(r *Record) Summary {
	s := Summary{
		DocID:    r.DocID,
		Title:    r.Title,
		Source:   r.Source,
		Hash:     r.Hash,
		ParsedAt: r.ParsedAt,
	}
	if r.Document != nil {
		s.ChapterNumber = r.Document.ChapterNumber
		s.VerseCount = len(r.Document.Verses)
	}
	return s
}
