package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/tafsirgest/internal/bibliography"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Open opens a database connection for driver and verifies it.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on&_busy_timeout=5000"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection avoids "database is locked".
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// timeLayout is fixed-width so parsed_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore is a Sink backed by SQLite or PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open database. driver selects the placeholder dialect.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Migrate creates the schema. It is idempotent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			source_ref TEXT NOT NULL DEFAULT '',
			hash TEXT NOT NULL,
			chapter_number INTEGER NOT NULL,
			verse_count INTEGER NOT NULL,
			parsed_json TEXT NOT NULL,
			parsed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents (hash)`,
		`CREATE TABLE IF NOT EXISTS verses (
			document_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			number INTEGER NOT NULL,
			label TEXT NOT NULL,
			block_index INTEGER NOT NULL,
			PRIMARY KEY (document_id, number)
		)`,
		`CREATE TABLE IF NOT EXISTS subsections (
			document_id TEXT NOT NULL,
			verse_number INTEGER NOT NULL,
			kind TEXT NOT NULL,
			heading_index INTEGER NOT NULL,
			start_index INTEGER NOT NULL,
			end_index INTEGER NOT NULL,
			content_json TEXT NOT NULL,
			PRIMARY KEY (document_id, verse_number, kind),
			FOREIGN KEY (document_id, verse_number) REFERENCES verses (document_id, number) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			document_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			codex TEXT NOT NULL,
			name TEXT NOT NULL,
			publication_year TEXT NOT NULL,
			PRIMARY KEY (document_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS book_authors (
			document_id TEXT NOT NULL,
			book_position INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (document_id, book_position, position),
			FOREIGN KEY (document_id, book_position) REFERENCES books (document_id, position) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) Save(ctx context.Context, r *Record) error {
	if r == nil || r.Document == nil {
		return errors.New("save document: nil record")
	}
	if r.DocID == "" {
		return errors.New("save document: empty doc id")
	}
	parsed, err := json.Marshal(r.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	parsedAt := r.ParsedAt
	if parsedAt.IsZero() {
		parsedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM subsections WHERE document_id = ?",
		"DELETE FROM verses WHERE document_id = ?",
		"DELETE FROM book_authors WHERE document_id = ?",
		"DELETE FROM books WHERE document_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, s.rebind(q), r.DocID); err != nil {
			return fmt.Errorf("clear document %s: %w", r.DocID, err)
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO documents (id, title, source, source_ref, hash, chapter_number, verse_count, parsed_json, parsed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 title = excluded.title, source = excluded.source, source_ref = excluded.source_ref,
		 hash = excluded.hash, chapter_number = excluded.chapter_number,
		 verse_count = excluded.verse_count, parsed_json = excluded.parsed_json,
		 parsed_at = excluded.parsed_at`),
		r.DocID, r.Title, r.Source, r.SourceRef, r.Hash,
		r.Document.ChapterNumber, len(r.Document.Verses), string(parsed),
		parsedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", r.DocID, err)
	}

	for _, v := range r.Document.Verses {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO verses (document_id, number, label, block_index) VALUES (?, ?, ?, ?)"),
			r.DocID, v.Number, v.Label, v.BlockIndex,
		); err != nil {
			return fmt.Errorf("insert verse %d: %w", v.Number, err)
		}
		for _, kind := range exegesis.Kinds {
			sub, ok := v.Subsections[kind]
			if !ok {
				continue
			}
			content, err := json.Marshal(sub.Content)
			if err != nil {
				return fmt.Errorf("marshal subsection %s: %w", kind, err)
			}
			if _, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO subsections (document_id, verse_number, kind, heading_index, start_index, end_index, content_json)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`),
				r.DocID, v.Number, kind.String(), sub.HeadingIndex, sub.Start, sub.End, string(content),
			); err != nil {
				return fmt.Errorf("insert subsection %d/%s: %w", v.Number, kind, err)
			}
		}
	}

	for i, b := range r.Books {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO books (document_id, position, codex, name, publication_year) VALUES (?, ?, ?, ?, ?)"),
			r.DocID, i, b.Codex, b.Name, b.PublicationYear,
		); err != nil {
			return fmt.Errorf("insert book %d: %w", i, err)
		}
		for j, a := range b.Authors {
			if _, err := tx.ExecContext(ctx, s.rebind(
				"INSERT INTO book_authors (document_id, book_position, position, name) VALUES (?, ?, ?, ?)"),
				r.DocID, i, j, a,
			); err != nil {
				return fmt.Errorf("insert author %d/%d: %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document %s: %w", r.DocID, err)
	}
	return nil
}

func (s *SQLStore) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id FROM documents WHERE hash = ? ORDER BY parsed_at DESC LIMIT 1"), hash,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	return id, true, nil
}

func (s *SQLStore) Get(ctx context.Context, docID string) (*Record, error) {
	var (
		r        Record
		parsed   string
		parsedAt string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT id, title, source, source_ref, hash, parsed_json, parsed_at FROM documents WHERE id = ?"), docID,
	).Scan(&r.DocID, &r.Title, &r.Source, &r.SourceRef, &r.Hash, &parsed, &parsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, err)
	}

	r.Document = &exegesis.ParsedDocument{}
	if err := json.Unmarshal([]byte(parsed), r.Document); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", docID, err)
	}
	if r.ParsedAt, err = time.Parse(timeLayout, parsedAt); err != nil {
		return nil, fmt.Errorf("parse parsed_at: %w", err)
	}
	if r.Books, err = s.books(ctx, docID); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) books(ctx context.Context, docID string) ([]bibliography.Book, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT b.position, b.codex, b.name, b.publication_year, a.name
		 FROM books b LEFT JOIN book_authors a
		   ON a.document_id = b.document_id AND a.book_position = b.position
		 WHERE b.document_id = ?
		 ORDER BY b.position, a.position`), docID)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []bibliography.Book
	last := -1
	for rows.Next() {
		var (
			pos    int
			b      bibliography.Book
			author sql.NullString
		)
		if err := rows.Scan(&pos, &b.Codex, &b.Name, &b.PublicationYear, &author); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		if pos != last {
			b.Authors = []string{}
			books = append(books, b)
			last = pos
		}
		if author.Valid {
			cur := &books[len(books)-1]
			cur.Authors = append(cur.Authors, author.String)
		}
	}
	return books, rows.Err()
}

func (s *SQLStore) GetVerse(ctx context.Context, docID string, number int) (*exegesis.Verse, error) {
	v := exegesis.Verse{Subsections: map[exegesis.SubsectionKind]*exegesis.Subsection{}}
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT number, label, block_index FROM verses WHERE document_id = ? AND number = ?"), docID, number,
	).Scan(&v.Number, &v.Label, &v.BlockIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verse %s/%d: %w", docID, number, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT kind, heading_index, start_index, end_index, content_json
		 FROM subsections WHERE document_id = ? AND verse_number = ?`), docID, number)
	if err != nil {
		return nil, fmt.Errorf("query subsections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind    string
			content string
			sub     exegesis.Subsection
		)
		if err := rows.Scan(&kind, &sub.HeadingIndex, &sub.Start, &sub.End, &content); err != nil {
			return nil, fmt.Errorf("scan subsection: %w", err)
		}
		if sub.Kind, err = exegesis.ParseKind(kind); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(content), &sub.Content); err != nil {
			return nil, fmt.Errorf("decode subsection %s: %w", kind, err)
		}
		v.Subsections[sub.Kind] = &sub
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, title, source, hash, chapter_number, verse_count, parsed_at
		 FROM documents ORDER BY parsed_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum      Summary
			parsedAt string
		)
		if err := rows.Scan(&sum.DocID, &sum.Title, &sum.Source, &sum.Hash, &sum.ChapterNumber, &sum.VerseCount, &parsedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if sum.ParsedAt, err = time.Parse(timeLayout, parsedAt); err != nil {
			return nil, fmt.Errorf("parse parsed_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM documents WHERE id = ?"), docID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
