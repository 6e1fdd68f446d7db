package pipeline

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_fetcher.go -package=mocks github.com/dgallion1/tafsirgest/internal/pipeline Fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/tafsirgest/internal/bibliography"
	"github.com/dgallion1/tafsirgest/internal/doctree"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
	"github.com/dgallion1/tafsirgest/internal/parser"
	"github.com/dgallion1/tafsirgest/internal/store"
)

// Fetcher loads a remote document as blocks plus its title.
type Fetcher interface {
	Fetch(ctx context.Context, documentID string) (doctree.Blocks, string, error)
}

// ErrNoFetcher is returned for remote jobs when no document source is configured.
var ErrNoFetcher = errors.New("google docs source not configured")

// Worker processes a single parse job.
type Worker struct {
	fetcher   Fetcher
	sink      store.Sink
	parser    *exegesis.Parser
	readBooks bool
	stats     *ParseStats
	log       *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewWorker creates a worker. fetcher and sink may be nil.
func NewWorker(fetcher Fetcher, sink store.Sink, p *exegesis.Parser, readBooks bool, stats *ParseStats, log *slog.Logger) *Worker {
	if p == nil {
		p = exegesis.NewParser()
	}
	if stats == nil {
		stats = NewParseStats(time.Hour)
	}
	return &Worker{
		fetcher:   fetcher,
		sink:      sink,
		parser:    p,
		readBooks: readBooks,
		stats:     stats,
		log:       log,
		backoff:   Backoff,
	}
}

// Process runs the full parse pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "source", job.Source)

	// Phase 1: Load blocks.
	blocks, err := w.load(ctx, log, job)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "loading")
		return
	}

	raw, err := json.Marshal(blocks)
	if err != nil {
		job.AddError(fmt.Sprintf("hash: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}
	hash := ContentHashHex(raw)
	job.SetContentHash(hash)

	// Phase 1.5: Dedup check.
	if w.sink != nil && !job.Force {
		existing, found, err := w.sink.FindByHash(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if found {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.MarkDuplicate(existing)
			return
		}
	}

	// Phase 2: Parse.
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	doc, err := w.parser.Parse(blocks)
	w.stats.Record(time.Since(start))
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	log.Info("parsed document", "chapter", doc.ChapterNumber, "verses", len(doc.Verses), "diagnostics", len(doc.Diagnostics))

	var books []bibliography.Book
	if w.readBooks {
		books, err = bibliography.ReadBooks(blocks)
		if err != nil {
			log.Debug("no bibliography", "error", err)
			job.AddNote(err.Error())
		}
	}

	snap := job.Snapshot()
	rec := &store.Record{
		DocID:     snap.DocID,
		Title:     snap.Title,
		Source:    snap.Source,
		SourceRef: snap.SourceRef,
		Hash:      hash,
		Document:  doc,
		Books:     books,
		ParsedAt:  time.Now().UTC(),
	}
	job.SetResult(rec)

	if w.sink == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Store.
	job.SetStatus(StatusStoring, "storing")
	err = w.retry(ctx, log, "save", func(ctx context.Context) error {
		return w.sink.Save(ctx, rec)
	})
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	log.Info("stored document")
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) load(ctx context.Context, log *slog.Logger, job *Job) (doctree.Blocks, error) {
	if job.Source == store.SourceGDocs {
		if w.fetcher == nil {
			return nil, ErrNoFetcher
		}
		job.SetStatus(StatusFetching, "fetching")
		var blocks doctree.Blocks
		var title string
		err := w.retry(ctx, log, "fetch", func(ctx context.Context) error {
			var err error
			blocks, title, err = w.fetcher.Fetch(ctx, job.SourceRef)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", job.SourceRef, err)
		}
		job.SetTitle(title)
		return blocks, nil
	}

	// The upload is only needed for conversion, whatever its outcome.
	defer job.releaseFileData()

	job.SetStatus(StatusParsing, "converting")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		return nil, err
	}
	blocks, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	return blocks, nil
}

// retry runs fn up to MaxRetries times while it fails with a retryable error.
func (w *Worker) retry(ctx context.Context, log *slog.Logger, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = fn(ctx)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable error", "op", op, "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
