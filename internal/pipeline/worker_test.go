package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/dgallion1/tafsirgest/internal/config"
	"github.com/dgallion1/tafsirgest/internal/doctree"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
	"github.com/dgallion1/tafsirgest/internal/gdocs"
	"github.com/dgallion1/tafsirgest/internal/pathstore"
	pipeline_mocks "github.com/dgallion1/tafsirgest/internal/pipeline/mocks"
	"github.com/dgallion1/tafsirgest/internal/store"
	store_mocks "github.com/dgallion1/tafsirgest/internal/store/mocks"
)

const chapterHTML = `<html><body>
<p style="text-align:center"><b>2:1</b></p>
<p><u>Linguistic Meaning</u></p>
<p>p1</p>
<p><u>Variant Readings</u></p>
<p>p2</p>
<p style="text-align:center"><b>2:2</b></p>
<p>p3</p>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(fetcher Fetcher, sink store.Sink) *Worker {
	w := NewWorker(fetcher, sink, nil, true, nil, discardLogger())
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

func uploadJob() *Job {
	return NewUploadJob("doc-1", "baqarah.html", "Al-Baqarah", []byte(chapterHTML))
}

func TestWorker_UploadCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Return("", false, nil)

	var saved *store.Record
	sink.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *store.Record) error {
		saved = r
		return nil
	})

	job := uploadJob()
	newTestWorker(nil, sink).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.VerseCount != 2 {
		t.Errorf("expected 2 verses, got %d", snap.Progress.VerseCount)
	}
	if len(snap.Progress.Notes) != 1 {
		t.Errorf("expected a missing-bibliography note, got %v", snap.Progress.Notes)
	}
	if saved == nil || saved.DocID != "doc-1" || saved.Hash != snap.ContentHash || saved.Source != store.SourceUpload {
		t.Fatalf("unexpected saved record %+v", saved)
	}
	v, _ := saved.Document.Verse(1)
	lm, ok := v.Subsection(exegesis.LinguisticMeaning)
	if !ok || len(lm.Content) != 1 {
		t.Errorf("expected one linguistic meaning block, got %+v", lm)
	}
	if job.FileData() != nil {
		t.Error("expected upload bytes to be released after conversion")
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Return("doc-old", true, nil)
	sink.EXPECT().Save(gomock.Any(), gomock.Any()).Times(0)

	job := uploadJob()
	newTestWorker(nil, sink).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusDupSkipped || snap.DuplicateOf != "doc-old" {
		t.Errorf("expected duplicate_skipped of doc-old, got %+v", snap)
	}
	if job.Result() != nil {
		t.Error("expected no result for a skipped duplicate")
	}
}

func TestWorker_ForceSkipsDedup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Times(0)
	sink.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	job := uploadJob()
	job.Force = true
	newTestWorker(nil, sink).Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestWorker_DedupErrorProceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Return("", false, errors.New("db locked"))
	sink.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	job := uploadJob()
	newTestWorker(nil, sink).Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestWorker_RetryableSaveSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Return("", false, nil)
	gomock.InOrder(
		sink.EXPECT().Save(gomock.Any(), gomock.Any()).Return(&pathstore.StatusError{Op: "put node", StatusCode: http.StatusServiceUnavailable}),
		sink.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
	)

	job := uploadJob()
	newTestWorker(nil, sink).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected completed after retry, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
}

func TestWorker_RetryableSaveExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Return("", false, nil)
	sink.EXPECT().Save(gomock.Any(), gomock.Any()).
		Return(&pathstore.StatusError{StatusCode: http.StatusTooManyRequests}).
		Times(MaxRetries)

	job := uploadJob()
	newTestWorker(nil, sink).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "storing" {
		t.Errorf("expected failed in storing, got %s/%s", snap.Status, snap.Phase)
	}
	if job.Result() == nil {
		t.Error("expected parsed result to be kept after a store failure")
	}
}

func TestWorker_PermanentSaveFailsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := store_mocks.NewMockSink(ctrl)
	sink.EXPECT().FindByHash(gomock.Any(), gomock.Any()).Return("", false, nil)
	sink.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full")).Times(1)

	job := uploadJob()
	newTestWorker(nil, sink).Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestWorker_GDocsFetchRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	on := doctree.Bool(true)
	blocks := doctree.Blocks{
		&doctree.Paragraph{Runs: []doctree.Run{{Text: "4:1", Bold: on}}, Alignment: doctree.AlignCenter},
		&doctree.Paragraph{Runs: []doctree.Run{{Text: "Comments/Reflections", Underline: on}}},
		&doctree.Paragraph{Runs: []doctree.Run{{Text: "c"}}},
	}

	fetcher := pipeline_mocks.NewMockFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().Fetch(gomock.Any(), "1AbC").Return(nil, "", &gdocs.RetryableError{StatusCode: http.StatusBadGateway}),
		fetcher.EXPECT().Fetch(gomock.Any(), "1AbC").Return(blocks, "An-Nisa", nil),
	)

	job := NewGDocsJob("", "1AbC", "")
	newTestWorker(fetcher, nil).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Title != "An-Nisa" {
		t.Errorf("expected fetched title, got %q", snap.Title)
	}
	rec := job.Result()
	if rec == nil || rec.Document.ChapterNumber != 4 || rec.Source != store.SourceGDocs {
		t.Fatalf("unexpected result %+v", rec)
	}
	c, ok := rec.Document.Verses[0].Subsection(exegesis.Comments)
	if !ok || len(c.Content) != 1 {
		t.Errorf("expected one block of comments, got %+v", c)
	}
}

func TestWorker_GDocsWithoutFetcher(t *testing.T) {
	job := NewGDocsJob("", "1AbC", "")
	newTestWorker(nil, nil).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || len(snap.Progress.Errors) != 1 {
		t.Errorf("expected a single failure, got %+v", snap)
	}
}

func TestWorker_Failures(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		data      string
		wantPhase string
	}{
		{"unsupported extension", "notes.pdf", "%PDF", "loading"},
		{"no anchors", "notes.html", "<p>just prose</p>", "parsing"},
		{"bad json", "notes.json", "{", "loading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewUploadJob("", tt.filename, "", []byte(tt.data))
			newTestWorker(nil, nil).Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != StatusFailed || snap.Phase != tt.wantPhase {
				t.Errorf("expected failed in %s, got %s/%s", tt.wantPhase, snap.Status, snap.Phase)
			}
			if job.FileData() != nil {
				t.Error("expected upload bytes to be released")
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"gdocs", &gdocs.RetryableError{StatusCode: 500}, true},
		{"wrapped gdocs", errors.Join(errors.New("fetch"), &gdocs.RetryableError{StatusCode: 429}), true},
		{"pathstore 503", &pathstore.StatusError{StatusCode: 503}, true},
		{"pathstore 400", &pathstore.StatusError{StatusCode: 400}, false},
		{"not found", store.ErrNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOrchestrator_ProcessesSubmittedJob(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, nil, nil, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := uploadJob()
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be tracked")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %s", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
	if o.Stats().Snapshot().Count != 1 {
		t.Errorf("expected one parse sample, got %+v", o.Stats().Snapshot())
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, nil, nil, discardLogger())

	if err := o.Submit(uploadJob()); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	overflow := uploadJob()
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if got := overflow.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected overflow job failed, got %s", got)
	}
	if o.QueueDepth() != 1 || o.JobCount() != 2 {
		t.Errorf("unexpected depth %d / jobs %d", o.QueueDepth(), o.JobCount())
	}
}
