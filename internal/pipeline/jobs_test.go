package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/tafsirgest/internal/exegesis"
	"github.com/dgallion1/tafsirgest/internal/store"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewUploadJob(t *testing.T) {
	job := NewUploadJob("", "baqarah.docx", "", []byte("x"))
	if job.ID == "" || job.DocID == "" || job.ID == job.DocID {
		t.Errorf("expected distinct generated ids, got job=%q doc=%q", job.ID, job.DocID)
	}
	if job.Status != StatusQueued || job.Source != store.SourceUpload || job.SourceRef != "baqarah.docx" {
		t.Errorf("unexpected job %+v", job.Snapshot())
	}
	if string(job.FileData()) != "x" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}

	named := NewUploadJob("doc-7", "a.html", "Title", nil)
	if named.DocID != "doc-7" || named.Title != "Title" {
		t.Errorf("expected supplied doc id and title, got %q/%q", named.DocID, named.Title)
	}
}

func TestNewGDocsJob_DefaultsDocID(t *testing.T) {
	job := NewGDocsJob("", "1AbC", "")
	if job.DocID != "1AbC" || job.Source != store.SourceGDocs {
		t.Errorf("unexpected job %+v", job.Snapshot())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewGDocsJob("", "1AbC", "")

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusFetching, "fetching"},
		{StatusParsing, "parsing"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
	if !job.Status.Done() {
		t.Error("expected completed to be terminal")
	}
}

func TestJobStatus_Done(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{StatusQueued, false},
		{StatusFetching, false},
		{StatusParsing, false},
		{StatusStoring, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusDupSkipped, true},
	}
	for _, tt := range tests {
		if got := tt.status.Done(); got != tt.want {
			t.Errorf("%s.Done() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestJob_AddErrorAndNote(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("fetch failed")
	job.AddError("store failed")
	job.AddNote("no books table found")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "fetch failed" {
		t.Errorf("expected first error %q, got %q", "fetch failed", snap.Progress.Errors[0])
	}
	if len(snap.Progress.Notes) != 1 {
		t.Errorf("expected 1 note, got %v", snap.Progress.Notes)
	}
}

func TestJob_SetResult(t *testing.T) {
	job := &Job{ID: "result-test"}
	if job.Result() != nil {
		t.Fatal("expected nil result before parsing")
	}
	rec := &store.Record{
		Document: &exegesis.ParsedDocument{
			Verses:      make([]exegesis.Verse, 3),
			Diagnostics: make([]exegesis.Diagnostic, 2),
		},
	}
	job.SetResult(rec)

	snap := job.Snapshot()
	if snap.Progress.VerseCount != 3 || snap.Progress.Diagnostics != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if job.Result() != rec {
		t.Error("expected stored result")
	}
}

func TestJob_MarkDuplicate(t *testing.T) {
	job := NewUploadJob("", "a.docx", "", nil)
	job.MarkDuplicate("doc-old")
	snap := job.Snapshot()
	if snap.Status != StatusDupSkipped || snap.DuplicateOf != "doc-old" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Notes == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	js := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	js.Put(job)

	got := js.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if js.Len() != 1 {
		t.Errorf("expected 1 job, got %d", js.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	js := NewJobStore(time.Hour)
	if js.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	js := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	js.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	js.Put(fresh)

	js.Cleanup()

	if js.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if js.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	js := NewJobStore(time.Hour)
	// Should not panic on empty store.
	js.Cleanup()
}
