package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/tafsirgest/internal/parser"
	"github.com/dgallion1/tafsirgest/internal/pipeline"
)

const batchReadConcurrency = 4

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewUploadJob(r.FormValue("doc_id"), filename, r.FormValue("title"), data)
	job.Force = formBool(r, "force")

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted(job))
}

type batchItem struct {
	filename string
	data     []byte
	err      string
}

func (s *Server) handleBatchParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	items := make([]batchItem, len(files))
	var g errgroup.Group
	g.SetLimit(batchReadConcurrency)
	for i, fh := range files {
		g.Go(func() error {
			items[i] = s.readUpload(fh)
			return nil
		})
	}
	_ = g.Wait()

	force := formBool(r, "force")
	results := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if it.err != "" {
			results = append(results, map[string]any{"filename": it.filename, "error": it.err})
			continue
		}
		job := pipeline.NewUploadJob("", it.filename, "", it.data)
		job.Force = force
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"filename": it.filename, "error": err.Error()})
			continue
		}
		res := accepted(job)
		res["filename"] = it.filename
		results = append(results, res)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) readUpload(fh *multipart.FileHeader) batchItem {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return batchItem{filename: filename, err: fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))}
	}
	f, err := fh.Open()
	if err != nil {
		return batchItem{filename: filename, err: "failed to open file"}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return batchItem{filename: filename, err: "file too large or read error"}
	}
	return batchItem{filename: filename, data: data}
}

func (s *Server) handleGDocsParse(w http.ResponseWriter, r *http.Request) {
	if !s.orchestrator.HasFetcher() {
		jsonError(w, "google docs source not configured", http.StatusServiceUnavailable)
		return
	}
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		jsonError(w, "document id is required", http.StatusBadRequest)
		return
	}

	job := pipeline.NewGDocsJob(r.FormValue("doc_id"), documentID, r.FormValue("title"))
	job.Force = formBool(r, "force")

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted(job))
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if rec := job.Result(); rec != nil {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	snap := job.Snapshot()
	switch {
	case !snap.Status.Done():
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
	case snap.Status == pipeline.StatusDupSkipped:
		jsonError(w, "duplicate of document "+snap.DuplicateOf, http.StatusNotFound)
	default:
		jsonError(w, "job produced no result: "+strings.Join(snap.Progress.Errors, "; "), http.StatusNotFound)
	}
}

func accepted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s/status", snap.ID),
	}
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
