package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/tafsirgest/internal/store"
)

// sink returns the configured sink, writing a 503 when there is none.
func (s *Server) sink(w http.ResponseWriter) (store.Sink, bool) {
	sink := s.orchestrator.Sink()
	if sink == nil {
		jsonError(w, "document storage is disabled", http.StatusServiceUnavailable)
		return nil, false
	}
	return sink, true
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Error(op+" failed", "error", err)
	jsonError(w, op+": "+err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	sink, ok := s.sink(w)
	if !ok {
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	docs, err := sink.List(r.Context(), limit)
	if err != nil {
		s.storeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	sink, ok := s.sink(w)
	if !ok {
		return
	}
	rec, err := sink.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.storeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetVerse(w http.ResponseWriter, r *http.Request) {
	sink, ok := s.sink(w)
	if !ok {
		return
	}
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		jsonError(w, "verse number must be a positive integer", http.StatusBadRequest)
		return
	}
	v, err := sink.GetVerse(r.Context(), chi.URLParam(r, "docID"), number)
	if err != nil {
		s.storeError(w, "get verse", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	sink, ok := s.sink(w)
	if !ok {
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := sink.Delete(r.Context(), docID); err != nil {
		s.storeError(w, "delete document", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}
