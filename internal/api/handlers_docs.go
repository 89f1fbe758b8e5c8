package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/doclabel/internal/anchors"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/store"
)

// handleListDocuments lists stored documents without their results.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	docs, err := s.orchestrator.Store().List(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleGetDocument returns the full labeling result of a document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	rec, err := s.orchestrator.Store().Get(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// handleDocumentAnchors returns the anchor table of a document, optionally
// filtered by ?kind=.
func (s *Server) handleDocumentAnchors(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	kind := doctree.Kind(r.URL.Query().Get("kind"))

	entries, err := s.orchestrator.Store().Anchors(r.Context(), docID, kind)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read anchors: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []anchors.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":  docID,
		"count":   len(entries),
		"anchors": entries,
	})
}

// handleDeleteDocument deletes a stored result and withdraws it downstream.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	n, err := s.orchestrator.Store().Delete(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	withdrawn := false
	if pub := s.orchestrator.Publisher(); pub != nil {
		if err := pub.Delete(ctx, docID); err != nil {
			s.log.Warn("withdraw published labels failed", "doc_id", docID, "error", err)
		} else {
			withdrawn = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":          docID,
		"anchors_deleted": n,
		"withdrawn":       withdrawn,
	})
}
