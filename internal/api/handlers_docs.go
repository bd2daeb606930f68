package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leduardoaraujo/jsonexplorer/internal/pathstore"
)

// handleListDocuments lists all exported documents for a user.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	children, err := s.orchestrator.PathstoreClient().ListChildren(r.Context(), pathstore.DocumentsKey(userID), 200)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Only meta nodes describe documents; chunk nodes are skipped.
	docs := []map[string]any{}
	for _, child := range children {
		if strings.HasSuffix(child.Key, "/meta") {
			docs = append(docs, map[string]any{
				"key":   child.Key,
				"value": child.Value,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a document's chunks, meta and hash index.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := pathSegment(chi.URLParam(r, "docID"))
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	ps := s.orchestrator.PathstoreClient()

	// Read the hash before the meta node goes away.
	hashDeleted := deleteHashIndex(ctx, ps, userID, docID)

	if err := ps.DeleteNode(ctx, pathstore.DocumentKey(userID, docID), true); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":     docID,
		"deleted":    true,
		"hash_index": hashDeleted,
	})
}

func deleteHashIndex(ctx context.Context, ps *pathstore.Client, userID, docID string) bool {
	meta, err := ps.GetNode(ctx, pathstore.MetaKey(userID, docID))
	if err != nil || meta == nil {
		return false
	}
	metaMap, ok := meta.Value.(map[string]any)
	if !ok {
		return false
	}
	hash, _ := metaMap["content_hash"].(string)
	if hash == "" {
		return false
	}
	return ps.DeleteNode(ctx, pathstore.HashKey(userID, hash), false) == nil
}
