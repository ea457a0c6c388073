package handlers

import (
	"net/http"

	middleware "github.com/markdave123-py/Archiva/internal/api/middlewares"
	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
	"github.com/markdave123-py/Archiva/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit"`
	MinSimilarity float64  `json:"min_similarity"`
	Scope         *string  `json:"scope"`
	ThreadID      *string  `json:"thread_id"`
	FolderID      *string  `json:"folder_id"`
	FileTypes     []string `json:"file_types"`
}

// Search runs semantic retrieval over the user's ready documents.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	opts := core.SearchOptions{
		Limit:         req.Limit,
		MinSimilarity: req.MinSimilarity,
		ThreadID:      req.ThreadID,
		FolderID:      req.FolderID,
	}
	if req.Scope != nil {
		scope := models.DocumentScope(*req.Scope)
		opts.Scope = &scope
	}
	for _, ft := range req.FileTypes {
		opts.FileTypes = append(opts.FileTypes, models.FileType(ft))
	}

	results, err := h.search.Search(r.Context(), userID, req.Query, opts)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

type contextRequest struct {
	Query     string `json:"query"`
	ThreadID  string `json:"thread_id"`
	MaxTokens int    `json:"max_tokens"`
}

// Context assembles a token-budgeted context block for a conversation
// thread, with per-document citations.
func (h *SearchHandler) Context(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req contextRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.ThreadID == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "thread_id is required"})
		return
	}

	out, err := h.search.ConversationContext(r.Context(), userID, req.ThreadID, req.Query, req.MaxTokens)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
