package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/Archiva/internal/api/middlewares"
	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
	"github.com/markdave123-py/Archiva/internal/services"
)

// maxUploadBytes caps multipart uploads at 50 MB.
const maxUploadBytes = 50 << 20

type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// Upload accepts a multipart file plus optional scope/thread_id/folder_id
// form fields, stores it and queues processing. Responds with the pending
// document record.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("read upload: %v", err)})
		return
	}

	in := services.UploadInput{
		UserID:   userID,
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
		Name:     r.FormValue("name"),
	}
	if scope := r.FormValue("scope"); scope != "" {
		in.Scope = models.DocumentScope(scope)
	}
	if threadID := r.FormValue("thread_id"); threadID != "" {
		in.ThreadID = &threadID
	}
	if folderID := r.FormValue("folder_id"); folderID != "" {
		in.FolderID = &folderID
	}

	doc, err := h.docs.Upload(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, doc)
}

// List returns the user's documents, filtered by query parameters.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := core.DocumentFilter{
		Limit:  queryInt(q.Get("limit"), 50),
		Offset: queryInt(q.Get("offset"), 0),
	}
	if v := q.Get("scope"); v != "" {
		scope := models.DocumentScope(v)
		filter.Scope = &scope
	}
	if v := q.Get("thread_id"); v != "" {
		filter.ThreadID = &v
	}
	if v := q.Get("folder_id"); v != "" {
		filter.FolderID = &v
	}
	if v := q.Get("status"); v != "" {
		status := models.DocumentStatus(v)
		filter.Status = &status
	}
	filter.RootOnly = q.Get("root_only") == "true"
	filter.IncludeArchived = q.Get("include_archived") == "true"

	docs, total, err := h.docs.List(r.Context(), userID, filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
	})
}

// Get returns one document. ?include_chunks=true attaches its chunks.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	documentID := chi.URLParam(r, "documentID")

	if r.URL.Query().Get("include_chunks") == "true" {
		out, err := h.docs.GetWithChunks(r.Context(), userID, documentID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
		return
	}

	doc, err := h.docs.Get(r.Context(), userID, documentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Download streams the original file bytes back to the client.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	documentID := chi.URLParam(r, "documentID")

	doc, data, err := h.docs.Download(r.Context(), userID, documentID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Delete removes the document, its chunks and its stored blob.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.docs.Delete(r.Context(), userID, chi.URLParam(r, "documentID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Archive hides a document from listings and retrieval.
func (h *DocumentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.docs.Archive(r.Context(), userID, chi.URLParam(r, "documentID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move places a document in a folder; a null folder_id moves it to root.
func (h *DocumentHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	var body struct {
		FolderID *string `json:"folder_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := h.docs.Move(r.Context(), userID, chi.URLParam(r, "documentID"), body.FolderID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reprocess re-runs ingestion, replacing the document's chunks.
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.docs.Reprocess(r.Context(), userID, chi.URLParam(r, "documentID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
