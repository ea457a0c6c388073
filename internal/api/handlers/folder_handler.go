package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/Archiva/internal/api/middlewares"
	"github.com/markdave123-py/Archiva/internal/services"
)

type FolderHandler struct {
	folders *services.FolderService
}

func NewFolderHandler(folders *services.FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	ParentID *string `json:"parent_id"`
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req createFolderRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	folder, err := h.folders.Create(r.Context(), userID, req.Name, req.Color, req.ParentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, folder)
}

type updateFolderRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req updateFolderRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	folder, err := h.folders.Update(r.Context(), userID, chi.URLParam(r, "folderID"), req.Name, req.Color)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, folder)
}

type moveFolderRequest struct {
	ParentID *string `json:"parent_id"`
}

// Move reparents a folder; cycles are rejected with 409.
func (h *FolderHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req moveFolderRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if err := h.folders.Move(r.Context(), userID, chi.URLParam(r, "folderID"), req.ParentID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.folders.Delete(r.Context(), userID, chi.URLParam(r, "folderID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tree returns the user's whole folder hierarchy as nested nodes.
func (h *FolderHandler) Tree(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	tree, err := h.folders.Tree(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"folders": tree})
}

// Contents lists one folder level with pagination and breadcrumb. Mounted
// both at /folders/root/contents and /folders/{folderID}/contents.
func (h *FolderHandler) Contents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var folderID *string
	if id := chi.URLParam(r, "folderID"); id != "" {
		folderID = &id
	}

	q := r.URL.Query()
	out, err := h.folders.Contents(r.Context(), userID, folderID,
		queryInt(q.Get("limit"), 50), queryInt(q.Get("offset"), 0))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *FolderHandler) Breadcrumb(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}
	crumb, err := h.folders.Breadcrumb(r.Context(), userID, chi.URLParam(r, "folderID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"breadcrumb": crumb})
}
