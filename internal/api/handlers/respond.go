// Package handlers contains the HTTP endpoints. Handlers decode, call a
// service and encode; no business logic lives here.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError maps domain errors onto HTTP status codes with the error
// message as the body.
func respondError(w http.ResponseWriter, err error) {
	var (
		unsupported *core.UnsupportedTypeError
		validation  *core.ValidationError
		cycle       *core.FolderCycleError
	)
	switch {
	case errors.Is(err, core.ErrDocumentNotFound), errors.Is(err, core.ErrFolderNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &unsupported):
		respondJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: err.Error()})
	case errors.As(err, &validation):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.As(err, &cycle):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrFolderNameRequired):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
