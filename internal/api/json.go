package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/notepad/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps provider errors to HTTP statuses. Client errors echo the
// message; everything else is logged and reported as an internal error.
func writeError(w http.ResponseWriter, op, uri string, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnknownResource):
		writeJSON(w, http.StatusNotFound, errorBody("unknown resource"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidIdentifier),
		errors.Is(err, apperr.ErrInvalidProjection),
		errors.Is(err, apperr.ErrInvalidFilter),
		errors.Is(err, apperr.ErrInvalidValues):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("uri", uri), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
