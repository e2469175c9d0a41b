package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Anything unrecognised is
// logged and reported as 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verrs})
	case errors.Is(err, common.ErrAccountNotFound),
		errors.Is(err, common.ErrPostNotFound),
		errors.Is(err, common.ErrEdgeNotFound),
		errors.Is(err, common.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, common.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// idParam returns the named URL parameter when it is a well-formed UUID.
func idParam(r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// pageFromQuery reads ?limit= and ?offset=. Missing values fall back to
// the service defaults.
func pageFromQuery(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, err
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, err
		}
		page.Offset = n
	}
	return page, nil
}
