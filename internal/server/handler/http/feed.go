package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/middleware"
	"github.com/atinyakov/microfeed/internal/models"
)

// FeedService defines the feed query required by FeedHandler.
type FeedService interface {
	FeedFor(ctx context.Context, accountID string, page models.Page) ([]models.Post, error)
}

// FeedHandler serves the authenticated account's feed.
type FeedHandler struct {
	Feed   FeedService
	Logger *zap.Logger
}

// Feed handles GET /api/feed?limit=&offset=.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AccountFromContext(r.Context())
	if actor == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	posts, err := h.Feed.FeedFor(r.Context(), actor.ID, page)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
