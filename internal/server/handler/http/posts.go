package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/middleware"
	"github.com/atinyakov/microfeed/internal/models"
)

// PostService defines the post operations required by PostHandler.
type PostService interface {
	CreatePost(ctx context.Context, authorID, body string) (*models.Post, error)
	DeletePost(ctx context.Context, actorID, postID string) error
	PostsBy(ctx context.Context, accountID string, page models.Page) ([]models.Post, error)
}

// PostHandler publishes, removes and lists posts.
type PostHandler struct {
	Posts    PostService
	Accounts AccountLookup
	Logger   *zap.Logger
}

// PostRequest is the JSON payload for POST /api/posts.
type PostRequest struct {
	Body string `json:"body"`
}

// Create handles POST /api/posts on behalf of the authenticated account.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AccountFromContext(r.Context())
	if actor == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	p, err := h.Posts.CreatePost(r.Context(), actor.ID, req.Body)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/posts/{id}. Only the author may delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AccountFromContext(r.Context())
	if actor == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Posts.DeletePost(r.Context(), actor.ID, id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ByAccount handles GET /api/accounts/{id}/posts.
func (h *PostHandler) ByAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	if _, err := h.Accounts.GetAccount(r.Context(), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	posts, err := h.Posts.PostsBy(r.Context(), id, page)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
