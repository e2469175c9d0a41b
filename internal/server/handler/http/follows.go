package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/middleware"
	"github.com/atinyakov/microfeed/internal/models"
)

// GraphService defines the follow operations required by GraphHandler.
type GraphService interface {
	Follow(ctx context.Context, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	FollowingOf(ctx context.Context, accountID string, page models.Page) ([]models.Account, error)
	FollowersOf(ctx context.Context, accountID string, page models.Page) ([]models.Account, error)
}

// AccountLookup resolves an account id.
type AccountLookup interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// GraphHandler exposes the follow graph. The authenticated account is
// always the follower.
type GraphHandler struct {
	Graph    GraphService
	Accounts AccountLookup
	Logger   *zap.Logger
}

// FollowRequest is the JSON payload for POST /api/follows.
type FollowRequest struct {
	FollowedID string `json:"followed_id"`
}

// FollowStatus reports whether the caller follows an account.
type FollowStatus struct {
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
	Following  bool   `json:"following"`
}

// Follow handles POST /api/follows.
func (h *GraphHandler) Follow(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AccountFromContext(r.Context())
	if actor == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	var req FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(req.FollowedID); err != nil {
		http.Error(w, "invalid followed_id", http.StatusBadRequest)
		return
	}

	if err := h.Graph.Follow(r.Context(), actor.ID, req.FollowedID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, FollowStatus{FollowerID: actor.ID, FollowedID: req.FollowedID, Following: true})
}

// Status handles GET /api/follows/{id}.
func (h *GraphHandler) Status(w http.ResponseWriter, r *http.Request) {
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
	following, err := h.Graph.IsFollowing(r.Context(), actor.ID, id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FollowStatus{FollowerID: actor.ID, FollowedID: id, Following: following})
}

// Unfollow handles DELETE /api/follows/{id}. A missing edge is a 404.
func (h *GraphHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Graph.Unfollow(r.Context(), actor.ID, id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Following handles GET /api/accounts/{id}/following.
func (h *GraphHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Graph.FollowingOf)
}

// Followers handles GET /api/accounts/{id}/followers.
func (h *GraphHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Graph.FollowersOf)
}

func (h *GraphHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(context.Context, string, models.Page) ([]models.Account, error),
) {
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
	accounts, err := fetch(r.Context(), id, page)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}
