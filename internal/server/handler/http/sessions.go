package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/models"
)

// Authenticator checks an email and secret pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, secret string) (*models.Account, bool, error)
}

// SessionHandler handles credential checks.
type SessionHandler struct {
	Auth   Authenticator
	Logger *zap.Logger
}

// SessionRequest is the JSON payload for POST /api/sessions.
type SessionRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// Create handles POST /api/sessions. It answers with the account when the
// pair matches and 401 otherwise, using the same message whether the email
// is unknown or the secret is wrong.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	a, ok, err := h.Auth.Authenticate(r.Context(), req.Email, req.Secret)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if !ok {
		http.Error(w, "invalid email/secret combination", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
