package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/middleware"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

// AccountService defines the account operations required by the HTTP handlers.
type AccountService interface {
	CreateAccount(ctx context.Context, in validation.AccountInput) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, in validation.AccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, page models.Page) ([]models.Account, error)
	DestroyAccount(ctx context.Context, id string) error
}

// AccountHandler handles signup, profile, update and removal of accounts.
type AccountHandler struct {
	Accounts AccountService
	Logger   *zap.Logger
}

// Create handles POST /api/accounts. The body carries name, email, secret
// and confirmation. Invalid input is answered with 422 and the field list.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in validation.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	a, err := h.Accounts.CreateAccount(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	accounts, err := h.Accounts.ListAccounts(r.Context(), page)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Get handles GET /api/accounts/{id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, err := h.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Update handles PUT /api/accounts/{id}. Only the account itself may update it.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	actor := middleware.AccountFromContext(r.Context())
	if actor == nil || actor.ID != id {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var in validation.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	a, err := h.Accounts.UpdateAccount(r.Context(), id, in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Destroy handles DELETE /api/accounts/{id}. The caller must be elevated
// and cannot remove its own account.
func (h *AccountHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	actor := middleware.AccountFromContext(r.Context())
	if actor == nil || !actor.Elevated || actor.ID == id {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if err := h.Accounts.DestroyAccount(r.Context(), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
