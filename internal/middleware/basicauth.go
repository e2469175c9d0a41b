// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/microfeed/internal/models"
)

type ctxKey string

const accountKey ctxKey = "account"

// Authenticator checks an email and secret pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, secret string) (*models.Account, bool, error)
}

// BasicAuth is a middleware that requires HTTP Basic credentials on every
// request. The username is the account email and the password its secret.
//
// On success the authenticated account is stored in the request context,
// so handlers can read it with AccountFromContext. Missing or wrong
// credentials get 401 with a WWW-Authenticate challenge; a storage failure
// during the check is logged and gets 500.
func BasicAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, secret, ok := r.BasicAuth()
			if !ok {
				challenge(w)
				return
			}
			account, ok, err := auth.Authenticate(r.Context(), email, secret)
			if err != nil {
				logger.Error("authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !ok {
				challenge(w)
				return
			}
			ctx := WithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="microfeed", charset="UTF-8"`)
	http.Error(w, "not authenticated", http.StatusUnauthorized)
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext extracts the authenticated account from the request
// context. Returns nil if not found.
func AccountFromContext(ctx context.Context) *models.Account {
	if a, ok := ctx.Value(accountKey).(*models.Account); ok {
		return a
	}
	return nil
}
