// Package http provides HTTP routing, middleware configuration and JSON
// handlers for the microfeed service.
package http

import (
	"net/http"

	"github.com/atinyakov/microfeed/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Accounts *AccountHandler
	Sessions *SessionHandler
	Graph    *GraphHandler
	Posts    *PostHandler
	Feed     *FeedHandler
}

// NewRouter constructs and returns an HTTP handler that serves
// the microfeed API under /api.
//
// Routes:
//
//	POST   /api/accounts                 → Accounts.Create   (public)
//	POST   /api/sessions                 → Sessions.Create   (public)
//	GET    /api/accounts                 → Accounts.List
//	GET    /api/accounts/{id}            → Accounts.Get
//	PUT    /api/accounts/{id}            → Accounts.Update
//	DELETE /api/accounts/{id}            → Accounts.Destroy
//	GET    /api/accounts/{id}/posts      → Posts.ByAccount
//	GET    /api/accounts/{id}/following  → Graph.Following
//	GET    /api/accounts/{id}/followers  → Graph.Followers
//	POST   /api/follows                  → Graph.Follow
//	GET    /api/follows/{id}             → Graph.Status
//	DELETE /api/follows/{id}             → Graph.Unfollow
//	GET    /api/feed                     → Feed.Feed
//	POST   /api/posts                    → Posts.Create
//	DELETE /api/posts/{id}               → Posts.Delete
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects non-JSON request bodies
//  2. WithRequestLogging(logger) logs every request
//  3. BasicAuth(auth, logger) guards the protected group
func NewRouter(h Handlers, auth middleware.Authenticator, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/accounts", h.Accounts.Create)
		r.Post("/sessions", h.Sessions.Create)

		// Protected group: requires valid Basic credentials
		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(auth, logger))

			r.Get("/accounts", h.Accounts.List)
			r.Route("/accounts/{id}", func(r chi.Router) {
				r.Get("/", h.Accounts.Get)
				r.Put("/", h.Accounts.Update)
				r.Delete("/", h.Accounts.Destroy)
				r.Get("/posts", h.Posts.ByAccount)
				r.Get("/following", h.Graph.Following)
				r.Get("/followers", h.Graph.Followers)
			})

			r.Post("/follows", h.Graph.Follow)
			r.Get("/follows/{id}", h.Graph.Status)
			r.Delete("/follows/{id}", h.Graph.Unfollow)

			r.Get("/feed", h.Feed.Feed)

			r.Post("/posts", h.Posts.Create)
			r.Delete("/posts/{id}", h.Posts.Delete)
		})
	})

	return r
}
