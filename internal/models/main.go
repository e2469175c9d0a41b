// Package models defines the core data structures for accounts, posts and follow edges.
package models

import "time"

// Account represents a registered identity.
type Account struct {
	// ID is the unique identifier for the account.
	ID string `json:"id"`
	// Name is the display name, at most 50 characters.
	Name string `json:"name"`
	// Email is unique across accounts, compared case-insensitively.
	Email string `json:"email"`
	// Salt is generated once when the account is created and never changes.
	Salt string `json:"-"`
	// SecretHash is the hex digest of salt and plaintext secret.
	SecretHash string `json:"-"`
	// Elevated gates destructive actions performed by outer layers.
	Elevated  bool      `json:"elevated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post is a short message authored by exactly one account.
type Post struct {
	// ID is the unique identifier for the post.
	ID string `json:"id"`
	// AccountID is the author. It never changes after creation.
	AccountID string `json:"account_id"`
	// Body holds 1 to 140 characters of trimmed text.
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FollowEdge is a directed relationship: FollowerID receives FollowedID's posts.
type FollowEdge struct {
	ID         string    `json:"id"`
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	// DefaultPageLimit matches the page size used by the listing pages.
	DefaultPageLimit = 30
	// MaxPageLimit caps a single page request.
	MaxPageLimit = 100
)

// Cursor is a position in a newest-first post listing.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorOf returns the position of p.
func CursorOf(p Post) *Cursor {
	return &Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
	// After starts a post listing strictly past this position. When set,
	// Offset is ignored.
	After *Cursor
}

// Normalize returns a copy of p with a usable limit and a non-negative offset.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 || p.After != nil {
		p.Offset = 0
	}
	return p
}
