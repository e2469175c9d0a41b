// Package memory is an in-process store used when no database DSN is
// configured. It satisfies the same account, post and follow contracts as
// the PostgreSQL repositories, including cascade on account removal.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
)

type edgeKey struct {
	follower string
	followed string
}

// Store keeps every record in maps guarded by a single RWMutex.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	posts    map[string]models.Post
	edges    map[edgeKey]models.FollowEdge
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		posts:    make(map[string]models.Post),
		edges:    make(map[edgeKey]models.FollowEdge),
	}
}

func (s *Store) emailInUse(email, excludeID string) bool {
	for id, a := range s.accounts {
		if id != excludeID && strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// CreateAccount stores a copy of a.
func (s *Store) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailInUse(a.Email, "") {
		return common.ErrEmailTaken
	}
	s.accounts[a.ID] = *a
	return nil
}

// UpdateAccount replaces name, email, secret hash and updated_at. The salt
// and elevated flag are kept from the stored record.
func (s *Store) UpdateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.accounts[a.ID]
	if !ok {
		return common.ErrAccountNotFound
	}
	if s.emailInUse(a.Email, a.ID) {
		return common.ErrEmailTaken
	}
	cur.Name = a.Name
	cur.Email = a.Email
	cur.SecretHash = a.SecretHash
	cur.UpdatedAt = a.UpdatedAt
	s.accounts[a.ID] = cur
	return nil
}

// GetAccountByID returns a copy of the account or common.ErrAccountNotFound.
func (s *Store) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	return &a, nil
}

// GetAccountByEmail matches email ignoring case.
func (s *Store) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := lo.Find(lo.Values(s.accounts), func(a models.Account) bool {
		return strings.EqualFold(a.Email, email)
	})
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	return &a, nil
}

// EmailTaken reports whether an account other than excludeID uses email.
func (s *Store) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailInUse(email, excludeID), nil
}

// ListAccounts returns accounts in signup order.
func (s *Store) ListAccounts(_ context.Context, page models.Page) ([]models.Account, error) {
	s.mu.RLock()
	all := lo.Values(s.accounts)
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), nil
}

// SetElevated changes the elevated flag.
func (s *Store) SetElevated(_ context.Context, id string, elevated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return common.ErrAccountNotFound
	}
	a.Elevated = elevated
	s.accounts[id] = a
	return nil
}

// DeleteAccount removes the account with its posts and every edge touching it.
func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return common.ErrAccountNotFound
	}
	delete(s.accounts, id)
	for pid, p := range s.posts {
		if p.AccountID == id {
			delete(s.posts, pid)
		}
	}
	for k := range s.edges {
		if k.follower == id || k.followed == id {
			delete(s.edges, k)
		}
	}
	return nil
}

// CreatePost stores p. The author must exist.
func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[p.AccountID]; !ok {
		return common.ErrAccountNotFound
	}
	s.posts[p.ID] = *p
	return nil
}

// GetPostByID returns a copy of the post or common.ErrPostNotFound.
func (s *Store) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, common.ErrPostNotFound
	}
	return &p, nil
}

// DeletePost removes the post or returns common.ErrPostNotFound.
func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return common.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

// PostsByAuthors returns posts by any of authorIDs, newest first.
func (s *Store) PostsByAuthors(_ context.Context, authorIDs []string, page models.Page) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	authors := lo.SliceToMap(authorIDs, func(id string) (string, struct{}) { return id, struct{}{} })

	s.mu.RLock()
	matched := lo.Filter(lo.Values(s.posts), func(p models.Post, _ int) bool {
		_, ok := authors[p.AccountID]
		return ok && (page.After == nil || pastCursor(p, page.After))
	})
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, page), nil
}

// CreateFollow stores e unless the pair already exists. Both endpoints must exist.
func (s *Store) CreateFollow(_ context.Context, e *models.FollowEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !lo.HasKey(s.accounts, e.FollowerID) || !lo.HasKey(s.accounts, e.FollowedID) {
		return common.ErrAccountNotFound
	}
	k := edgeKey{follower: e.FollowerID, followed: e.FollowedID}
	if _, ok := s.edges[k]; ok {
		return nil
	}
	s.edges[k] = *e
	return nil
}

// DeleteFollow removes the pair or returns common.ErrEdgeNotFound.
func (s *Store) DeleteFollow(_ context.Context, followerID, followedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := edgeKey{follower: followerID, followed: followedID}
	if _, ok := s.edges[k]; !ok {
		return common.ErrEdgeNotFound
	}
	delete(s.edges, k)
	return nil
}

// FollowExists reports whether the ordered pair is stored.
func (s *Store) FollowExists(_ context.Context, followerID, followedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.edges[edgeKey{follower: followerID, followed: followedID}]
	return ok, nil
}

// FollowingIDs returns the ids followerID follows.
func (s *Store) FollowingIDs(_ context.Context, followerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for k := range s.edges {
		if k.follower == followerID {
			ids = append(ids, k.followed)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Following lists accounts followed by accountID, most recent edge first.
func (s *Store) Following(_ context.Context, accountID string, page models.Page) ([]models.Account, error) {
	return s.related(page, func(k edgeKey) (string, bool) {
		return k.followed, k.follower == accountID
	}), nil
}

// Followers lists accounts following accountID, most recent edge first.
func (s *Store) Followers(_ context.Context, accountID string, page models.Page) ([]models.Account, error) {
	return s.related(page, func(k edgeKey) (string, bool) {
		return k.follower, k.followed == accountID
	}), nil
}

func (s *Store) related(page models.Page, pick func(edgeKey) (string, bool)) []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]models.FollowEdge, 0)
	for k, e := range s.edges {
		if _, ok := pick(k); ok {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.After(edges[j].CreatedAt)
		}
		ki, _ := pick(edgeKey{follower: edges[i].FollowerID, followed: edges[i].FollowedID})
		kj, _ := pick(edgeKey{follower: edges[j].FollowerID, followed: edges[j].FollowedID})
		return ki < kj
	})

	accounts := lo.FilterMap(edges, func(e models.FollowEdge, _ int) (models.Account, bool) {
		id, _ := pick(edgeKey{follower: e.FollowerID, followed: e.FollowedID})
		a, ok := s.accounts[id]
		return a, ok
	})
	return paginate(accounts, page)
}

// pastCursor reports whether p is listed after c in newest-first order.
func pastCursor(p models.Post, c *models.Cursor) bool {
	if !p.CreatedAt.Equal(c.CreatedAt) {
		return p.CreatedAt.Before(c.CreatedAt)
	}
	return p.ID < c.ID
}

func paginate[T any](items []T, page models.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return []T{}
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}
