package service

import (
	"context"
	"time"

	"github.com/atinyakov/microfeed/internal/models"
)

// FollowRepository defines the persistence operations for follow edges.
type FollowRepository interface {
	// CreateFollow stores the edge. A repeated pair is a no-op; a missing
	// endpoint yields common.ErrAccountNotFound.
	CreateFollow(ctx context.Context, e *models.FollowEdge) error
	// DeleteFollow returns common.ErrEdgeNotFound when the pair is absent.
	DeleteFollow(ctx context.Context, followerID, followedID string) error
	FollowExists(ctx context.Context, followerID, followedID string) (bool, error)
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
	Following(ctx context.Context, accountID string, page models.Page) ([]models.Account, error)
	Followers(ctx context.Context, accountID string, page models.Page) ([]models.Account, error)
}

// GraphService manages directed follow edges between accounts.
type GraphService struct {
	repo  FollowRepository
	now   func() time.Time
	newID func() (string, error)
}

// NewGraphService constructs a GraphService backed by repo.
func NewGraphService(repo FollowRepository) *GraphService {
	return &GraphService{repo: repo, now: utcNow, newID: newID}
}

// Follow makes followerID receive followedID's posts. Following twice is
// harmless. Following yourself is allowed.
func (s *GraphService) Follow(ctx context.Context, followerID, followedID string) error {
	id, err := s.newID()
	if err != nil {
		return err
	}
	now := s.now()
	return s.repo.CreateFollow(ctx, &models.FollowEdge{
		ID:         id,
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Unfollow deletes the edge, returning common.ErrEdgeNotFound when there is none.
func (s *GraphService) Unfollow(ctx context.Context, followerID, followedID string) error {
	return s.repo.DeleteFollow(ctx, followerID, followedID)
}

// IsFollowing reports whether the exact ordered pair exists.
func (s *GraphService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.repo.FollowExists(ctx, followerID, followedID)
}

// FollowingOf lists the accounts accountID follows.
func (s *GraphService) FollowingOf(ctx context.Context, accountID string, page models.Page) ([]models.Account, error) {
	return s.repo.Following(ctx, accountID, page.Normalize())
}

// FollowersOf lists the accounts following accountID.
func (s *GraphService) FollowersOf(ctx context.Context, accountID string, page models.Page) ([]models.Account, error) {
	return s.repo.Followers(ctx, accountID, page.Normalize())
}
