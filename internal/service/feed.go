package service

import (
	"context"
	"iter"

	"github.com/samber/lo"

	"github.com/atinyakov/microfeed/internal/models"
)

// FollowingSource lists who an account follows.
type FollowingSource interface {
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

// AuthorPostSource loads posts for a set of authors in one query,
// newest first.
type AuthorPostSource interface {
	PostsByAuthors(ctx context.Context, authorIDs []string, page models.Page) ([]models.Post, error)
}

// FeedService builds the post stream an account sees: its own posts plus
// the posts of everyone it follows.
type FeedService struct {
	follows FollowingSource
	posts   AuthorPostSource
}

// NewFeedService constructs a FeedService.
func NewFeedService(follows FollowingSource, posts AuthorPostSource) *FeedService {
	return &FeedService{follows: follows, posts: posts}
}

// FeedFor returns one page of the feed for accountID, newest first.
// The author set is resolved first and the posts are fetched with a single
// query over it.
func (s *FeedService) FeedFor(ctx context.Context, accountID string, page models.Page) ([]models.Post, error) {
	followed, err := s.follows.FollowingIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	authors := lo.Uniq(append([]string{accountID}, followed...))
	return s.posts.PostsByAuthors(ctx, authors, page.Normalize())
}

// Stream walks the whole feed page by page. Every range over the returned
// sequence starts again from the newest post and reflects the current state.
// Each page continues from the last post yielded, so posts written during a
// range neither repeat nor push older ones out of it.
// Iteration stops after the first error.
func (s *FeedService) Stream(ctx context.Context, accountID string, pageSize int) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		page := models.Page{Limit: pageSize}.Normalize()
		for {
			if err := ctx.Err(); err != nil {
				yield(models.Post{}, err)
				return
			}
			posts, err := s.FeedFor(ctx, accountID, page)
			if err != nil {
				yield(models.Post{}, err)
				return
			}
			for _, p := range posts {
				if !yield(p, nil) {
					return
				}
			}
			if len(posts) < page.Limit {
				return
			}
			page.After = models.CursorOf(posts[len(posts)-1])
		}
	}
}
