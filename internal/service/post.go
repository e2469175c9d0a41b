package service

import (
	"context"
	"time"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

// PostRepository defines the persistence operations for posts.
type PostRepository interface {
	// CreatePost returns common.ErrAccountNotFound for an unknown author.
	CreatePost(ctx context.Context, p *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	PostsByAuthors(ctx context.Context, authorIDs []string, page models.Page) ([]models.Post, error)
}

// PostService publishes and removes posts.
type PostService struct {
	repo      PostRepository
	validator *validation.Validator
	now       func() time.Time
	newID     func() (string, error)
}

// NewPostService constructs a PostService.
func NewPostService(repo PostRepository, v *validation.Validator) *PostService {
	return &PostService{repo: repo, validator: v, now: utcNow, newID: newID}
}

// CreatePost trims body, validates it and stores it under authorID.
func (s *PostService) CreatePost(ctx context.Context, authorID, body string) (*models.Post, error) {
	body, errs := s.validator.PostBody(body)
	if len(errs) > 0 {
		return nil, errs
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	p := &models.Post{ID: id, AccountID: authorID, Body: body, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePost removes postID if actorID wrote it, otherwise common.ErrForbidden.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID string) error {
	p, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if p.AccountID != actorID {
		return common.ErrForbidden
	}
	return s.repo.DeletePost(ctx, postID)
}

// PostsBy lists posts written by accountID, newest first.
func (s *PostService) PostsBy(ctx context.Context, accountID string, page models.Page) ([]models.Post, error) {
	return s.repo.PostsByAuthors(ctx, []string{accountID}, page.Normalize())
}
