package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/lib/pq"
)

const postColumns = `id, account_id, body, created_at, updated_at`

// PostgresPostRepository implements post persistence against a PostgreSQL database.
type PostgresPostRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository using the provided *sql.DB.
func NewPostgresPostRepository(db *sql.DB) *PostgresPostRepository {
	return &PostgresPostRepository{DB: db}
}

// CreatePost inserts p. An unknown author yields common.ErrAccountNotFound.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, p *models.Post) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO posts (id, account_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.AccountID, p.Body, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("CreatePost: %w", err)
	}
	return nil
}

// GetPostByID returns the post or common.ErrPostNotFound.
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := r.DB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.AccountID, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("GetPostByID: %w", err)
	}
	return &p, nil
}

// DeletePost removes the post by id.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeletePost: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

// PostsByAuthors returns one page of posts written by any of authorIDs,
// newest first, with id as tie-break. It is a single query regardless of
// how many authors are given. With page.After set it pages by keyset.
func (r *PostgresPostRepository) PostsByAuthors(ctx context.Context, authorIDs []string, page models.Page) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	if len(authorIDs) == 0 {
		return posts, nil
	}

	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE account_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	args := []any{pq.Array(authorIDs), page.Limit, page.Offset}
	if page.After != nil {
		query = `
		SELECT ` + postColumns + ` FROM posts
		WHERE account_id = ANY($1) AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`
		args = []any{pq.Array(authorIDs), page.After.CreatedAt, page.After.ID, page.Limit}
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("PostsByAuthors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Body, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return posts, nil
}
