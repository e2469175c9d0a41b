package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
)

// PostgresFollowRepository stores directed follow edges in PostgreSQL.
type PostgresFollowRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository.
func NewPostgresFollowRepository(db *sql.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{DB: db}
}

// CreateFollow inserts the edge. An existing (follower, followed) pair is
// left as is. A missing endpoint yields common.ErrAccountNotFound.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, e *models.FollowEdge) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO follow_edges (id, follower_id, followed_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`, e.ID, e.FollowerID, e.FollowedID, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("CreateFollow: %w", err)
	}
	return nil
}

// DeleteFollow removes the edge or returns common.ErrEdgeNotFound.
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followedID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM follow_edges WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("DeleteFollow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrEdgeNotFound
	}
	return nil
}

// FollowExists reports whether the exact ordered pair is stored.
func (r *PostgresFollowRepository) FollowExists(ctx context.Context, followerID, followedID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM follow_edges WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("FollowExists: %w", err)
	}
	return exists, nil
}

// FollowingIDs returns the ids of every account followerID follows.
func (r *PostgresFollowRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT followed_id FROM follow_edges WHERE follower_id = $1`, followerID)
	if err != nil {
		return nil, fmt.Errorf("FollowingIDs: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return ids, nil
}

// Following lists the accounts followed by accountID, most recent edge first.
func (r *PostgresFollowRepository) Following(ctx context.Context, accountID string, page models.Page) ([]models.Account, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.id, a.name, a.email, a.salt, a.secret_hash, a.elevated, a.created_at, a.updated_at
		FROM accounts a
		JOIN follow_edges f ON f.followed_id = a.id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC, a.id
		LIMIT $2 OFFSET $3
	`, accountID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("Following: %w", err)
	}
	return collectAccounts(rows)
}

// Followers lists the accounts that follow accountID, most recent edge first.
func (r *PostgresFollowRepository) Followers(ctx context.Context, accountID string, page models.Page) ([]models.Account, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.id, a.name, a.email, a.salt, a.secret_hash, a.elevated, a.created_at, a.updated_at
		FROM accounts a
		JOIN follow_edges f ON f.follower_id = a.id
		WHERE f.followed_id = $1
		ORDER BY f.created_at DESC, a.id
		LIMIT $2 OFFSET $3
	`, accountID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("Followers: %w", err)
	}
	return collectAccounts(rows)
}
