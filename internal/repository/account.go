package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
)

const accountColumns = `id, name, email, salt, secret_hash, elevated, created_at, updated_at`

// PostgresAccountRepository implements account persistence using a PostgreSQL database.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository with the given database connection.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// CreateAccount inserts a fully prepared account. Salt and hash are written
// in the same row insert. A case-insensitive email clash yields common.ErrEmailTaken.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, a *models.Account) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, salt, secret_hash, elevated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.Name, a.Email, a.Salt, a.SecretHash, a.Elevated, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return common.ErrEmailTaken
		}
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// UpdateAccount writes name, email and secret hash in one statement.
// The salt column is never touched.
func (r *PostgresAccountRepository) UpdateAccount(ctx context.Context, a *models.Account) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE accounts SET name = $2, email = $3, secret_hash = $4, updated_at = $5
		WHERE id = $1
	`, a.ID, a.Name, a.Email, a.SecretHash, a.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return common.ErrEmailTaken
		}
		return fmt.Errorf("UpdateAccount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}

// GetAccountByID returns the account or common.ErrAccountNotFound.
func (r *PostgresAccountRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccountRow(row)
}

// GetAccountByEmail looks the account up ignoring case.
func (r *PostgresAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
	return scanAccountRow(row)
}

// EmailTaken reports whether another account (not excludeID) already uses email.
func (r *PostgresAccountRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE lower(email) = lower($1) AND id::text <> $2)`,
		email, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("EmailTaken: %w", err)
	}
	return exists, nil
}

// ListAccounts returns accounts in signup order.
func (r *PostgresAccountRepository) ListAccounts(ctx context.Context, page models.Page) ([]models.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return collectAccounts(rows)
}

// DeleteAccount removes the account. Posts and follow edges go with it
// through ON DELETE CASCADE.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}

// SetElevated changes the elevated flag.
func (r *PostgresAccountRepository) SetElevated(ctx context.Context, id string, elevated bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE accounts SET elevated = $2 WHERE id = $1`, id, elevated)
	if err != nil {
		return fmt.Errorf("SetElevated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}

func scanAccount(s scanner) (*models.Account, error) {
	var a models.Account
	if err := s.Scan(&a.ID, &a.Name, &a.Email, &a.Salt, &a.SecretHash, &a.Elevated, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccountRow(row *sql.Row) (*models.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func collectAccounts(rows *sql.Rows) ([]models.Account, error) {
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return accounts, nil
}
