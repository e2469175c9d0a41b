package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/lib/pq"
)

var accountCols = []string{"id", "name", "email", "salt", "secret_hash", "elevated", "created_at", "updated_at"}

func setupAccountMock(t *testing.T) (*PostgresAccountRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresAccountRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func sampleAccount() *models.Account {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Account{
		ID:         "a1",
		Name:       "Example User",
		Email:      "user@example.com",
		Salt:       "salt",
		SecretHash: "hash",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateAccount_Success(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	a := sampleAccount()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts (id, name, email, salt, secret_hash, elevated, created_at, updated_at)`)).
		WithArgs(a.ID, a.Name, a.Email, a.Salt, a.SecretHash, false, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateAccount(context.Background(), sampleAccount())
	if !errors.Is(err, common.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateAccount_Error(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(errors.New("insert failed"))

	err := repo.CreateAccount(context.Background(), sampleAccount())
	if err == nil || !regexp.MustCompile(`CreateAccount: insert failed`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	a := sampleAccount()
	query := regexp.QuoteMeta(`UPDATE accounts SET name = $2, email = $3, secret_hash = $4, updated_at = $5 WHERE id = $1`)

	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupAccountMock(t)
		defer cleanup()
		mock.ExpectExec(query).
			WithArgs(a.ID, a.Name, a.Email, a.SecretHash, a.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.UpdateAccount(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, cleanup := setupAccountMock(t)
		defer cleanup()
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.UpdateAccount(context.Background(), a); !errors.Is(err, common.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("email clash", func(t *testing.T) {
		repo, mock, cleanup := setupAccountMock(t)
		defer cleanup()
		mock.ExpectExec(query).WillReturnError(&pq.Error{Code: "23505"})
		if err := repo.UpdateAccount(context.Background(), a); !errors.Is(err, common.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestGetAccountByEmail_CaseInsensitiveQuery(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	a := sampleAccount()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE lower(email) = lower($1)`)).
		WithArgs("USER@EXAMPLE.COM").
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(a.ID, a.Name, a.Email, a.Salt, a.SecretHash, true, a.CreatedAt, a.UpdatedAt))

	got, err := repo.GetAccountByEmail(context.Background(), "USER@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != a.ID || got.Salt != "salt" || got.SecretHash != "hash" || !got.Elevated {
		t.Errorf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetAccountByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAccountByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetAccountByID_Error(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE id = $1`)).
		WithArgs("a1").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.GetAccountByID(context.Background(), "a1")
	if err == nil || errors.Is(err, common.ErrAccountNotFound) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestEmailTaken(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM accounts WHERE lower(email) = lower($1) AND id::text <> $2)`)).
		WithArgs("user@example.com", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.EmailTaken(context.Background(), "user@example.com", "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken {
		t.Error("expected email to be taken")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListAccounts(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	a := sampleAccount()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2`)).
		WithArgs(30, 60).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("a1", a.Name, a.Email, a.Salt, a.SecretHash, false, a.CreatedAt, a.UpdatedAt).
			AddRow("a2", "Other", "o@example.com", "s2", "h2", false, a.CreatedAt, a.UpdatedAt))

	got, err := repo.ListAccounts(context.Background(), models.Page{Limit: 30, Offset: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("unexpected accounts: %+v", got)
	}
}

func TestDeleteAccount(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupAccountMock(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
			WithArgs("a1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.DeleteAccount(context.Background(), "a1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, cleanup := setupAccountMock(t)
		defer cleanup()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.DeleteAccount(context.Background(), "ghost"); !errors.Is(err, common.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestSetElevated(t *testing.T) {
	repo, mock, cleanup := setupAccountMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET elevated = $2 WHERE id = $1`)).
		WithArgs("a1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET elevated = $2 WHERE id = $1`)).
		WithArgs("ghost", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetElevated(context.Background(), "a1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.SetElevated(context.Background(), "ghost", true); !errors.Is(err, common.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
