// Package service holds the business logic for accounts, the follow graph,
// posts and feeds. Persistence is delegated to the repository interfaces
// declared next to each service.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/credential"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/validation"
)

const reasonEmailTaken = "has already been taken"

// AccountRepository defines the persistence operations required by AccountService.
type AccountRepository interface {
	// CreateAccount stores a new account with its salt and hash in one write.
	CreateAccount(ctx context.Context, a *models.Account) error
	// UpdateAccount writes name, email and secret hash. The salt is never changed.
	UpdateAccount(ctx context.Context, a *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	// GetAccountByEmail matches email case-insensitively.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// EmailTaken reports whether an account other than excludeID uses email.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	ListAccounts(ctx context.Context, page models.Page) ([]models.Account, error)
	// DeleteAccount removes the account together with its posts and edges.
	DeleteAccount(ctx context.Context, id string) error
	SetElevated(ctx context.Context, id string, elevated bool) error
}

// AccountService creates, updates, authenticates and removes accounts.
type AccountService struct {
	repo      AccountRepository
	validator *validation.Validator
	now       func() time.Time
	newID     func() (string, error)
}

// NewAccountService constructs an AccountService. v supplies the validation rules.
func NewAccountService(repo AccountRepository, v *validation.Validator) *AccountService {
	return &AccountService{repo: repo, validator: v, now: utcNow, newID: newID}
}

// CreateAccount validates in, issues a fresh salt and hash and stores the
// account. Invalid input is returned as validation.Errors and nothing is
// hashed or persisted.
func (s *AccountService) CreateAccount(ctx context.Context, in validation.AccountInput) (*models.Account, error) {
	if err := s.validate(ctx, in, ""); err != nil {
		return nil, err
	}

	salt, hash, err := credential.Issue(in.Secret)
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &models.Account{
		ID:         id,
		Name:       in.Name,
		Email:      in.Email,
		Salt:       salt,
		SecretHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, validation.Errors{{Field: "email", Reason: reasonEmailTaken}}
		}
		return nil, err
	}
	return a, nil
}

// UpdateAccount applies the same rules as CreateAccount. The stored salt is
// kept and the hash is recomputed from the new secret.
func (s *AccountService) UpdateAccount(ctx context.Context, id string, in validation.AccountInput) (*models.Account, error) {
	a, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in, id); err != nil {
		return nil, err
	}

	a.Name = in.Name
	a.Email = in.Email
	a.SecretHash = credential.Rehash(a.Salt, in.Secret)
	a.UpdatedAt = s.now()

	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, validation.Errors{{Field: "email", Reason: reasonEmailTaken}}
		}
		return nil, err
	}
	return a, nil
}

// Authenticate returns the account whose email matches (ignoring case) and
// whose stored hash verifies against secret. An unknown email and a wrong
// secret both yield (nil, false, nil).
func (s *AccountService) Authenticate(ctx context.Context, email, secret string) (*models.Account, bool, error) {
	a, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !credential.Verify(a.Salt, a.SecretHash, secret) {
		return nil, false, nil
	}
	return a, true, nil
}

// GetAccount returns the account or common.ErrAccountNotFound.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.repo.GetAccountByID(ctx, id)
}

// ListAccounts returns one page of accounts in signup order.
func (s *AccountService) ListAccounts(ctx context.Context, page models.Page) ([]models.Account, error) {
	return s.repo.ListAccounts(ctx, page.Normalize())
}

// DestroyAccount removes the account, its posts and every follow edge that
// references it.
func (s *AccountService) DestroyAccount(ctx context.Context, id string) error {
	return s.repo.DeleteAccount(ctx, id)
}

// SetElevated grants or revokes the right to destroy other accounts.
func (s *AccountService) SetElevated(ctx context.Context, id string, elevated bool) error {
	return s.repo.SetElevated(ctx, id, elevated)
}

func (s *AccountService) validate(ctx context.Context, in validation.AccountInput, excludeID string) error {
	errs := s.validator.Account(in)
	if !errs.Has("email") {
		taken, err := s.repo.EmailTaken(ctx, in.Email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			errs = append(errs, validation.FieldError{Field: "email", Reason: reasonEmailTaken})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
