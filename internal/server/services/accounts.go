package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	UnusableHash() (string, error)
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// IdentityVerifier is satisfied by *auth.GoogleVerifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*auth.FederatedIdentity, error)
}

// FederatedLogin is the result of a successful federated sign-in.
type FederatedLogin struct {
	AccessToken string
	Account     *models.Account
}

// AccountService maps password and federated identities to stored accounts
// and mints access tokens for them.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	retrier     *dbx.Retrier
	hasher      PasswordHasher
	tokens      TokenIssuer
	identities  IdentityVerifier
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, r *dbx.Retrier,
	hasher PasswordHasher, tokens TokenIssuer, identities IdentityVerifier) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		retrier:     r,
		hasher:      hasher,
		tokens:      tokens,
		identities:  identities,
	}
}

// FindByEmail returns the account registered with email or
// common.ErrorNotFound.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account *models.Account
	err := s.retrier.Do(ctx, func(ctx context.Context) (err error) {
		account, err = s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
		return err
	})
	return account, err
}

func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	var account *models.Account
	err := s.retrier.Do(ctx, func(ctx context.Context) (err error) {
		account, err = s.repomanager.Accounts(s.db).GetByID(ctx, id)
		return err
	})
	return account, err
}

// GetWithTasks returns the account together with all of its tasks, read in
// one transaction.
func (s *AccountService) GetWithTasks(ctx context.Context, id int64) (*models.Account, error) {
	var account *models.Account
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx dbx.DBTX) error {
			a, err := s.repomanager.Accounts(tx).GetByID(ctx, id)
			if err != nil {
				return err
			}
			a.Tasks, err = s.repomanager.Tasks(tx).ListAllByOwner(ctx, id)
			if err != nil {
				return err
			}
			account = a
			return nil
		})
	})
	return account, err
}

// CreateLocal registers a password account. A taken email fails with
// common.ErrorConflict; the unique constraint decides, not a prior read.
func (s *AccountService) CreateLocal(ctx context.Context, email, password string) (*models.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{Email: email, PasswordHash: hash, IsActive: true}
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.repomanager.Accounts(s.db).Create(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ResolveOrCreateFederated returns the account for email, creating one with
// an unusable password hash on first sign-in. Concurrent first sign-ins for
// the same email converge on a single account.
func (s *AccountService) ResolveOrCreateFederated(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.FindByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	hash, err := s.hasher.UnusableHash()
	if err != nil {
		return nil, err
	}

	account = &models.Account{Email: email, PasswordHash: hash, IsActive: true}
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.repomanager.Accounts(s.db).Create(ctx, account)
		return err
	})
	if errors.Is(err, common.ErrorConflict) {
		// lost the insert race
		return s.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateProfile applies the set fields of upd to the account. A new
// password is re-hashed; an email owned by another account fails with
// common.ErrorConflict. The returned account carries its tasks, read in
// the same transaction as the update.
func (s *AccountService) UpdateProfile(ctx context.Context, id int64, upd models.AccountUpdate) (*models.Account, error) {
	if upd.Empty() {
		return s.GetWithTasks(ctx, id)
	}

	var hash string
	if upd.Password != nil {
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var account *models.Account
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Accounts(tx)

			a, err := repo.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}

			if upd.Email != nil {
				a.Email = *upd.Email
			}
			if upd.Password != nil {
				a.PasswordHash = hash
			}

			if err := repo.Update(ctx, a); err != nil {
				return err
			}

			a.Tasks, err = s.repomanager.Tasks(tx).ListAllByOwner(ctx, id)
			if err != nil {
				return err
			}
			account = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Delete removes the account and, through the foreign key, all of its
// tasks.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.repomanager.Accounts(s.db).Delete(ctx, id)
	})
}

// Login checks email and password and returns an access token. Unknown
// emails and wrong passwords both fail with common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", common.ErrorUnauthorized
	}

	return s.issue(account.ID)
}

// LoginFederated verifies a provider ID token, resolves its account and
// returns an access token for it.
func (s *AccountService) LoginFederated(ctx context.Context, providerToken string) (*FederatedLogin, error) {
	identity, err := s.identities.Verify(ctx, providerToken)
	if err != nil {
		return nil, common.ErrFederatedTokenInvalid
	}

	if !identity.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	account, err := s.ResolveOrCreateFederated(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	token, err := s.issue(account.ID)
	if err != nil {
		return nil, err
	}

	return &FederatedLogin{AccessToken: token, Account: account}, nil
}

func (s *AccountService) issue(accountID int64) (string, error) {
	token, err := s.tokens.Issue(strconv.FormatInt(accountID, 10))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
