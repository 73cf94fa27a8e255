// Package accounts stores accounts in the PostgreSQL users table.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts account and sets its ID. A duplicate email fails with
// common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO users (email, hashed_password, is_active)
         VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.IsActive).Scan(&account.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT id, email, hashed_password, is_active FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT id, email, hashed_password, is_active FROM users
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, hashed_password, is_active FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.IsActive)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// Update overwrites email, password hash and active flag. A missing row
// fails with common.ErrorNotFound, an email taken by another account with
// common.ErrorConflict.
func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE users SET email = $1, hashed_password = $2, is_active = $3
		 WHERE id = $4
		 `

	res, err := r.db.ExecContext(ctx, query, account.Email, account.PasswordHash, account.IsActive, account.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

// Delete removes the account; its tasks go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
