// Package tasks stores to-do items in the PostgreSQL todos table.
package tasks

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

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {

	query :=
		`INSERT INTO todos (title, description, completed, owner_id)
         VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Completed, task.OwnerID).Scan(&task.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Task, error) {
	query :=
		`SELECT id, title, description, completed, owner_id FROM todos
		 WHERE owner_id = $1
		 ORDER BY id
		 LIMIT $2 OFFSET $3
		 `

	return r.list(ctx, query, ownerID, limit, offset)
}

func (r *PostgresRepository) ListAllByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	query :=
		`SELECT id, title, description, completed, owner_id FROM todos
		 WHERE owner_id = $1
		 ORDER BY id
		 `

	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// GetForUpdate locks the owner's task until the surrounding transaction
// ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	query :=
		`SELECT id, title, description, completed, owner_id FROM todos
		 WHERE id = $1 AND owner_id = $2
		 FOR UPDATE
		 `

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query :=
		`UPDATE todos SET title = $1, description = $2, completed = $3
		 WHERE id = $4 AND owner_id = $5
		 `

	res, err := r.db.ExecContext(ctx, query, task.Title, task.Description, task.Completed, task.ID, task.OwnerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// Delete removes the owner's task and returns it as it was.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	query :=
		`DELETE FROM todos
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, title, description, completed, owner_id
		 `

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var description sql.NullString
	if err := s.Scan(&t.ID, &t.Title, &description, &t.Completed, &t.OwnerID); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	return t, nil
}
