package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// TaskService manages tasks on behalf of their owner. A task owned by
// another account is reported as common.ErrorNotFound.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	retrier     *dbx.Retrier
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, r *dbx.Retrier) *TaskService {
	return &TaskService{db: db, repomanager: m, retrier: r}
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, in models.TaskCreate) (*models.Task, error) {
	task := &models.Task{Title: in.Title, Description: in.Description, OwnerID: ownerID}
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.repomanager.Tasks(s.db).Create(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List returns a page of the owner's tasks ordered by id. A negative skip
// means 0; a limit outside 1..MaxListLimit means DefaultListLimit, or
// MaxListLimit when it is too large.
func (s *TaskService) List(ctx context.Context, ownerID int64, skip, limit int) ([]*models.Task, error) {
	skip, limit = normalizePage(skip, limit)

	var result []*models.Task
	err := s.retrier.Do(ctx, func(ctx context.Context) (err error) {
		result, err = s.repomanager.Tasks(s.db).ListByOwner(ctx, ownerID, limit, skip)
		return err
	})
	return result, err
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return skip, limit
}

// Update applies the set fields of upd to the owner's task.
func (s *TaskService) Update(ctx context.Context, ownerID, id int64, upd models.TaskUpdate) (*models.Task, error) {
	var task *models.Task
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Tasks(tx)

			t, err := repo.GetForUpdate(ctx, ownerID, id)
			if err != nil {
				return err
			}

			upd.Apply(t)

			if err := repo.Update(ctx, t); err != nil {
				return err
			}
			task = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the owner's task and returns it.
func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	var task *models.Task
	err := s.retrier.Do(ctx, func(ctx context.Context) (err error) {
		task, err = s.repomanager.Tasks(s.db).Delete(ctx, ownerID, id)
		return err
	})
	return task, err
}
