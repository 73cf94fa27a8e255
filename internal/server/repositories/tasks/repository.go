package tasks

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// Repository stores tasks. Every method is scoped to one owner: a task that
// belongs to someone else behaves exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Task, error)
	ListAllByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error)
	GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, ownerID, id int64) (*models.Task, error)
}
