package repo

import (
	"context"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// TaskRepository is the task store. Every call is scoped to the owner passed in.
type TaskRepository interface {
	Count(ctx context.Context, owner string, filter model.TaskFilter) (int, error)
	FetchAll(ctx context.Context, owner string, filter model.TaskFilter) ([]model.Task, error)
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Update(ctx context.Context, owner, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, owner, id string) error
}

// UserRepository stores the accounts behind the identity provider.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
}
