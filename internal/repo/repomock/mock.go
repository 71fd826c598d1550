// Package repomock provides testify mocks of the repository interfaces.
package repomock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
)

var (
	_ repo.TaskRepository = (*TaskRepository)(nil)
	_ repo.UserRepository = (*UserRepository)(nil)
)

type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Count(ctx context.Context, owner string, filter model.TaskFilter) (int, error) {
	args := m.Called(ctx, owner, filter)
	return args.Int(0), args.Error(1)
}

func (m *TaskRepository) FetchAll(ctx context.Context, owner string, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, owner, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *TaskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, owner, id string, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, owner, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *TaskRepository) Delete(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}
