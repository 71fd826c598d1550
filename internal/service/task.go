package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/BuzzLyutic/task-tracker/internal/auth"
	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// List returns one page of the owner's tasks ordered by status rank, then
// newest first. The total comes from a separate count; if it fails nothing
// is fetched.
func (s *TaskService) List(ctx context.Context, owner string, q model.ListQuery) (model.TaskPage, error) {
	if owner == "" {
		return model.TaskPage{}, auth.ErrUnauthenticated
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}

	total, err := s.repo.Count(ctx, owner, q.Filter)
	if err != nil {
		return model.TaskPage{}, err
	}

	tasks, err := s.repo.FetchAll(ctx, owner, q.Filter)
	if err != nil {
		return model.TaskPage{}, err
	}

	SortTasks(tasks)

	return model.TaskPage{
		Data: paginate(tasks, q.Page, q.Limit),
		Pagination: model.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: ceilDiv(total, q.Limit),
		},
	}, nil
}

func (s *TaskService) Create(ctx context.Context, owner string, in model.TaskInput) (model.Task, error) {
	if owner == "" {
		return model.Task{}, auth.ErrUnauthenticated
	}
	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	return s.repo.Create(ctx, model.Task{
		UserID:      owner,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	})
}

func (s *TaskService) Update(ctx context.Context, owner, id string, patch model.TaskPatch) (model.Task, error) {
	if owner == "" {
		return model.Task{}, auth.ErrUnauthenticated
	}
	return s.repo.Update(ctx, owner, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return auth.ErrUnauthenticated
	}
	return s.repo.Delete(ctx, owner, id)
}

// SortTasks orders tasks by status rank, then created_at descending, then id
// ascending.
func SortTasks(tasks []model.Task) {
	slices.SortFunc(tasks, func(a, b model.Task) int {
		if c := cmp.Compare(a.Status.Rank(), b.Status.Rank()); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func paginate(tasks []model.Task, page, limit int) []model.Task {
	if page-1 >= ceilDiv(len(tasks), limit) {
		return []model.Task{}
	}
	start := (page - 1) * limit
	end := start + min(limit, len(tasks)-start)
	return tasks[start:end]
}

func ceilDiv(n, d int) int {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}
