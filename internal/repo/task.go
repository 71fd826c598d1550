package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, user_id, title, description, status, created_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Count(ctx context.Context, owner string, filter model.TaskFilter) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM tasks
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
	`, owner, statusArg(filter)).Scan(&n)
	return n, err
}

// FetchAll returns every matching task in no particular order.
func (r *TaskRepo) FetchAll(ctx context.Context, owner string, filter model.TaskFilter) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
	`, owner, statusArg(filter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return t, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		id.String(), t.UserID, t.Title, t.Description, string(t.Status),
	)
	created, err := scanTask(row)
	if err != nil {
		return t, mapError(err)
	}
	return created, nil
}

// Update sets only the fields present in patch. A present null description
// clears it.
func (r *TaskRepo) Update(ctx context.Context, owner, id string, patch model.TaskPatch) (model.Task, error) {
	var sets []string
	args := []any{id, owner}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description.Set {
		set("description", patch.Description.Value)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if len(sets) == 0 {
		sets = append(sets, "title = title")
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		args...,
	)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, mapError(err)
}

// Delete removes the task if it exists and belongs to owner. A miss is not an error.
func (r *TaskRepo) Delete(ctx context.Context, owner, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, owner)
	return err
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t      model.Task
		status string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status, &t.CreatedAt)
	t.Status = model.Status(status)
	return t, err
}

func statusArg(filter model.TaskFilter) any {
	if filter.Status == nil {
		return nil
	}
	return string(*filter.Status)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}

// Message is the store's own text for err, without driver decoration.
func Message(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	return err.Error()
}
