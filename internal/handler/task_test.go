package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/task-tracker/internal/auth"
	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/repo/repomock"
	"github.com/BuzzLyutic/task-tracker/internal/service"
)

type testEnv struct {
	router http.Handler
	tasks  *repomock.TaskRepository
	users  *repomock.UserRepository
	tokens *auth.TokenManager
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()

	tasks := new(repomock.TaskRepository)
	users := new(repomock.UserRepository)
	tokens := auth.NewTokenManager(auth.TokenConfig{Secret: "handler-test", TTL: time.Hour})
	users.On("FindByID", mock.Anything, "u1").Return(model.User{ID: "u1", Email: "u1@example.com"}, nil).Maybe()

	logger := zap.NewNop()
	authService := auth.NewService(users, auth.NewPasswordHasher(bcrypt.MinCost), tokens)
	router := NewRouter(
		NewTaskHandler(service.NewTaskService(tasks), logger),
		NewAuthHandler(authService, logger, false),
		auth.NewMiddleware(authService, logger),
	)

	return &testEnv{router: router, tasks: tasks, users: users, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := e.tokens.Issue("u1", "u1@example.com")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestTaskRoutes_Unauthenticated(t *testing.T) {
	env := setupRouter(t)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/tasks", nil},
		{http.MethodPost, "/tasks", map[string]string{"title": "X"}},
		{http.MethodPatch, "/tasks/t1", map[string]string{"status": "done"}},
		{http.MethodDelete, "/tasks/t1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body, false)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		})
	}

	assert.Empty(t, env.tasks.Calls, "store must not be reached")
}

func TestTaskHandler_WithoutIdentity(t *testing.T) {
	tasks := new(repomock.TaskRepository)
	h := NewTaskHandler(service.NewTaskService(tasks), zap.NewNop())

	for name, fn := range map[string]http.HandlerFunc{
		"list": h.List, "create": h.Create, "update": h.Update, "delete": h.Delete,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte(`{"title":"X"}`)))
			w := httptest.NewRecorder()
			fn(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
	assert.Empty(t, tasks.Calls)
}

func TestTaskHandler_List(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	stored := []model.Task{
		{ID: "a", UserID: "u1", Title: "A", Status: model.StatusTodo, CreatedAt: base.Add(3 * time.Second)},
		{ID: "b", UserID: "u1", Title: "B", Status: model.StatusDone, CreatedAt: base.Add(1 * time.Second)},
		{ID: "c", UserID: "u1", Title: "C", Status: model.StatusTodo, CreatedAt: base.Add(5 * time.Second)},
		{ID: "d", UserID: "u1", Title: "D", Status: model.StatusInProgress, CreatedAt: base.Add(2 * time.Second)},
	}

	t.Run("ordered page with metadata", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Count", mock.Anything, "u1", model.TaskFilter{}).Return(4, nil)
		env.tasks.On("FetchAll", mock.Anything, "u1", model.TaskFilter{}).Return(stored, nil)

		w := env.do(t, http.MethodGet, "/tasks?page=1&limit=10", nil, true)
		require.Equal(t, http.StatusOK, w.Code)

		var page model.TaskPage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&page))

		ids := make([]string, 0, len(page.Data))
		for _, task := range page.Data {
			ids = append(ids, task.ID)
		}
		assert.Equal(t, []string{"c", "a", "d", "b"}, ids)
		assert.Equal(t, model.Pagination{Page: 1, Limit: 10, Total: 4, TotalPages: 1}, page.Pagination)
	})

	t.Run("status filter and bad page", func(t *testing.T) {
		env := setupRouter(t)
		done := model.StatusDone
		filter := model.TaskFilter{Status: &done}
		env.tasks.On("Count", mock.Anything, "u1", filter).Return(1, nil)
		env.tasks.On("FetchAll", mock.Anything, "u1", filter).Return([]model.Task{stored[1]}, nil)

		w := env.do(t, http.MethodGet, "/tasks?status=done&page=abc", nil, true)
		require.Equal(t, http.StatusOK, w.Code)

		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
		assert.Equal(t, map[string]interface{}{
			"page": float64(1), "limit": float64(10), "total": float64(1), "totalPages": float64(1),
		}, raw["pagination"])
		env.tasks.AssertExpectations(t)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Count", mock.Anything, "u1", mock.Anything).Return(0, nil)
		env.tasks.On("FetchAll", mock.Anything, "u1", mock.Anything).Return([]model.Task{}, nil)

		w := env.do(t, http.MethodGet, "/tasks", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[],"pagination":{"page":1,"limit":10,"total":0,"totalPages":0}}`, w.Body.String())
	})

	t.Run("count failure passes the store message through", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Count", mock.Anything, "u1", mock.Anything).Return(0, errors.New("Database error"))

		w := env.do(t, http.MethodGet, "/tasks", nil, true)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Database error"}`, w.Body.String())
		env.tasks.AssertNotCalled(t, "FetchAll", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTaskHandler_Create(t *testing.T) {
	t.Run("title only", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Create", mock.Anything, model.Task{UserID: "u1", Title: "X", Status: model.StatusTodo}).
			Return(model.Task{ID: "new", UserID: "u1", Title: "X", Status: model.StatusTodo, CreatedAt: time.Now()}, nil)

		w := env.do(t, http.MethodPost, "/tasks", map[string]string{"title": "X"}, true)
		require.Equal(t, http.StatusOK, w.Code)

		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
		assert.Equal(t, "todo", raw["status"])
		assert.Contains(t, raw, "description")
		assert.Nil(t, raw["description"])
		assert.Equal(t, "u1", raw["user_id"])
	})

	t.Run("owner in body is ignored", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Create", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
			return task.UserID == "u1"
		})).Return(model.Task{ID: "new", UserID: "u1", Title: "X", Status: model.StatusTodo}, nil)

		w := env.do(t, http.MethodPost, "/tasks", map[string]string{"title": "X", "user_id": "intruder"}, true)
		assert.Equal(t, http.StatusOK, w.Code)
		env.tasks.AssertExpectations(t)
	})

	t.Run("empty body", func(t *testing.T) {
		env := setupRouter(t)
		w := env.do(t, http.MethodPost, "/tasks", nil, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		env := setupRouter(t)
		w := env.do(t, http.MethodPost, "/tasks", `{"title":`, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store rejects the row", func(t *testing.T) {
		env := setupRouter(t)
		pgErr := &pgconn.PgError{Code: "23514", Message: `new row for relation "tasks" violates check constraint "tasks_status_check"`}
		env.tasks.On("Create", mock.Anything, mock.Anything).Return(model.Task{}, pgErr)

		w := env.do(t, http.MethodPost, "/tasks", map[string]string{"title": "X", "status": "archived"}, true)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, pgErr.Message, body["error"])
	})
}

func TestTaskHandler_Update(t *testing.T) {
	done := model.StatusDone
	patch := model.TaskPatch{Status: &done}

	t.Run("partial update", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Update", mock.Anything, "u1", "t1", patch).
			Return(model.Task{ID: "t1", UserID: "u1", Title: "A", Status: model.StatusDone}, nil)

		w := env.do(t, http.MethodPatch, "/tasks/t1", map[string]string{"status": "done"}, true)
		require.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, model.StatusDone, task.Status)
		assert.Equal(t, "A", task.Title)
	})

	t.Run("null description clears it", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Update", mock.Anything, "u1", "t1", model.TaskPatch{Description: model.Null[string]()}).
			Return(model.Task{ID: "t1", UserID: "u1", Title: "A", Status: model.StatusTodo}, nil)

		w := env.do(t, http.MethodPatch, "/tasks/t1", `{"description":null}`, true)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Contains(t, body, "description")
		assert.Nil(t, body["description"])
	})

	t.Run("empty body leaves description alone", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Update", mock.Anything, "u1", "t1", model.TaskPatch{}).
			Return(model.Task{ID: "t1", UserID: "u1", Title: "A", Description: ptr("kept"), Status: model.StatusTodo}, nil)

		w := env.do(t, http.MethodPatch, "/tasks/t1", `{}`, true)
		require.Equal(t, http.StatusOK, w.Code)
		env.tasks.AssertExpectations(t)
	})

	t.Run("foreign task is not found", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Update", mock.Anything, "u1", "theirs", patch).Return(model.Task{}, repo.ErrorNotFound)

		w := env.do(t, http.MethodPatch, "/tasks/theirs", map[string]string{"status": "done"}, true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Update", mock.Anything, "u1", "t1", patch).Return(model.Task{}, errors.New("Update failed"))

		w := env.do(t, http.MethodPatch, "/tasks/t1", map[string]string{"status": "done"}, true)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Update failed"}`, w.Body.String())
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	t.Run("missing id still succeeds", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Delete", mock.Anything, "u1", "missing").Return(nil)

		w := env.do(t, http.MethodDelete, "/tasks/missing", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{}`, w.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		env := setupRouter(t)
		env.tasks.On("Delete", mock.Anything, "u1", "t1").Return(errors.New("Delete failed"))

		w := env.do(t, http.MethodDelete, "/tasks/t1", nil, true)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Delete failed"}`, w.Body.String())
	})

	t.Run("direct call reads chi url param", func(t *testing.T) {
		tasks := new(repomock.TaskRepository)
		tasks.On("Delete", mock.Anything, "u1", "t7").Return(nil)
		h := NewTaskHandler(service.NewTaskService(tasks), zap.NewNop())

		req := httptest.NewRequest(http.MethodDelete, "/tasks/t7", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "t7")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		req = req.WithContext(auth.WithIdentity(ctx, model.Identity{UserID: "u1"}))

		w := httptest.NewRecorder()
		h.Delete(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		tasks.AssertExpectations(t)
	})
}

func TestHealth(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodGet, "/health", nil, false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func ptr(s string) *string { return &s }
