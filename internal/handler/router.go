package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BuzzLyutic/task-tracker/internal/auth"
	"github.com/BuzzLyutic/task-tracker/pkg/respond"
)

// NewRouter mounts the health, auth and task routes. Every /tasks route sits
// behind gate.RequireUser.
func NewRouter(tasks *TaskHandler, users *AuthHandler, gate *auth.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", users.SignUp)
		r.Post("/login", users.Login)
		r.Post("/logout", users.Logout)
		r.With(gate.RequireUser).Get("/me", users.Me)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(gate.RequireUser)
		r.Get("/", tasks.List)
		r.Post("/", tasks.Create)
		r.Patch("/{id}", tasks.Update)
		r.Delete("/{id}", tasks.Delete)
	})

	return r
}
