package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/handlers"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(timeout(), rateLimit(d))
	limited.Get("/auth/callback", handlers.Callback(d))
	limited.Get("/auth/{provider}", handlers.SignIn(d))
	limited.Post("/logout", handlers.Logout(d))
}
