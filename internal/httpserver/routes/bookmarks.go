package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limited := r.With(timeout(), rateLimit(d))
	limited.Post("/bookmarks", handlers.CreateBookmark(d))
	limited.Post("/bookmarks/{id}/delete", handlers.DeleteBookmark(d))
	limited.Post("/api/refresh", handlers.Refresh(d))

	r.With(timeout()).Get("/api/bookmarks", handlers.Bookmarks(d))
	// long-lived, no request timeout
	r.Get("/events", handlers.Events(d))
}
