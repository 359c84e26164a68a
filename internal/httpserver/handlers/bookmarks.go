package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

// CreateBookmark submits the form fields title and url. Whatever the outcome
// the visitor is sent back to the dashboard, which shows the warning if any,
// including the one for a submit refused while another add is in flight.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := openScreen(w, r, d, false)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		err := screen.Add(r.Context(), r.PostForm.Get("title"), r.PostForm.Get("url"))
		switch {
		case err == nil, errors.Is(err, domain.ErrIncompleteDraft), errors.Is(err, domain.ErrInvalidURL):
		case errors.Is(err, dashboard.ErrAddInFlight):
			d.Logger.Info("add refused, previous one still in flight")
		default:
			d.Logger.Warn("add rejected", logger.Error(err))
		}

		http.Redirect(w, r, dashboard.HomePath, http.StatusSeeOther)
	}
}

// DeleteBookmark deletes the bookmark named in the path and goes back home.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := openScreen(w, r, d, false)
		if !ok {
			return
		}

		if err := screen.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			d.Logger.Warn("delete rejected", logger.Error(err))
		}

		http.Redirect(w, r, dashboard.HomePath, http.StatusSeeOther)
	}
}
