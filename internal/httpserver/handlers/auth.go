package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/utils"
)

// SignIn redirects the visitor to the identity provider named in the path.
func SignIn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "provider")

		target, err := d.Client.Auth.SignInWithProvider(r.Context(), name, d.CallbackURL)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownProvider) {
				http.NotFound(w, r)
				return
			}
			d.Logger.Error("failed to start sign-in",
				logger.String("provider", name),
				logger.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}

		http.Redirect(w, r, target, http.StatusFound)
	}
}

// Callback completes the sign-in, sets the session cookie and goes home.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		token, err := d.Client.Auth.CompleteSignIn(r.Context(), q.Get("state"), q.Get("access_token"))
		if err != nil {
			d.Logger.Warn("sign-in rejected",
				logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)),
				logger.Error(err))
			http.Redirect(w, r, dashboard.LoginPath+"?error=signin", http.StatusSeeOther)
			return
		}

		setSessionCookie(w, d, token)
		http.Redirect(w, r, dashboard.HomePath, http.StatusSeeOther)
	}
}

// Logout signs the session out and clears the cookie.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nav := &redirectNav{}
		if token := sessionToken(r); token != "" {
			d.Screens.SignOut(r.Context(), token, nav)
		}

		clearSessionCookie(w, d)
		nav.follow(w, r, dashboard.LoginPath)
	}
}
