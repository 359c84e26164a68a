package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
)

// redirectNav records where the screen wants the visitor to go.
type redirectNav struct {
	target string
}

func (n *redirectNav) Navigate(path string) { n.target = path }

// follow redirects to the recorded target, or to fallback when none was set.
func (n *redirectNav) follow(w http.ResponseWriter, r *http.Request, fallback string) {
	to := n.target
	if to == "" {
		to = fallback
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(deps.SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, d deps.Deps, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     deps.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(d.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   d.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, d deps.Deps) {
	http.SetCookie(w, &http.Cookie{
		Name:     deps.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   d.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// openScreen returns the caller's screen. When there is none, the visitor has
// been redirected (or, for API calls, answered 401) and ok is false.
func openScreen(w http.ResponseWriter, r *http.Request, d deps.Deps, api bool) (*dashboard.Dashboard, bool) {
	nav := &redirectNav{}
	screen, ok := d.Screens.Open(r.Context(), sessionToken(r), nav)
	if ok {
		return screen, true
	}

	if api {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not signed in"})
		return nil, false
	}
	nav.follow(w, r, dashboard.LoginPath)
	return nil, false
}
