package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/sources/providers"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	loginTmpl     = template.Must(template.ParseFS(templateFS, "templates/login.html"))
	dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))
)

type loginPage struct {
	Providers providers.Catalogue
	Error     string
}

type dashboardPage struct {
	dashboard.View
	Email string
}

// Login lists the sign-in providers. Visitors already signed in go home.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessionToken(r); token != "" {
			session, err := d.Client.Auth.GetCurrentSession(r.Context(), token)
			if err == nil {
				if _, ok := domain.IdentityOf(session); ok {
					http.Redirect(w, r, dashboard.HomePath, http.StatusSeeOther)
					return
				}
			}
		}

		page := loginPage{Providers: d.Providers}
		if r.URL.Query().Get("error") != "" {
			page.Error = "Sign-in failed, please try again."
		}
		render(w, d, loginTmpl, page)
	}
}

// Dashboard renders the caller's screen, or sends them to the login page.
func Dashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := openScreen(w, r, d, false)
		if !ok {
			return
		}

		view := screen.View()
		identity, _ := domain.IdentityOf(view.Session)
		if render(w, d, dashboardTmpl, dashboardPage{View: view, Email: identity.Email}) && view.Warning != "" {
			// shown once
			screen.DismissWarning()
		}
	}
}

// render executes tmpl fully before writing, so a failing template yields a clean 500.
func render(w http.ResponseWriter, d deps.Deps, tmpl *template.Template, data any) bool {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		d.Logger.Error("failed to render page", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
	return true
}
