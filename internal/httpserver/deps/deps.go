package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
	"github.com/MrSnakeDoc/smartmark/internal/sources/providers"
)

// SessionCookie holds the opaque session token.
const SessionCookie = "smartmark_session"

// Pinger is a backing component whose reachability is reported by /readyz and /infra.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time    // for testing, defaults to time.Now
	AllowedHosts []string            // Host headers allowed to access the server
	AllowedCIDRS []string            // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy   bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Client       *platform.Client    // identity provider, bookmark table and change feed
	Screens      *dashboard.Registry // live screens, one per session token
	Providers    providers.Catalogue // sign-in options shown on the login page
	CallbackURL  string              // where the identity provider sends the visitor back
	SessionTTL   time.Duration       // max age of the session cookie
	SecureCookie bool                // mark the session cookie Secure
	StoreBackend string              // "redis" | "sqlite" | "memory"
	Components   map[string]Pinger   // backing components by name, e.g. "redis", "sqlite"
	RateLimit    RateLimit           // applied to state-changing routes

	// Limiter is the per-IP limiter shared by every limited route.
	// routes.RegisterAll builds it from RateLimit when nil.
	Limiter func(http.Handler) http.Handler
}

// RateLimit tunes the per-IP token bucket of state-changing routes.
type RateLimit struct {
	Burst      int
	PerMinute  int
	MaxEntries int
}

// Now returns the current time, honoring TimeNow.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
