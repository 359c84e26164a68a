package routes

import (
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/mw"
)

// requestTimeout bounds every route except the event stream.
const requestTimeout = 15 * time.Second

func timeout() Middleware {
	return middleware.Timeout(requestTimeout)
}

// rateLimit returns the limiter shared by RegisterAll.
func rateLimit(d deps.Deps) Middleware {
	return d.Limiter
}

func newRateLimiter(d deps.Deps) Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimit.Burst,
		RefillPerIPPerMin: d.RateLimit.PerMinute,
		MaxEntries:        d.RateLimit.MaxEntries,
		TrustProxy:        d.TrustProxy,
	}, d.Logger)
}

func infraOnly(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}
