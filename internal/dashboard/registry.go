package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

// Registry keeps one live screen per session token.
type Registry struct {
	client *platform.Client
	opts   Options
	logger logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	screens map[string]*Dashboard
}

// NewRegistry creates an empty registry sharing client across screens.
func NewRegistry(client *platform.Client, opts Options, log logger.Logger) *Registry {
	return &Registry{
		client:  client,
		opts:    opts,
		logger:  log,
		now:     time.Now,
		screens: make(map[string]*Dashboard),
	}
}

// Open returns the screen of token, building and loading it on first visit.
// An existing screen is only reused while its session is still valid.
// When the visitor is not authenticated, nav is sent to the login screen,
// no bookmark is fetched, and ok is false.
func (r *Registry) Open(ctx context.Context, token string, nav Navigator) (*Dashboard, bool) {
	if d, ok := r.get(token); ok {
		if r.stillValid(ctx, d) {
			d.touch(r.now())
			return d, true
		}
		r.Close(token)
		nav.Navigate(LoginPath)
		return nil, false
	}

	d := New(r.client, token, r.opts, r.logger)
	if _, ok := domain.IdentityOf(d.Load(ctx, nav)); !ok {
		d.Close()
		return nil, false
	}

	r.mu.Lock()
	if existing, ok := r.screens[token]; ok {
		// Another request loaded the same session concurrently.
		r.mu.Unlock()
		d.Close()
		existing.touch(r.now())
		return existing, true
	}
	r.screens[token] = d
	r.mu.Unlock()

	d.touch(r.now())
	return d, true
}

// Get returns the live screen of token without touching it.
func (r *Registry) Get(token string) (*Dashboard, bool) {
	return r.get(token)
}

func (r *Registry) get(token string) (*Dashboard, bool) {
	if token == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.screens[token]
	return d, ok
}

func (r *Registry) stillValid(ctx context.Context, d *Dashboard) bool {
	callCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	session, err := r.client.Auth.GetCurrentSession(callCtx, d.token)
	if err != nil {
		r.logger.Warn("session revalidation failed", logger.Error(err))
		return false
	}
	_, ok := domain.IdentityOf(session)
	return ok
}

// SignOut signs the screen of token out and forgets it. Without a live
// screen the session is still invalidated and nav sent to login.
func (r *Registry) SignOut(ctx context.Context, token string, nav Navigator) {
	r.mu.Lock()
	d, ok := r.screens[token]
	delete(r.screens, token)
	r.mu.Unlock()

	if ok {
		d.SignOut(ctx, nav)
		return
	}

	New(r.client, token, r.opts, r.logger).SignOut(ctx, nav)
}

// Close tears down and forgets the screen of token.
func (r *Registry) Close(token string) {
	r.mu.Lock()
	d, ok := r.screens[token]
	delete(r.screens, token)
	r.mu.Unlock()

	if ok {
		d.Close()
	}
}

// CloseAll tears every screen down, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	screens := r.screens
	r.screens = make(map[string]*Dashboard)
	r.mu.Unlock()

	for _, d := range screens {
		d.Close()
	}
}

// EvictIdle tears down screens not visited for longer than idle and returns
// how many were evicted.
func (r *Registry) EvictIdle(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Dashboard
	for token, d := range r.screens {
		if d.LastSeen().Before(cutoff) {
			stale = append(stale, d)
			delete(r.screens, token)
		}
	}
	r.mu.Unlock()

	for _, d := range stale {
		d.Close()
	}
	return len(stale)
}

// Count returns the number of live screens.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.screens)
}
