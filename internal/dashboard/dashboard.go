// Package dashboard is the view-model of the bookmark screen: it resolves the
// session, keeps the owner's list in sync with the remote table through the
// change feed, and runs the create/delete operations.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/index"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/platform"
)

const (
	// LoginPath is where unauthenticated visitors are sent.
	LoginPath = "/login"
	// HomePath is the dashboard itself.
	HomePath = "/"

	// DefaultCallTimeout bounds every remote call made by a screen.
	DefaultCallTimeout = 10 * time.Second
)

// Navigator moves the visitor to another screen.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Options tunes a screen.
type Options struct {
	CallTimeout time.Duration
}

// View is a consistent copy of the screen state, ready to render.
type View struct {
	Loading     bool
	Session     domain.Session
	Bookmarks   []domain.Bookmark
	Draft       domain.Draft
	Adding      bool
	SubmitLabel string
	Warning     string
	Generation  uint64
}

// Dashboard is one screen instance bound to one session token.
type Dashboard struct {
	client    *platform.Client
	token     string
	logger    logger.Logger
	timeout   time.Duration
	list      *index.BookmarkList
	refresher *refresher
	sub       *subscription

	mu       sync.Mutex
	loading  bool
	session  domain.Session
	draft    domain.Draft
	adding   bool
	warning  string
	lastSeen time.Time
}

// New builds an unloaded screen for token. Nothing is read until Load.
func New(client *platform.Client, token string, opts Options, log logger.Logger) *Dashboard {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	log = log.With(logger.String("screen", shortToken(token)))
	list := index.NewBookmarkList()

	return &Dashboard{
		client:    client,
		token:     token,
		logger:    log,
		timeout:   opts.CallTimeout,
		list:      list,
		refresher: newRefresher(client.Bookmarks, list, log, opts.CallTimeout),
		sub:       &subscription{},
		loading:   true,
		session:   domain.Unauthenticated{},
		lastSeen:  time.Now(),
	}
}

// Load resolves the session. Without one, the visitor is sent to the login
// screen and nothing else is read. With one, the change subscription is armed
// and the initial list is fetched before Load returns.
func (d *Dashboard) Load(ctx context.Context, nav Navigator) domain.Session {
	callCtx, cancel := d.withTimeout(ctx)
	session, err := d.client.Auth.GetCurrentSession(callCtx, d.token)
	cancel()
	if err != nil {
		d.logger.Warn("session lookup failed, treating visitor as signed out", logger.Error(err))
		session = domain.Unauthenticated{}
	}

	identity, ok := domain.IdentityOf(session)
	if !ok {
		d.mu.Lock()
		d.session = domain.Unauthenticated{}
		d.loading = false
		d.mu.Unlock()

		nav.Navigate(LoginPath)
		return domain.Unauthenticated{}
	}

	d.mu.Lock()
	d.session = identity
	d.mu.Unlock()

	d.refresher.start(identity.UserID)

	// Armed before the first fetch so a change landing in between still
	// triggers a refetch.
	if err := d.sub.arm(context.WithoutCancel(ctx), d.client.Changes, func() { d.refresher.trigger() }); err != nil {
		d.logger.Warn("change subscription failed, list will not update live", logger.Error(err))
	}

	_ = d.refresher.refresh(context.WithoutCancel(ctx))

	d.mu.Lock()
	d.loading = false
	d.mu.Unlock()

	d.logger.Info("screen loaded",
		logger.String("user_id", identity.UserID),
		logger.Int("bookmarks", d.list.Count()))
	return identity
}

// SignOut invalidates the session, releases the screen and navigates to login.
// Sign-out failures are logged only.
func (d *Dashboard) SignOut(ctx context.Context, nav Navigator) {
	callCtx, cancel := d.withTimeout(ctx)
	if err := d.client.Auth.SignOut(callCtx, d.token); err != nil {
		d.logger.Warn("sign out failed", logger.Error(err))
	}
	cancel()

	d.Close()

	d.mu.Lock()
	d.session = domain.Unauthenticated{}
	d.mu.Unlock()

	nav.Navigate(LoginPath)
}

// Close tears the screen down: the change subscription is released and the
// refresh worker stopped. In-flight remote calls are left to finish.
func (d *Dashboard) Close() {
	if err := d.sub.release(); err != nil {
		d.logger.Warn("failed to release change subscription", logger.Error(err))
	}
	d.refresher.stop()
}

// RequestRefresh asks for a coalesced refresh. It returns false when one is
// already pending.
func (d *Dashboard) RequestRefresh() bool {
	if _, ok := d.Identity(); !ok {
		return false
	}
	return d.refresher.trigger()
}

// Identity returns the current identity, if any.
func (d *Dashboard) Identity() (domain.Authenticated, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return domain.IdentityOf(d.session)
}

// Loading reports whether the session is still being resolved.
func (d *Dashboard) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.loading
}

// Bookmarks returns the current list, most recent first.
func (d *Dashboard) Bookmarks() []domain.Bookmark {
	return d.list.Snapshot()
}

// LastRefresh returns when the list was last replaced, zero before the first fetch.
func (d *Dashboard) LastRefresh() time.Time {
	return d.list.GetLastRefresh()
}

// SubscriptionState reports where the change subscription is in its lifecycle.
func (d *Dashboard) SubscriptionState() SubscriptionState {
	return d.sub.current()
}

// Watch notifies the generation of every list replace. See index.BookmarkList.Watch.
func (d *Dashboard) Watch() (<-chan uint64, func()) {
	return d.list.Watch()
}

// View returns a snapshot of everything the screen renders.
func (d *Dashboard) View() View {
	d.mu.Lock()
	v := View{
		Loading: d.loading,
		Session: d.session,
		Draft:   d.draft,
		Adding:  d.adding,
		Warning: d.warning,
	}
	d.mu.Unlock()

	v.SubmitLabel = "Add Bookmark"
	if v.Adding {
		v.SubmitLabel = "Adding..."
	}
	v.Bookmarks = d.list.Snapshot()
	v.Generation = d.list.Generation()
	return v
}

// DismissWarning clears the validation warning once it has been shown.
func (d *Dashboard) DismissWarning() {
	d.mu.Lock()
	d.warning = ""
	d.mu.Unlock()
}

// touch records a visit, used for idle eviction.
func (d *Dashboard) touch(now time.Time) {
	d.mu.Lock()
	d.lastSeen = now
	d.mu.Unlock()
}

// LastSeen returns the time of the last visit.
func (d *Dashboard) LastSeen() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastSeen
}

// withTimeout detaches ctx from the caller's cancellation and bounds it:
// navigating away does not abort a remote call.
func (d *Dashboard) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
