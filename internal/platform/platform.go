// Package platform describes the managed backend the dashboard talks to:
// an identity provider, a bookmark table and a change feed. They are bundled
// into one Client built at startup and shared by reference.
package platform

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

// IdentityProvider resolves, establishes and invalidates sessions.
type IdentityProvider interface {
	// SignInWithProvider returns the URL the visitor must be sent to in order
	// to authenticate with the named provider.
	SignInWithProvider(ctx context.Context, name, redirectTo string) (string, error)

	// CompleteSignIn finishes the handshake and returns an opaque session token.
	CompleteSignIn(ctx context.Context, state, accessToken string) (string, error)

	// GetCurrentSession returns Authenticated or Unauthenticated for token.
	GetCurrentSession(ctx context.Context, token string) (domain.Session, error)

	// SignOut invalidates the session held by token.
	SignOut(ctx context.Context, token string) error
}

// BookmarkTable is the remote bookmark collection.
type BookmarkTable interface {
	// ListByOwner returns every bookmark of ownerID, most recent first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error)

	// Insert stores a new row and returns it with ID and CreatedAt set.
	Insert(ctx context.Context, row domain.NewBookmark) (domain.Bookmark, error)

	// Delete removes the row id if it belongs to ownerID.
	// Deleting a missing row is not an error.
	Delete(ctx context.Context, ownerID, id string) error
}

// ChangeHandler is invoked once per change event.
type ChangeHandler func(domain.ChangeEvent)

// Subscription is an open change-event subscription.
type Subscription interface {
	// Close unsubscribes and releases the underlying connection.
	Close() error
}

// ChangeFeed delivers change events for named collections.
type ChangeFeed interface {
	Subscribe(ctx context.Context, collection string, handler ChangeHandler) (Subscription, error)
}

// ChangePublisher is implemented by feeds that tables publish into.
type ChangePublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// Client is the single handle on the platform.
type Client struct {
	Auth      IdentityProvider
	Bookmarks BookmarkTable
	Changes   ChangeFeed
}

// NewClient checks that every collaborator is present.
func NewClient(auth IdentityProvider, bookmarks BookmarkTable, changes ChangeFeed) (*Client, error) {
	if auth == nil || bookmarks == nil || changes == nil {
		return nil, errors.New("platform client requires auth, bookmarks and changes")
	}
	return &Client{Auth: auth, Bookmarks: bookmarks, Changes: changes}, nil
}
