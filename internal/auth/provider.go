// Package auth adapts the external identity provider: it builds sign-in
// redirects, verifies the tokens the provider hands back and keeps session
// records keyed by an opaque token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	redisstore "github.com/MrSnakeDoc/smartmark/internal/store/redis"
)

var (
	ErrUnknownProvider = errors.New("unknown identity provider")
	ErrInvalidState    = errors.New("invalid sign-in state")
	ErrInvalidToken    = errors.New("invalid access token")
)

// DefaultStateTTL bounds the time between sign-in start and callback.
const DefaultStateTTL = 10 * time.Minute

// SessionStore persists session records.
type SessionStore interface {
	SaveSession(ctx context.Context, token string, rec redisstore.SessionRecord, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*redisstore.SessionRecord, error)
	DeleteSession(ctx context.Context, token string) error
}

// Options configures the Provider.
type Options struct {
	PlatformURL string        // identity provider base URL
	AccessKey   string        // shared secret, verifies provider tokens
	Providers   []string      // accepted provider names
	SessionTTL  time.Duration // upper bound of a session lifetime
	StateTTL    time.Duration // defaults to DefaultStateTTL
}

// Provider implements platform.IdentityProvider.
type Provider struct {
	authorizeURL string
	secret       []byte
	stateKey     []byte
	providers    map[string]bool
	sessionTTL   time.Duration
	stateTTL     time.Duration
	sessions     SessionStore
	logger       logger.Logger
	now          func() time.Time
}

// New builds a Provider.
func New(opts Options, sessions SessionStore, log logger.Logger) (*Provider, error) {
	if opts.PlatformURL == "" {
		return nil, errors.New("platform URL is required")
	}
	if opts.AccessKey == "" {
		return nil, errors.New("platform access key is required")
	}
	if opts.SessionTTL <= 0 {
		return nil, fmt.Errorf("SessionTTL must be > 0, got %v", opts.SessionTTL)
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = DefaultStateTTL
	}

	stateKey, err := deriveStateKey([]byte(opts.AccessKey))
	if err != nil {
		return nil, fmt.Errorf("failed to derive state key: %w", err)
	}

	allowed := make(map[string]bool, len(opts.Providers))
	for _, name := range opts.Providers {
		allowed[strings.ToLower(name)] = true
	}

	return &Provider{
		authorizeURL: strings.TrimRight(opts.PlatformURL, "/") + "/auth/v1/authorize",
		secret:       []byte(opts.AccessKey),
		stateKey:     stateKey,
		providers:    allowed,
		sessionTTL:   opts.SessionTTL,
		stateTTL:     opts.StateTTL,
		sessions:     sessions,
		logger:       log,
		now:          time.Now,
	}, nil
}

// SignInWithProvider returns the provider authorize URL for name.
func (p *Provider) SignInWithProvider(_ context.Context, name, redirectTo string) (string, error) {
	name = strings.ToLower(name)
	if !p.providers[name] {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	q := url.Values{}
	q.Set("provider", name)
	q.Set("redirect_to", redirectTo)
	q.Set("state", signState(p.stateKey, name, p.now().Add(p.stateTTL)))

	return p.authorizeURL + "?" + q.Encode(), nil
}

// CompleteSignIn verifies the callback parameters and opens a session.
func (p *Provider) CompleteSignIn(ctx context.Context, state, accessToken string) (string, error) {
	now := p.now()

	providerName, err := verifyState(p.stateKey, state, now)
	if err != nil {
		return "", err
	}

	claims, err := parseAccessToken(p.secret, accessToken, now)
	if err != nil {
		return "", err
	}

	ttl := p.sessionTTL
	if remaining := claims.ExpiresAt.Time.Sub(now); remaining < ttl {
		ttl = remaining
	}

	token := uuid.NewString()
	rec := redisstore.SessionRecord{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Provider:  providerName,
		CreatedAt: now.UTC(),
	}
	if err := p.sessions.SaveSession(ctx, token, rec, ttl); err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}

	p.logger.Info("session opened",
		logger.String("provider", providerName),
		logger.String("user_id", rec.UserID),
		logger.Duration("ttl", ttl))
	return token, nil
}

// GetCurrentSession resolves token. A missing or expired record is reported
// as Unauthenticated without error.
func (p *Provider) GetCurrentSession(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Unauthenticated{}, nil
	}

	rec, err := p.sessions.GetSession(ctx, token)
	if errors.Is(err, redisstore.ErrSessionNotFound) {
		return domain.Unauthenticated{}, nil
	}
	if err != nil {
		return domain.Unauthenticated{}, err
	}

	return domain.Authenticated{UserID: rec.UserID, Email: rec.Email}, nil
}

// SignOut removes the session record.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return p.sessions.DeleteSession(ctx, token)
}
