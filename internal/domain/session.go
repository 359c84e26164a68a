package domain

import "errors"

// ErrUnauthenticated is returned by operations that need an established session.
var ErrUnauthenticated = errors.New("no active session")

// Session is the identity context of one screen.
// It is either Authenticated or Unauthenticated, nothing else implements it.
type Session interface {
	isSession()
}

// Authenticated is an established session.
type Authenticated struct {
	UserID string
	Email  string
}

// Unauthenticated is the absence of a session.
type Unauthenticated struct{}

func (Authenticated) isSession()   {}
func (Unauthenticated) isSession() {}

// IdentityOf returns the identity carried by s, ok is false when s is not authenticated.
func IdentityOf(s Session) (Authenticated, bool) {
	a, ok := s.(Authenticated)
	if !ok || a.UserID == "" {
		return Authenticated{}, false
	}
	return a, true
}
