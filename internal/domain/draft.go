package domain

import (
	"errors"
	"strings"
)

var (
	// ErrIncompleteDraft is returned when the title or the URL is empty.
	// Callers reject it silently: no submission, no warning.
	ErrIncompleteDraft = errors.New("title and url are required")

	// ErrInvalidURL is returned when the URL does not begin with "http".
	// Callers surface it to the user.
	ErrInvalidURL = errors.New("URL must start with http or https")
)

// Draft holds the user-editable create form fields.
type Draft struct {
	Title string
	URL   string
}

// Validate checks the draft before submission. Only the "http" prefix is
// checked, no further URL well-formedness is enforced.
func (d Draft) Validate() error {
	if d.Title == "" || d.URL == "" {
		return ErrIncompleteDraft
	}
	if !strings.HasPrefix(d.URL, "http") {
		return ErrInvalidURL
	}
	return nil
}

// IsWarning reports whether a validation error must be shown to the user.
func IsWarning(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

// Row builds the insert payload for the given owner.
func (d Draft) Row(ownerID string) NewBookmark {
	return NewBookmark{Title: d.Title, URL: d.URL, OwnerID: ownerID}
}
