package domain

import (
	"errors"
	"testing"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name        string
		draft       Draft
		wantErr     error
		wantWarning bool
	}{
		{
			name:    "valid https",
			draft:   Draft{Title: "Example", URL: "https://example.com"},
			wantErr: nil,
		},
		{
			name:    "valid http",
			draft:   Draft{Title: "Example", URL: "http://example.com"},
			wantErr: nil,
		},
		{
			name:    "empty title",
			draft:   Draft{Title: "", URL: "https://example.com"},
			wantErr: ErrIncompleteDraft,
		},
		{
			name:    "empty url",
			draft:   Draft{Title: "Example", URL: ""},
			wantErr: ErrIncompleteDraft,
		},
		{
			name:    "both empty",
			draft:   Draft{},
			wantErr: ErrIncompleteDraft,
		},
		{
			name:        "ftp scheme",
			draft:       Draft{Title: "Files", URL: "ftp://x"},
			wantErr:     ErrInvalidURL,
			wantWarning: true,
		},
		{
			name:        "no scheme",
			draft:       Draft{Title: "Example", URL: "example.com"},
			wantErr:     ErrInvalidURL,
			wantWarning: true,
		},
		{
			// Only the prefix is checked.
			name:    "http prefix without scheme separator",
			draft:   Draft{Title: "Odd", URL: "httpfoo"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if got := IsWarning(err); got != tt.wantWarning {
				t.Errorf("IsWarning() = %v, want %v", got, tt.wantWarning)
			}
		})
	}
}

func TestDraftRow(t *testing.T) {
	row := Draft{Title: "Example", URL: "https://example.com"}.Row("user-1")
	if row.OwnerID != "user-1" || row.Title != "Example" || row.URL != "https://example.com" {
		t.Errorf("Row() = %+v", row)
	}
}
