package providers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderDefaultWithoutFile(t *testing.T) {
	catalogue, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(catalogue) != 1 || catalogue[0].Name != "google" {
		t.Errorf("Load() = %+v, want the google default", catalogue)
	}
}

func TestLoaderLoad(t *testing.T) {
	path := writeFile(t, `---
- name: Google
  label: Sign in with Google
- name: github
- name: google
`)

	catalogue, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Catalogue{
		{Name: "google", Label: "Sign in with Google"},
		{Name: "github", Label: "Continue with Github"},
	}
	if len(catalogue) != len(want) {
		t.Fatalf("Load() returned %d providers, want %d", len(catalogue), len(want))
	}
	for i := range want {
		if catalogue[i] != want[i] {
			t.Errorf("provider[%d] = %+v, want %+v", i, catalogue[i], want[i])
		}
	}

	names := catalogue.Names()
	if names[0] != "google" || names[1] != "github" {
		t.Errorf("Names() = %v", names)
	}
}

func TestLoaderExpandsEnvironment(t *testing.T) {
	t.Setenv("SMARTMARK_TEST_PROVIDER", "gitlab")
	path := writeFile(t, `
- name: ${SMARTMARK_TEST_PROVIDER}
  label: Company login
`)

	catalogue, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if catalogue[0].Name != "gitlab" {
		t.Errorf("Name = %q, want gitlab", catalogue[0].Name)
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "empty list", content: "[]\n", wantErr: ErrEmptyCatalogue},
		{name: "missing name", content: "- label: Nameless\n"},
		{name: "not yaml", content: "- name: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeFile(t, tt.content)).Load()
			if err == nil {
				t.Fatal("Load() expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Error("Load() expected an error for a missing file")
	}
}
