package providers

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalogue is returned when the file lists no provider.
var ErrEmptyCatalogue = errors.New("providers file lists no provider")

// Loader handles loading and parsing of the providers file
type Loader struct {
	filePath string
}

// NewLoader creates a new providers loader. An empty path yields the default catalogue.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads, expands and validates the providers file.
func (l *Loader) Load() (Catalogue, error) {
	if l.filePath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	// ${VAR} references are resolved from the environment
	data = []byte(os.ExpandEnv(string(data)))

	var raw Catalogue
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse providers yaml: %w", err)
	}

	return normalize(raw)
}

// normalize lowercases names, fills missing labels and drops duplicates.
func normalize(raw Catalogue) (Catalogue, error) {
	seen := make(map[string]bool, len(raw))
	out := make(Catalogue, 0, len(raw))

	for i, p := range raw {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return nil, fmt.Errorf("provider #%d has no name", i+1)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		label := strings.TrimSpace(p.Label)
		if label == "" {
			label = "Continue with " + strings.ToUpper(name[:1]) + name[1:]
		}
		out = append(out, Provider{Name: name, Label: label})
	}

	if len(out) == 0 {
		return nil, ErrEmptyCatalogue
	}
	return out, nil
}
