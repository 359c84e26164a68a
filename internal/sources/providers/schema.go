package providers

// Catalogue is the top-level structure of the providers file: a list of
// sign-in providers in the order they are offered.
//
//	- name: google
//	  label: Continue with Google
//	- name: github
type Catalogue []Provider

// Provider is one sign-in option offered on the login screen.
type Provider struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
}

// Names returns the provider names, in catalogue order.
func (c Catalogue) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// Default is offered when no providers file is configured.
func Default() Catalogue {
	return Catalogue{{Name: "google", Label: "Continue with Google"}}
}
