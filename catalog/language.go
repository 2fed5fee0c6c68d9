package catalog

import "slices"

// Language is one runtime listed by the service.
type Language struct {
	Name    string   `json:"language"`
	Version string   `json:"version"`
	Aliases []string `json:"aliases"`
	// Runtime names the underlying runtime when it differs from Name
	// (e.g. "deno" for typescript). Empty when the service omits it.
	Runtime string `json:"runtime,omitempty"`
}

// Matches reports whether id is the language's name or one of its aliases.
func (l Language) Matches(id string) bool {
	return id == l.Name || slices.Contains(l.Aliases, id)
}

func (l Language) clone() Language {
	l.Aliases = slices.Clone(l.Aliases)
	return l
}
