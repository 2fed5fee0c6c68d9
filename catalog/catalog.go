package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownLanguage is returned when an identifier matches no catalog entry.
var ErrUnknownLanguage = errors.New("unknown language")

// Catalog is the list of supported languages in service listing order.
type Catalog []Language

// Lookup returns the first entry matching id by name or alias.
func (c Catalog) Lookup(id string) (Language, bool) {
	for _, lang := range c {
		if lang.Matches(id) {
			return lang, true
		}
	}
	return Language{}, false
}

// Resolve returns the version of the first entry matching id.
func (c Catalog) Resolve(id string) (string, error) {
	lang, ok := c.Lookup(id)
	if !ok {
		return "", fmt.Errorf("resolve %q: %w", id, ErrUnknownLanguage)
	}
	return lang.Version, nil
}

// Names returns the canonical names in listing order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, lang := range c {
		names = append(names, lang.Name)
	}
	return names
}

// Clone returns a deep copy, so the result shares no slices with c.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	for i, lang := range c {
		out[i] = lang.clone()
	}
	return out
}
