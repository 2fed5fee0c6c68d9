package client

import (
	"errors"
	"fmt"

	"github.com/caffeineduck/piston/catalog"
)

var (
	// ErrUnknownLanguage is returned when a language matches no catalog entry.
	ErrUnknownLanguage = catalog.ErrUnknownLanguage

	// ErrInvalidConfig matches every *ConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrMissingLanguage matches a *ConfigError for a job built without a language.
	ErrMissingLanguage = errors.New("missing language")

	// ErrResponseTooLarge is wrapped by a *TransportError when a response
	// body exceeds the configured maximum size.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrMissingMain matches a *ConfigError for a job built without a main file.
	ErrMissingMain = errors.New("missing main file")
)

// ConfigError reports the configuration field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "required" {
		return fmt.Sprintf("missing %s", e.Field)
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	switch target {
	case ErrInvalidConfig:
		return true
	case ErrMissingLanguage:
		return e.Field == "language" && e.Reason == "required"
	case ErrMissingMain:
		return e.Field == "main" && e.Reason == "required"
	}
	return false
}

// TransportError is returned when the HTTP exchange itself failed: the
// request could not be sent, the service answered with an unexpected
// status, or the body matched no known response shape.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError carries an error message reported by the service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return "piston: " + e.Message
}
