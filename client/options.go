package client

import (
	"net/http"
	"time"
)

// APIVersion selects the service API generation.
type APIVersion string

// V2 is the only API version the public service exposes.
const V2 APIVersion = "v2"

// Defaults applied by New when the matching option is not given. The paths
// are relative to the base URL and API version.
const (
	DefaultBaseURL         = "https://emkc.org/api"
	DefaultUserAgent       = "Automated Piston Agent"
	DefaultTimeout         = 30 * time.Second
	DefaultMaxResponseSize = 8 << 20 // 8MB

	DefaultRuntimesPath = "piston/runtimes"
	DefaultExecutePath  = "piston/execute"
	DefaultPackagesPath = "piston/packages"
)

// Option configures a Client at creation time.
type Option func(*config)

type config struct {
	BaseURL         string        `field:"base_url" validate:"required,http_url"`
	APIVersion      APIVersion    `field:"api_version" validate:"oneof=v2"`
	UserAgent       string        `field:"user_agent" validate:"required,printascii"`
	RuntimesPath    string        `field:"runtimes_path" validate:"required"`
	ExecutePath     string        `field:"execute_path" validate:"required"`
	PackagesPath    string        `field:"packages_path" validate:"required"`
	Timeout         time.Duration `field:"timeout" validate:"gte=0"`
	MaxResponseSize int64         `field:"max_response_size" validate:"gt=0"`

	cache      bool
	httpClient *http.Client
	timeoutSet bool
}

func defaultConfig() config {
	return config{
		BaseURL:         DefaultBaseURL,
		APIVersion:      V2,
		UserAgent:       DefaultUserAgent,
		RuntimesPath:    DefaultRuntimesPath,
		ExecutePath:     DefaultExecutePath,
		PackagesPath:    DefaultPackagesPath,
		Timeout:         DefaultTimeout,
		MaxResponseSize: DefaultMaxResponseSize,
		cache:           true,
	}
}

// WithBaseURL sets the service root, e.g. "http://localhost:2000/api".
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.BaseURL = u
	}
}

// WithAPIVersion sets the API version segment placed after the base URL.
func WithAPIVersion(v APIVersion) Option {
	return func(c *config) {
		c.APIVersion = v
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
// New fails if the value is empty or not printable ASCII.
func WithUserAgent(agent string) Option {
	return func(c *config) {
		c.UserAgent = agent
	}
}

// WithCache enables or disables the language catalog cache.
// Enabled by default; New then fetches the catalog once up front.
func WithCache(enabled bool) Option {
	return func(c *config) {
		c.cache = enabled
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
// When combined with WithHTTPClient the client is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.Timeout = d
		c.timeoutSet = true
	}
}

// WithEndpoints overrides the paths, relative to the versioned base URL,
// of the runtime listing and execute endpoints.
//
// Examples:
//
//	client.WithEndpoints("runtimes", "execute")               // <base>/v2/runtimes
//	client.WithEndpoints("piston/runtimes", "piston/execute") // default
func WithEndpoints(runtimesPath, executePath string) Option {
	return func(c *config) {
		c.RuntimesPath = runtimesPath
		c.ExecutePath = executePath
	}
}

// WithPackagesPath overrides the path of the package management endpoint.
func WithPackagesPath(p string) Option {
	return func(c *config) {
		c.PackagesPath = p
	}
}

// WithMaxResponseSize caps the size of a response body. A larger body fails
// with a *TransportError wrapping ErrResponseTooLarge.
func WithMaxResponseSize(n int64) Option {
	return func(c *config) {
		c.MaxResponseSize = n
	}
}
