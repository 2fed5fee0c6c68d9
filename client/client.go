package client

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/caffeineduck/piston/catalog"
)

// Client talks to a Piston service. It is safe for concurrent use.
type Client struct {
	transport   *transport
	runtimesURL string
	executeURL  string
	packagesURL string

	cache   *catalog.Cache
	cacheOn atomic.Bool
}

// New creates a Client. Configuration is validated once here; a bad value
// is reported as a *ConfigError naming the option. With the cache enabled
// (the default) the language catalog is fetched before New returns.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	c := &Client{
		transport: newTransport(cfg),
		cache:     catalog.NewCache(),
	}

	var err error
	if c.runtimesURL, err = endpoint(cfg.BaseURL, cfg.APIVersion, cfg.RuntimesPath); err != nil {
		return nil, err
	}
	if c.executeURL, err = endpoint(cfg.BaseURL, cfg.APIVersion, cfg.ExecutePath); err != nil {
		return nil, err
	}
	if c.packagesURL, err = endpoint(cfg.BaseURL, cfg.APIVersion, cfg.PackagesPath); err != nil {
		return nil, err
	}

	if cfg.cache {
		if err := c.RefreshCache(ctx); err != nil {
			return nil, fmt.Errorf("load languages: %w", err)
		}
		c.cacheOn.Store(true)
	}

	return c, nil
}

// Languages returns the supported languages: the cached catalog when
// caching is enabled, a fresh listing otherwise.
func (c *Client) Languages(ctx context.Context) (catalog.Catalog, error) {
	if c.cacheOn.Load() && c.cache.Loaded() {
		langs, _ := c.cache.Get()
		return langs, nil
	}
	return c.fetchLanguages(ctx)
}

// RefreshCache fetches the catalog and replaces the cached one. The fetch
// runs without holding the cache lock. The catalog is stored even while
// caching is disabled, so a later EnableCache serves it.
func (c *Client) RefreshCache(ctx context.Context) error {
	langs, err := c.fetchLanguages(ctx)
	if err != nil {
		return err
	}
	c.cache.Replace(langs)
	return nil
}

// EnableCache turns caching on, fetching the catalog first if it was never
// loaded.
func (c *Client) EnableCache(ctx context.Context) error {
	if !c.cache.Loaded() {
		if err := c.RefreshCache(ctx); err != nil {
			return err
		}
	}
	c.cacheOn.Store(true)
	return nil
}

// DisableCache makes every lookup fetch the catalog from the service.
func (c *Client) DisableCache() {
	c.cacheOn.Store(false)
}

// CacheEnabled reports whether lookups are served from the cache.
func (c *Client) CacheEnabled() bool {
	return c.cacheOn.Load()
}

// ResolveVersion maps a language name or alias to its runtime version.
// An unmatched identifier returns an error wrapping ErrUnknownLanguage.
func (c *Client) ResolveVersion(ctx context.Context, language string) (string, error) {
	if c.cacheOn.Load() && c.cache.Loaded() {
		return c.cache.Resolve(language)
	}
	langs, err := c.fetchLanguages(ctx)
	if err != nil {
		return "", err
	}
	return langs.Resolve(language)
}

// Execute runs files with an already known version. The first file is the
// entry point. A service-reported failure is returned as *ServiceError,
// a failed exchange as *TransportError.
func (c *Client) Execute(ctx context.Context, language, version string, files []File, opts ...ExecuteOption) (Result, error) {
	req := NewRequest(language, version, files, opts...)

	r, err := c.transport.do(ctx, "execute", http.MethodPost, c.executeURL, req)
	if err != nil {
		return Result{}, err
	}

	res, err := decodeExecute(r)
	if err != nil {
		return Result{}, wrapDecodeError("execute", c.executeURL, r, err)
	}
	return res, nil
}

// Run resolves the language's version and executes files with it.
func (c *Client) Run(ctx context.Context, language string, files []File, opts ...ExecuteOption) (Result, error) {
	version, err := c.ResolveVersion(ctx, language)
	if err != nil {
		return Result{}, err
	}
	return c.Execute(ctx, language, version, files, opts...)
}

// RunCode executes a single unnamed source file.
func (c *Client) RunCode(ctx context.Context, language, code string, opts ...ExecuteOption) (Result, error) {
	return c.Run(ctx, language, []File{{Content: code}}, opts...)
}

// RunWithVersion executes a single unnamed source file on the given version.
func (c *Client) RunWithVersion(ctx context.Context, language, version, code string, opts ...ExecuteOption) (Result, error) {
	return c.Execute(ctx, language, version, []File{{Content: code}}, opts...)
}

// Submit executes a job, resolving its version when the job has none.
func (c *Client) Submit(ctx context.Context, job Job) (Result, error) {
	version := job.Version
	if version == "" {
		var err error
		if version, err = c.ResolveVersion(ctx, job.Language); err != nil {
			return Result{}, err
		}
	}
	return c.Execute(ctx, job.Language, version, job.Files(), job.options()...)
}

func (c *Client) fetchLanguages(ctx context.Context) (catalog.Catalog, error) {
	var langs catalog.Catalog
	if err := c.transport.call(ctx, "list runtimes", http.MethodGet, c.runtimesURL, nil, &langs); err != nil {
		return nil, err
	}
	if langs == nil {
		langs = catalog.Catalog{}
	}
	return langs, nil
}
