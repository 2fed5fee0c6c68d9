package client

import (
	"context"
	"net/http"
)

// Package is a language runtime package known to a self-hosted service.
type Package struct {
	Language  string `json:"language"`
	Version   string `json:"language_version"`
	Installed bool   `json:"installed"`
}

type packageRef struct {
	Language string `json:"language"`
	Version  string `json:"version"`
}

// Packages lists the runtime packages the service can install. The public
// instance does not expose this endpoint.
func (c *Client) Packages(ctx context.Context) ([]Package, error) {
	var pkgs []Package
	if err := c.transport.call(ctx, "list packages", http.MethodGet, c.packagesURL, nil, &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// InstallPackage installs a runtime package. The cached catalog is not
// refreshed; call RefreshCache to pick the new runtime up.
func (c *Client) InstallPackage(ctx context.Context, language, version string) (Package, error) {
	return c.changePackage(ctx, "install package", http.MethodPost, language, version, true)
}

// UninstallPackage removes a runtime package.
func (c *Client) UninstallPackage(ctx context.Context, language, version string) (Package, error) {
	return c.changePackage(ctx, "uninstall package", http.MethodDelete, language, version, false)
}

func (c *Client) changePackage(ctx context.Context, op, method, language, version string, installed bool) (Package, error) {
	var out packageRef
	in := packageRef{Language: language, Version: version}
	if err := c.transport.call(ctx, op, method, c.packagesURL, in, &out); err != nil {
		return Package{}, err
	}
	return Package{Language: out.Language, Version: out.Version, Installed: installed}, nil
}
