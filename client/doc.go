// Package client is a client for the Piston code execution service.
//
// # Overview
//
// A [Client] lists the languages the service supports, resolves a language
// name or alias to a runtime version and submits source files for
// execution. The language catalog is cached in memory by default.
//
// # Basic Usage
//
//	c, err := client.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := c.RunCode(ctx, "rs", `fn main() { println!("hello") }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(res.Stdout)
//
// # Multiple Files
//
// The first file is the entry point; the rest are passed through in order:
//
//	res, err := c.Run(ctx, "rust", []client.File{
//	    {Name: "main.rs", Content: mainSrc},
//	    {Name: "utils.rs", Content: utilsSrc},
//	})
//
// Use [Client.Execute] when the version is already known, to skip
// resolution.
//
// # Caching
//
// With the cache enabled, [New] fetches the catalog once and lookups are
// served from memory until [Client.RefreshCache] replaces it. Disable it
// to fetch the catalog on every lookup:
//
//	c, err := client.New(ctx, client.WithCache(false))
//
// # Errors
//
// Failures are typed:
//
//   - [*ConfigError]: invalid option or incomplete job
//   - [ErrUnknownLanguage]: no catalog entry matches the language
//   - [*TransportError]: the HTTP exchange failed or returned an unknown shape
//   - [*ServiceError]: the service answered with an error message
//
// Nothing is retried and nothing is logged.
package client
