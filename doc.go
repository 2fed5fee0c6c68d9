// Package piston is a client for the Piston remote code execution service.
//
// # Overview
//
// The service runs source code in many languages and reports the output.
// Every run names a language and an exact runtime version; the client keeps
// the service's runtime list in memory so callers can use a name or alias
// and let the version be resolved for them.
//
// # Basic Usage
//
//	c, err := client.New(ctx)
//	if err != nil {
//	    return err
//	}
//
//	// Version resolved from the cached runtime list
//	res, err := c.RunCode(ctx, "python", `print("hello")`)
//	fmt.Print(res.Output)
//
//	// Several files, entry point first
//	res, err = c.Run(ctx, "rs", []client.File{
//	    {Name: "main.rs", Content: mainSrc},
//	    {Name: "utils.rs", Content: utilsSrc},
//	})
//
//	// Exact version, no lookup
//	res, err = c.Execute(ctx, "python", "3.10.0", files,
//	    client.WithStdin("42"), client.WithRunTimeout(3*time.Second))
//
// # Runtime List
//
//	langs, _ := c.Languages(ctx)  // served from the cache
//	c.RefreshCache(ctx)           // re-fetch after the service changes
//	c.DisableCache()              // fetch on every lookup
//
// # Errors
//
// Unknown languages wrap [client.ErrUnknownLanguage]. Failures reported by
// the service are [*client.ServiceError]; failed exchanges are
// [*client.TransportError]; invalid options are [*client.ConfigError].
//
// See the [client] and [catalog] packages for detailed API documentation.
package piston
