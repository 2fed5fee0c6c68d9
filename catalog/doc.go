// Package catalog holds the list of languages a Piston service supports and
// resolves a language name or alias to the runtime version it should run on.
//
// # Resolution
//
// A [Catalog] is kept in the order the service listed it. [Catalog.Resolve]
// scans it front to back and returns the version of the first entry whose
// name or one of whose aliases equals the identifier:
//
//	version, err := langs.Resolve("rs")
//	if errors.Is(err, catalog.ErrUnknownLanguage) {
//	    // typo or unsupported language
//	}
//
// The service does not promise that aliases are unique across entries. When
// two entries share an alias the earlier one wins.
//
// # Caching
//
// [Cache] stores one catalog snapshot for concurrent readers. A snapshot is
// only ever replaced as a whole; there is no expiry, callers refresh it
// explicitly.
package catalog
