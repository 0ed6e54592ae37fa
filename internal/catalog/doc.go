// Package catalog holds the provider-neutral records the import pipeline moves
// between the metadata fetcher and the persistence gateway.
//
// Provider sentinels never leave the fetcher: by the time a NormalizedTitle is
// built, an absent field is a zero value or nil pointer. The package also owns
// lookup-name normalization so genres, actors and countries compare the same
// way in every backend.
package catalog
