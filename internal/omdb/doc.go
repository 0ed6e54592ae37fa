// Package omdb fetches title and season metadata from an OMDb-compatible
// catalog API and normalizes it into catalog records.
//
// The provider marks absent values with the literal "N/A" and reports lookup
// misses as HTTP 200 with `"Response": "False"`. Both conventions are resolved
// here: callers receive zero values for absent fields and a *ProviderError
// wrapping services.ErrNotFound, services.ErrTransient or services.ErrPermanent
// for failures. Requests are throttled by a client-side token bucket.
package omdb
