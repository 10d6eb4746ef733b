// Package directory integrates the external radio directory and the
// stream resolution pipeline built on it.
//
// The Client speaks to a TuneIn-style OPML endpoint (search, tune,
// browse). The Resolver turns abstract content references into playable
// stream locations, passing through non-radio sources untouched and
// performing at most one directory round trip for a station id.
package directory
