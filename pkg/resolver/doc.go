// Package resolver implements the Resolver (SPEC_FULL §1-9 / spec.md §4.3):
// given a consumer request node and a set of candidate unknown literal
// values, it finds the cheapest source for each — checking the cookie
// store, then prior response bodies, then response headers (including
// Set-Cookie) in that order, breaking ties between multiple matching
// providers with a deterministic simplicity score, and falling back to a
// bootstrap search over the earliest captured HTML when no provider
// response produces the literal at all.
package resolver
