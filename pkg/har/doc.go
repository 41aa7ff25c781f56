// Package har parses the canonical HAR format (log/entries/request/response)
// into the Request Model (spec.md §6), and separately parses the
// session's cookie file into a request.Store. Parse also produces the
// validation summary (quality, meaningful/total request counts, issues,
// recommendations) gating session start: an empty HAR is fatal, a poor one
// is accepted with a logged warning.
package har
