package har

import "errors"

var (
	// ErrHAREmpty is the wire-visible HAR_EMPTY fatal error: the archive
	// contains zero request entries (spec.md §6).
	ErrHAREmpty = errors.New("har: HAR_EMPTY: archive contains no request entries")
	// ErrMalformed is returned when the archive's top-level shape
	// (log.entries) cannot be parsed at all.
	ErrMalformed = errors.New("har: malformed archive")
	// ErrCookieFileMalformed is returned when the cookie file cannot be
	// decoded as the expected key/value JSON shape.
	ErrCookieFileMalformed = errors.New("har: malformed cookie file")
)
