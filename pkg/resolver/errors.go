package resolver

import "errors"

var (
	// ErrNoSource is returned by Resolve when neither the cookie store nor any
	// provider's response produces a literal; the caller then tries
	// BootstrapSearch and emits a NotFound node only if that also fails.
	ErrNoSource = errors.New("resolver: no source found for literal")
	// ErrCandidateRejected names a literal that fails validation (too short,
	// or a known static token). ValidateCandidate reports that case as false
	// and its callers skip the literal; no function returns this error.
	ErrCandidateRejected = errors.New("resolver: candidate value rejected")
)
