package oracle

import "errors"

var (
	// ErrOracleUnavailable is returned by an Oracle implementation (or by
	// NopOracle) when no LLM backend is configured; callers fall back to
	// the deterministic rule for that schema.
	ErrOracleUnavailable = errors.New("oracle: no backend available")
	// ErrSchemaValidation is returned when the oracle's raw result fails
	// JSON-schema validation against the function definition it was called with.
	ErrSchemaValidation = errors.New("oracle: result failed schema validation")
	// ErrUnrecognizedURL names the condition of an identified URL that is not
	// among the candidates presented in the prompt. IdentifyEndURL does not
	// return it: in that case it returns its fallback's URL instead.
	ErrUnrecognizedURL = errors.New("oracle: identified url not found among candidates")
)
