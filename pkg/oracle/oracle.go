package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Oracle is the external LLM collaborator contract (spec.md §6): a single
// typed function-call operation. Implementations wrap whatever backend is
// configured (HTTP API, local model, ...); this package never assumes one.
type Oracle interface {
	CallFunction(ctx context.Context, prompt string, schema FunctionDefinition) (json.RawMessage, error)
}

// NopOracle always reports unavailability, so every caller exercises its
// deterministic fallback path. It is the default Oracle when no LLM backend
// is configured (spec.md §9: "every oracle call must have a fallback").
type NopOracle struct{}

func (NopOracle) CallFunction(context.Context, string, FunctionDefinition) (json.RawMessage, error) {
	return nil, ErrOracleUnavailable
}

// Validate checks raw against schema's JSON-schema parameters, returning
// ErrSchemaValidation wrapping the validator's reported errors if it fails.
func Validate(schema FunctionDefinition, raw json.RawMessage) error {
	schemaLoader := gojsonschema.NewGoLoader(schema.Parameters)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaValidation, schema.Name, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %s: %v", ErrSchemaValidation, schema.Name, result.Errors())
	}
	return nil
}

// callValidated invokes o.CallFunction and validates the result, returning
// the oracle's own error (ErrOracleUnavailable for NopOracle) or
// ErrSchemaValidation on any failure so the caller can uniformly fall back.
func callValidated(ctx context.Context, o Oracle, prompt string, schema FunctionDefinition) (json.RawMessage, error) {
	if o == nil {
		o = NopOracle{}
	}
	raw, err := o.CallFunction(ctx, prompt, schema)
	if err != nil {
		return nil, err
	}
	if err := Validate(schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}
