// Package oracle implements the external LLM collaborator contract
// (spec.md §6): a single operation, CallFunction(ctx, prompt, schema),
// where schema is a named JSON-schema function definition. The package
// validates whatever the oracle returns against that schema with
// xeipuuv/gojsonschema, and provides the four schemas the core invokes
// (discover_workflows, identify_end_url, identify_dynamic_parts,
// identify_input_variables) with one call helper each that runs a
// caller-supplied deterministic fallback whenever the oracle call or its
// validation fails — the oracle is always optional; the pipeline makes
// progress without it.
package oracle
