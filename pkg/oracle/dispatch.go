package oracle

import (
	"context"
	"encoding/json"
)

// WorkflowEndpoint is one URL/method/role triple within a discovered workflow.
type WorkflowEndpoint struct {
	URL    string `json:"url"`
	Method string `json:"method"`
	Role   string `json:"role"`
}

// DiscoveredWorkflow is the oracle's (or the fallback's) view of one workflow.
type DiscoveredWorkflow struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	Category          string             `json:"category"`
	Priority          int                `json:"priority"`
	Complexity        int                `json:"complexity"`
	RequiresUserInput bool               `json:"requires_user_input"`
	Endpoints         []WorkflowEndpoint `json:"endpoints"`
}

// DiscoverWorkflows calls the discover_workflows schema and falls back to
// fallback() on any oracle or validation failure.
func DiscoverWorkflows(ctx context.Context, o Oracle, prompt string, fallback func() []DiscoveredWorkflow) ([]DiscoveredWorkflow, bool) {
	raw, err := callValidated(ctx, o, prompt, DiscoverWorkflowsSchema)
	if err != nil {
		return fallback(), false
	}

	var parsed struct {
		Workflows []DiscoveredWorkflow `json:"workflows"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fallback(), false
	}
	return parsed.Workflows, true
}

// IdentifyEndURL calls the identify_end_url schema, validates the chosen
// URL is one of candidates, and falls back to fallback() otherwise.
func IdentifyEndURL(ctx context.Context, o Oracle, prompt string, candidates []string, fallback func() string) (string, bool) {
	raw, err := callValidated(ctx, o, prompt, IdentifyEndURLSchema)
	if err != nil {
		return fallback(), false
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fallback(), false
	}
	for _, c := range candidates {
		if c == parsed.URL {
			return parsed.URL, true
		}
	}
	return fallback(), false
}

// IdentifyDynamicParts calls the identify_dynamic_parts schema and falls
// back to fallback() on any oracle or validation failure.
func IdentifyDynamicParts(ctx context.Context, o Oracle, prompt string, fallback func() []string) ([]string, bool) {
	raw, err := callValidated(ctx, o, prompt, IdentifyDynamicPartsSchema)
	if err != nil {
		return fallback(), false
	}

	var parsed struct {
		DynamicParts []string `json:"dynamic_parts"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fallback(), false
	}
	return parsed.DynamicParts, true
}

// IdentifiedVariable is one user-supplied input variable and an example value.
type IdentifiedVariable struct {
	VariableName  string `json:"variable_name"`
	VariableValue string `json:"variable_value"`
}

// IdentifyInputVariables calls the identify_input_variables schema and
// falls back to fallback() on any oracle or validation failure.
func IdentifyInputVariables(ctx context.Context, o Oracle, prompt string, fallback func() []IdentifiedVariable) ([]IdentifiedVariable, bool) {
	raw, err := callValidated(ctx, o, prompt, IdentifyInputVariablesSchema)
	if err != nil {
		return fallback(), false
	}

	var parsed struct {
		IdentifiedVariables []IdentifiedVariable `json:"identified_variables"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fallback(), false
	}
	return parsed.IdentifiedVariables, true
}
