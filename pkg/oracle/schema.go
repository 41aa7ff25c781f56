package oracle

// FunctionDefinition is a named JSON-schema function definition, the shape
// the oracle contract requires for every call_function invocation
// (spec.md §6: "parameters.type = object and a required key list").
type FunctionDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// DiscoverWorkflowsSchema groups captured requests into candidate workflows.
var DiscoverWorkflowsSchema = FunctionDefinition{
	Name:        "discover_workflows",
	Description: "Group captured HTTP requests into coherent user-visible workflows.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"workflows": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":                  map[string]interface{}{"type": "string"},
						"name":                map[string]interface{}{"type": "string"},
						"description":         map[string]interface{}{"type": "string"},
						"category":            map[string]interface{}{"type": "string"},
						"priority":            map[string]interface{}{"type": "integer"},
						"complexity":          map[string]interface{}{"type": "integer"},
						"requires_user_input": map[string]interface{}{"type": "boolean"},
						"endpoints": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"url":    map[string]interface{}{"type": "string"},
									"method": map[string]interface{}{"type": "string"},
									"role":   map[string]interface{}{"type": "string", "enum": []interface{}{"primary", "secondary", "supporting"}},
								},
								"required": []interface{}{"url", "method", "role"},
							},
						},
					},
					"required": []interface{}{"id", "name", "category", "priority", "complexity", "endpoints"},
				},
			},
		},
		"required": []interface{}{"workflows"},
	},
}

// IdentifyEndURLSchema asks the oracle to pick the workflow's action URL
// from the candidates presented in the prompt.
var IdentifyEndURLSchema = FunctionDefinition{
	Name:        "identify_end_url",
	Description: "Identify which candidate URL is the workflow's terminal action.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"url"},
	},
}

// IdentifyDynamicPartsSchema asks the oracle for the literal fragments of a
// request likely to vary across invocations.
var IdentifyDynamicPartsSchema = FunctionDefinition{
	Name:        "identify_dynamic_parts",
	Description: "Identify literal substrings of a request likely to vary across invocations.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"dynamic_parts": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required": []interface{}{"dynamic_parts"},
	},
}

// IdentifyInputVariablesSchema asks the oracle to name the workflow's
// user-supplied input variables and an example value for each.
var IdentifyInputVariablesSchema = FunctionDefinition{
	Name:        "identify_input_variables",
	Description: "Identify user-supplied input variables and an example value for each.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"identified_variables": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"variable_name":  map[string]interface{}{"type": "string"},
						"variable_value": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"variable_name", "variable_value"},
				},
			},
		},
		"required": []interface{}{"identified_variables"},
	},
}
