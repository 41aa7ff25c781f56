package codegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"

	"github.com/harloom/harloom/pkg/types"
)

// Generator renders a complete Dependency Graph (as produced by
// graph.DependencyGraph.ToJSON) into a readable Go reproduction script. It
// implements session.CodeGenerator structurally, without importing it.
type Generator struct{}

// New constructs a Generator.
func New() *Generator { return &Generator{} }

type step struct {
	NodeID    string
	Method    string
	URL       string
	Inputs    map[string]string
	DependsOn []string
}

type templateData struct {
	ActionURL      string
	InputVariables map[string]string
	Steps          []step
}

var codeTemplate = template.Must(template.New("reproduction").Parse(`// Code generated from a captured HAR dependency graph. DO NOT EDIT.
package main

import "fmt"

// Inputs the reproduction expects the caller to supply.
var inputVariables = map[string]string{
{{- range $name, $example := .InputVariables}}
	{{printf "%q" $name}}: {{printf "%q" $example}},
{{- end}}
}

func main() {
{{- range .Steps}}
	// {{.Method}} {{.URL}}
	{{- range .DependsOn}}
	// depends on: {{.}}
	{{- end}}
	fmt.Println("{{.Method}} {{.URL}}")
{{- end}}
	fmt.Println("action: {{.ActionURL}}")
}
`))

// Generate decodes graphJSON and renders the reproduction script. Steps are
// emitted in the graph's insertion order (the order the orchestrator
// discovered them in), with each step's resolved dependencies noted as
// comments; it does not re-run TopologicalSort since insertion order already
// reflects discovery order and the generated script only needs to be
// readable, not itself executable in strict dependency order.
func (g *Generator) Generate(ctx context.Context, graphJSON []byte, actionURL string, inputVariables map[string]string) ([]byte, error) {
	var payload struct {
		Nodes []types.Node `json:"nodes"`
		Edges []types.Edge `json:"edges"`
	}
	if err := json.Unmarshal(graphJSON, &payload); err != nil {
		return nil, fmt.Errorf("codegen: decode graph: %w", err)
	}

	depsByConsumer := map[string][]string{}
	for _, e := range payload.Edges {
		label := e.Label
		if label == "" {
			label = e.Target
		}
		depsByConsumer[e.Source] = append(depsByConsumer[e.Source], label+" <- "+e.Target)
	}

	data := templateData{ActionURL: actionURL, InputVariables: inputVariables}
	for _, n := range payload.Nodes {
		rd, ok := n.AsRequestData()
		if !ok {
			continue
		}
		deps := depsByConsumer[n.ID]
		sort.Strings(deps)
		data.Steps = append(data.Steps, step{
			NodeID:    n.ID,
			Method:    rd.Request.Method,
			URL:       rd.Request.URL,
			Inputs:    rd.Inputs,
			DependsOn: deps,
		})
	}

	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("codegen: render template: %w", err)
	}
	return buf.Bytes(), nil
}
