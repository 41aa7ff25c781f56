package types

import (
	"github.com/harloom/harloom/pkg/request"
)

// NodeKind tags the variant of a Dependency Graph node (SPEC_FULL §3, §9).
// It is a closed enumeration: unknown values must fail fast at the JSON
// decoding boundary rather than being silently accepted.
type NodeKind string

const (
	NodeKindRequest  NodeKind = "request"
	NodeKindCookie   NodeKind = "cookie"
	NodeKindNotFound NodeKind = "not_found"
	NodeKindMaster   NodeKind = "master"
)

// kindPriority orders node kinds for deterministic topological tie-breaking
// (SPEC_FULL §4.2: "among otherwise comparable nodes, order by (node_kind
// priority: master > request > cookie > not_found, insertion_order)").
var kindPriority = map[NodeKind]int{
	NodeKindMaster:   3,
	NodeKindRequest:  2,
	NodeKindCookie:   1,
	NodeKindNotFound: 0,
}

// KindPriority returns the tie-break priority of a node kind; higher sorts first.
func KindPriority(k NodeKind) int {
	return kindPriority[k]
}

// ValueKind classifies a single dynamic value discovered on a request node.
type ValueKind string

const (
	ValueKindInput            ValueKind = "input"
	ValueKindAuthToken        ValueKind = "auth_token"
	ValueKindSessionConstant  ValueKind = "session_constant"
	ValueKindDependency       ValueKind = "dependency"
)

// ClassifiedParam records how a single value on a node was classified, and
// the human-readable origin (a header name, a query parameter name, a body
// JSON path, ...) that produced the classification.
type ClassifiedParam struct {
	Kind   ValueKind `json:"kind"`
	Origin string    `json:"origin"`
}

// AuthRequirement captures the Classifier's public/private determination
// for a request node (SPEC_FULL §4.4).
type AuthRequirement string

const (
	AuthRequirementNone     AuthRequirement = "none"
	AuthRequirementRequired AuthRequirement = "required"
)

// AuthAnalysis is attached to a request node once the Classifier has run.
type AuthAnalysis struct {
	Type        string          `json:"type"`        // "none", "bearer", "basic", "cookie", "api_key"
	Requirement AuthRequirement `json:"requirement"`
}

// NodeData is the capability set every node variant implements (SPEC_FULL
// §9: "expose node operations through a small capability set ... avoid
// inheritance"). Callers type-switch on Kind() when they need
// variant-specific fields (RequestData, CookieData, NotFoundData).
type NodeData interface {
	Kind() NodeKind
	UnresolvedValues() map[string]struct{}
	ProvidedValues() map[string]struct{}
}

// RequestData is the node payload for a captured request/response pair.
type RequestData struct {
	Request request.Request `json:"request"`

	Unresolved map[string]struct{}        `json:"-"`
	Provided   map[string]struct{}        `json:"-"`
	Inputs     map[string]string          `json:"inputs,omitempty"`     // name -> example value
	Params     map[string]ClassifiedParam `json:"params,omitempty"`     // literal -> classification
	Auth       *AuthAnalysis              `json:"auth,omitempty"`
}

// NewRequestData constructs a RequestData with initialized maps/sets.
func NewRequestData(req request.Request) *RequestData {
	return &RequestData{
		Request:    req,
		Unresolved: map[string]struct{}{},
		Provided:   map[string]struct{}{},
		Inputs:     map[string]string{},
		Params:     map[string]ClassifiedParam{},
	}
}

func (d *RequestData) Kind() NodeKind { return NodeKindRequest }

func (d *RequestData) UnresolvedValues() map[string]struct{} { return d.Unresolved }
func (d *RequestData) ProvidedValues() map[string]struct{}   { return d.Provided }

// IsResolved reports whether every unresolved value is covered by a label
// in ProvidedValues (SPEC_FULL §3 invariant: "a node with nonempty
// unresolved_values and outgoing edges whose labels cover all of them is
// considered resolved").
func (d *RequestData) IsResolved() bool {
	for v := range d.Unresolved {
		if _, ok := d.Provided[v]; !ok {
			return false
		}
	}
	return true
}

// MasterData is a RequestData promoted to the root of a workflow's
// dependency subgraph; exactly one exists per active workflow.
type MasterData struct {
	*RequestData
	WorkflowID string `json:"workflow_id"`
}

func (d *MasterData) Kind() NodeKind { return NodeKindMaster }

// CookieData is the node payload for a captured cookie-store entry.
type CookieData struct {
	CookieName    string              `json:"cookie_name"`
	CapturedValue string              `json:"captured_value"`
	Provided      map[string]struct{} `json:"-"`
}

// NewCookieData constructs a CookieData with an initialized provided-set.
func NewCookieData(name, value string) *CookieData {
	return &CookieData{CookieName: name, CapturedValue: value, Provided: map[string]struct{}{}}
}

func (d *CookieData) Kind() NodeKind                        { return NodeKindCookie }
func (d *CookieData) UnresolvedValues() map[string]struct{} { return nil }
func (d *CookieData) ProvidedValues() map[string]struct{}   { return d.Provided }

// NotFoundData is a sentinel node recording one literal the Resolver could
// not source. Its presence blocks graph completeness (SPEC_FULL §4.2).
type NotFoundData struct {
	Literal string `json:"literal"`
}

func (d *NotFoundData) Kind() NodeKind                        { return NodeKindNotFound }
func (d *NotFoundData) UnresolvedValues() map[string]struct{} { return map[string]struct{}{d.Literal: {}} }
func (d *NotFoundData) ProvidedValues() map[string]struct{}   { return nil }

// Node is one vertex of the Dependency Graph.
type Node struct {
	ID   string   `json:"id"`
	Data NodeData `json:"data"`
}

// Kind is a convenience accessor equivalent to n.Data.Kind().
func (n Node) Kind() NodeKind { return n.Data.Kind() }

// AsRequestData type-asserts the node's data as *RequestData, also matching
// a *MasterData (since MasterData embeds *RequestData). ok is false for
// cookie/not_found nodes.
func (n Node) AsRequestData() (*RequestData, bool) {
	switch d := n.Data.(type) {
	case *RequestData:
		return d, true
	case *MasterData:
		return d.RequestData, true
	}
	return nil, false
}

// Edge connects a consumer node to the provider node that supplies one of
// its unresolved values. Direction is consumer -> provider (SPEC_FULL §3).
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"` // consumer
	Target string `json:"target"` // provider
	Label  string `json:"label,omitempty"`
}

// Category is the Workflow Discoverer's semantic grouping (SPEC_FULL §4.5).
type Category string

const (
	CategorySearch              Category = "search"
	CategoryDocumentOperations  Category = "document_operations"
	CategoryAuthentication      Category = "authentication"
	CategoryUserManagement      Category = "user_management"
	CategoryCRUD                Category = "crud"
	CategoryDataExport          Category = "data_export"
	CategoryOther               Category = "other"
)

// Workflow groups a coherent set of captured requests accomplishing one
// user-visible action (SPEC_FULL §3).
type Workflow struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Category          Category `json:"category"`
	Priority          int      `json:"priority"`   // 1-10
	Complexity        int      `json:"complexity"` // 1-10
	RequiresUserInput bool     `json:"requires_user_input"`
	MasterNodeID      string   `json:"master_node_id"`
	MemberNodeIDs     []string `json:"member_node_ids"`
}
