package resolver

import "github.com/harloom/harloom/pkg/request"

// SourceKind tags where a resolved literal's value came from.
type SourceKind string

const (
	SourceKindCookie            SourceKind = "cookie"
	SourceKindResponseBody      SourceKind = "response_body"
	SourceKindResponseHeader    SourceKind = "response_header"
	SourceKindSetCookie         SourceKind = "set_cookie"
	SourceKindBootstrapHTML     SourceKind = "initial-page-html"
	SourceKindBootstrapCookie   SourceKind = "initial-page-cookie"
	SourceKindBootstrapSynthetic SourceKind = "synthetic"
)

// Source describes where a literal was resolved from, sufficient to either
// wire a Dependency Graph edge (ProviderNodeID/CookieName set) or describe a
// bootstrap origin (ExtractionPattern/Synthetic set).
type Source struct {
	Kind              SourceKind
	ProviderNodeID    string // set for ResponseBody/ResponseHeader/SetCookie and all bootstrap kinds
	CookieName        string // set for Cookie, SetCookie and BootstrapCookie
	ExtractionPattern string // set for BootstrapHTML and BootstrapCookie
	Synthetic         bool   // set for SourceKindBootstrapSynthetic
}

// ProviderCandidate is one captured request eligible to be a dependency
// source for another node's unresolved literal.
type ProviderCandidate struct {
	NodeID         string
	Request        request.Request
	InsertionOrder int
}
