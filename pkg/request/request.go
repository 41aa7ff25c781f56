package request

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Header is a single ordered header entry. Headers are kept as an ordered
// slice (not a map) because the canonical curl string must reproduce the
// capture order, and because HAR archives themselves preserve header order.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HeaderMap is an ordered mapping of header name to value.
type HeaderMap []Header

// Get performs a case-insensitive lookup of a header value.
func (h HeaderMap) Get(name string) (string, bool) {
	for _, entry := range h {
		if strings.EqualFold(entry.Name, name) {
			return entry.Value, true
		}
	}
	return "", false
}

// Has reports whether a header with the given name (case-insensitive) is present.
func (h HeaderMap) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Names returns the header names in capture order.
func (h HeaderMap) Names() []string {
	names := make([]string, len(h))
	for i, entry := range h {
		names[i] = entry.Name
	}
	return names
}

// QueryParam is a single ordered query-string entry.
type QueryParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// QueryMap is an ordered mapping of query parameter name to value.
type QueryMap []QueryParam

// Get looks up a query parameter by exact name.
func (q QueryMap) Get(name string) (string, bool) {
	for _, entry := range q {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return "", false
}

// Body holds a captured request or response body. At most one of the typed
// accessors is meaningful for a given body; JSON is parsed lazily on first
// access since most bodies are never inspected as JSON.
type Body struct {
	Raw         []byte `json:"raw,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	jsonOnce sync.Once
	jsonVal  interface{}
	jsonErr  error
}

// Text returns the body as a string.
func (b *Body) Text() string {
	if b == nil {
		return ""
	}
	return string(b.Raw)
}

// JSON lazily parses the body as JSON and caches the result. Subsequent
// calls are free. Returns an error if the body is not valid JSON.
func (b *Body) JSON() (interface{}, error) {
	if b == nil {
		return nil, fmt.Errorf("request: nil body has no JSON")
	}
	b.jsonOnce.Do(func() {
		if len(b.Raw) == 0 {
			b.jsonErr = fmt.Errorf("request: empty body is not JSON")
			return
		}
		b.jsonErr = json.Unmarshal(b.Raw, &b.jsonVal)
	})
	return b.jsonVal, b.jsonErr
}

// IsJSON reports whether the body parses as JSON.
func (b *Body) IsJSON() bool {
	_, err := b.JSON()
	return err == nil
}

// Response is the normalized view of a captured HTTP response.
type Response struct {
	Status     int       `json:"status"`
	StatusText string    `json:"status_text,omitempty"`
	Headers    HeaderMap `json:"headers,omitempty"`
	Body       *Body     `json:"body,omitempty"`
}

// BodyText returns the response body as text, or "" if there is none.
func (r *Response) BodyText() string {
	if r == nil {
		return ""
	}
	return r.Body.Text()
}

// BodyJSON returns the lazily-parsed JSON value of the response body, if any.
func (r *Response) BodyJSON() (interface{}, error) {
	if r == nil {
		return nil, fmt.Errorf("request: nil response has no body")
	}
	return r.Body.JSON()
}

// ContentType returns the response's Content-Type header value, case-folded
// lookup, or "" if absent.
func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	ct, _ := r.Headers.Get("Content-Type")
	return ct
}

// Request is the normalized view of a single captured request/response pair.
// It is the unit the Dependency Graph's request nodes reference, and the
// unit the Resolver searches for candidate source values.
type Request struct {
	Method    string     `json:"method"`
	URL       string     `json:"url"`
	Headers   HeaderMap  `json:"headers,omitempty"`
	Query     QueryMap   `json:"query,omitempty"`
	Body      *Body      `json:"body,omitempty"`
	Response  *Response  `json:"response,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Header performs a case-insensitive header lookup.
func (r Request) Header(name string) (string, bool) {
	return r.Headers.Get(name)
}

// QueryParam looks up a query string parameter by exact name.
func (r Request) QueryParam(name string) (string, bool) {
	return r.Query.Get(name)
}

// BodyText returns the request body as text.
func (r Request) BodyText() string {
	return r.Body.Text()
}

// BodyContentType sniffs the content type of the request body: the
// Content-Type header if present, otherwise a best-effort guess from the
// first non-whitespace byte of the body.
func (r Request) BodyContentType() string {
	if ct, ok := r.Header("Content-Type"); ok {
		return ct
	}
	if r.Body == nil || len(r.Body.Raw) == 0 {
		return ""
	}
	trimmed := strings.TrimSpace(string(r.Body.Raw))
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{', '[':
		return "application/json"
	case '<':
		return "text/html"
	default:
		return "text/plain"
	}
}

// BaseURL returns the request URL with its query string removed, used for
// workflow grouping by "(method, base_url)".
func (r Request) BaseURL() string {
	if u, err := url.Parse(r.URL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		return u.String()
	}
	if idx := strings.IndexByte(r.URL, '?'); idx >= 0 {
		return r.URL[:idx]
	}
	return r.URL
}

// PathSegments returns the non-empty path segments of the request URL.
func (r Request) PathSegments() []string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil
	}
	parts := strings.Split(u.Path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// PathContains reports whether the URL path contains one of the given
// substrings, case-insensitively. Used by the Classifier to detect public
// endpoints ("/no-auth/", "/public/", ...) and by the Workflow Discoverer
// for category keyword matching.
func (r Request) PathContains(needles ...string) bool {
	path := r.URL
	if u, err := url.Parse(r.URL); err == nil {
		path = u.Path
	}
	lowerPath := strings.ToLower(path)
	for _, n := range needles {
		if strings.Contains(lowerPath, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// IsJavaScriptOrHTML implements the provider-exclusion predicate from
// SPEC_FULL §4.1: a request whose URL ends in ".js", or whose response
// Content-Type includes "text/html" or "application/javascript", must
// never be selected as a dependency source (it is markup/script, not data).
func (r Request) IsJavaScriptOrHTML() bool {
	if strings.HasSuffix(strings.ToLower(strings.SplitN(r.URL, "?", 2)[0]), ".js") {
		return true
	}
	ct := strings.ToLower(r.Response.ContentType())
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/javascript")
}

// BodyHash returns a stable short hash of the request body, used as part of
// node identity: two requests are the same node iff (method, url, body
// hash) match.
func (r Request) BodyHash() string {
	if r.Body == nil || len(r.Body.Raw) == 0 {
		return "-"
	}
	sum := sha256.Sum256(r.Body.Raw)
	return hex.EncodeToString(sum[:8])
}

// Identity returns the (method, url, body hash) triple used to deduplicate
// request nodes in the Dependency Graph.
func (r Request) Identity() string {
	return strings.ToUpper(r.Method) + " " + r.URL + " " + r.BodyHash()
}

// CurlString renders the canonical curl-equivalent string for this request.
// It is used both as a human-readable identity heuristic and as the search
// haystack for the Resolver's "does the canonical request itself contain
// this literal" consumer-vs-producer check.
//
// Header and query order is preserved from capture; query parameters are
// re-sorted by name only when emitting a single-line diagnostic form is not
// required, so the exact capture order is kept here to remain a faithful
// haystack for substring search.
func (r Request) CurlString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s '%s'", strings.ToUpper(r.Method), r.URL)
	for _, h := range r.Headers {
		fmt.Fprintf(&b, " -H '%s: %s'", h.Name, h.Value)
	}
	if r.Body != nil && len(r.Body.Raw) > 0 {
		fmt.Fprintf(&b, " --data '%s'", string(r.Body.Raw))
	}
	return b.String()
}

// SortedQueryNames returns query parameter names in lexical order, useful
// for deterministic logging and test fixtures.
func (r Request) SortedQueryNames() []string {
	names := make([]string, len(r.Query))
	for i, q := range r.Query {
		names[i] = q.Name
	}
	sort.Strings(names)
	return names
}

// Cookie represents a single entry in the captured cookie store.
type Cookie struct {
	Name   string            `json:"name"`
	Value  string            `json:"value"`
	Domain string            `json:"domain,omitempty"`
	Path   string            `json:"path,omitempty"`
	Flags  map[string]string `json:"flags,omitempty"`
}

// Store is a read-only-after-construction mapping of cookie name to Cookie,
// matching SPEC_FULL §5's "cookie store is read-only after session start".
type Store map[string]Cookie

// Contains reports whether any cookie's value contains the given literal as
// a substring (used by the Resolver's cookie-store precedence step).
func (s Store) Contains(literal string) (Cookie, bool) {
	for _, c := range s {
		if strings.Contains(c.Value, literal) {
			return c, true
		}
	}
	return Cookie{}, false
}

// ParseSetCookie parses a single Set-Cookie header value into its
// name/value/attribute triple. Only the name and value are required by the
// Resolver; attributes are kept for completeness and future use.
func ParseSetCookie(raw string) (Cookie, bool) {
	parts := strings.Split(raw, ";")
	if len(parts) == 0 {
		return Cookie{}, false
	}
	nv := strings.SplitN(strings.TrimSpace(parts[0]), "=", 2)
	if len(nv) != 2 || nv[0] == "" {
		return Cookie{}, false
	}
	c := Cookie{Name: nv[0], Value: nv[1], Flags: map[string]string{}}
	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		kv := strings.SplitN(attr, "=", 2)
		key := strings.ToLower(kv[0])
		switch {
		case key == "domain" && len(kv) == 2:
			c.Domain = kv[1]
		case key == "path" && len(kv) == 2:
			c.Path = kv[1]
		case len(kv) == 2:
			c.Flags[key] = kv[1]
		default:
			c.Flags[key] = "true"
		}
	}
	return c, true
}
