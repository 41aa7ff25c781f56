package resolver

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/request"
)

// Resolver finds the cheapest source for an unresolved literal value,
// checking the cookie store, then prior response bodies, then response
// headers (including Set-Cookie), in that precedence order.
type Resolver struct {
	cfg *config.Config
}

// New constructs a Resolver bound to cfg's candidate-validation and
// simplicity-scoring parameters.
func New(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// ValidateCandidate rejects values too short to be meaningful or that are
// common static tokens (spec.md §4.3 "Candidate value validation").
// Rejected values are not errors; callers simply skip them.
func (r *Resolver) ValidateCandidate(literal string) bool {
	if len(literal) < r.cfg.MinLiteralLength {
		return false
	}
	lower := strings.ToLower(literal)
	for _, tok := range r.cfg.StaticTokens {
		if lower == strings.ToLower(tok) {
			return false
		}
	}
	return true
}

// Resolve searches, in precedence order, for a source of literal: the
// cookie store, then among providers whichever produces it in a response
// body, then in response headers/Set-Cookie. It returns ErrNoSource if none
// match, in which case the caller should attempt BootstrapSearch.
func (r *Resolver) Resolve(literal string, cookies request.Store, providers []ProviderCandidate) (Source, error) {
	if cookie, ok := cookies.Contains(literal); ok {
		return Source{Kind: SourceKindCookie, CookieName: cookie.Name}, nil
	}

	decoded := literal
	if d, err := url.QueryUnescape(literal); err == nil {
		decoded = d
	}

	type match struct {
		candidate ProviderCandidate
		kind      SourceKind
		cookie    string
		score     int
	}
	var matches []match

	for _, p := range providers {
		if p.Request.IsJavaScriptOrHTML() {
			continue
		}
		// A provider that itself references the literal in its own request
		// is a consumer, not a producer, and is excluded.
		if containsLiteral(p.Request.CurlString(), literal, decoded) {
			continue
		}

		if bodyMatch(p.Request.Response, literal, decoded) {
			matches = append(matches, match{candidate: p, kind: SourceKindResponseBody, score: r.score(p)})
			continue
		}

		if kind, cookieName, ok := headerMatch(p.Request.Response, literal, decoded); ok {
			matches = append(matches, match{candidate: p, kind: kind, cookie: cookieName, score: r.score(p)})
		}
	}

	if len(matches) == 0 {
		return Source{}, ErrNoSource
	}

	sort.SliceStable(matches, func(i, j int) bool {
		bi, bj := matches[i].kind == SourceKindResponseBody, matches[j].kind == SourceKindResponseBody
		if bi != bj {
			return bi
		}
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].candidate.InsertionOrder < matches[j].candidate.InsertionOrder
	})

	winner := matches[0]
	return Source{Kind: winner.kind, ProviderNodeID: winner.candidate.NodeID, CookieName: winner.cookie}, nil
}

// containsLiteral reports whether haystack contains literal or its
// URL-decoded variant, case-insensitively.
func containsLiteral(haystack, literal, decoded string) bool {
	lower := strings.ToLower(haystack)
	if strings.Contains(lower, strings.ToLower(literal)) {
		return true
	}
	return decoded != literal && strings.Contains(lower, strings.ToLower(decoded))
}

// bodyMatch reports whether resp's body (JSON-aware, or raw text otherwise)
// contains literal or its URL-decoded variant.
func bodyMatch(resp *request.Response, literal, decoded string) bool {
	if resp == nil || resp.Body == nil {
		return false
	}
	if v, err := resp.BodyJSON(); err == nil {
		return searchJSON(v, literal) || (decoded != literal && searchJSON(v, decoded))
	}
	return containsLiteral(resp.BodyText(), literal, decoded)
}

// searchJSON recursively searches a decoded JSON value for literal: strings
// match on case-insensitive substring or exact equality, numbers and
// booleans on exact string form.
func searchJSON(v interface{}, literal string) bool {
	switch val := v.(type) {
	case string:
		return strings.EqualFold(val, literal) || strings.Contains(strings.ToLower(val), strings.ToLower(literal))
	case bool:
		return strconv.FormatBool(val) == literal
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64) == literal
	case []interface{}:
		for _, item := range val {
			if searchJSON(item, literal) {
				return true
			}
		}
	case map[string]interface{}:
		for _, item := range val {
			if searchJSON(item, literal) {
				return true
			}
		}
	}
	return false
}

// headerMatch checks resp's headers, including parsed Set-Cookie values,
// for literal or its URL-decoded variant.
func headerMatch(resp *request.Response, literal, decoded string) (SourceKind, string, bool) {
	if resp == nil {
		return "", "", false
	}
	for _, h := range resp.Headers {
		if strings.EqualFold(h.Name, "Set-Cookie") {
			if cookie, ok := request.ParseSetCookie(h.Value); ok {
				if containsLiteral(cookie.Value, literal, decoded) {
					return SourceKindSetCookie, cookie.Name, true
				}
			}
			continue
		}
		if containsLiteral(h.Value, literal, decoded) {
			return SourceKindResponseHeader, "", true
		}
	}
	return "", "", false
}

// score computes the deterministic simplicity score for a provider
// candidate (spec.md §4.3 "Ambiguity resolution"). Higher scores win.
func (r *Resolver) score(p ProviderCandidate) int {
	score := r.cfg.ScoreBase
	req := p.Request

	score += r.cfg.ScoreMethodBonus[strings.ToUpper(req.Method)]
	score -= r.cfg.ScoreHeaderPenaltyEach * len(req.Headers)

	bodyLen := 0
	if req.Body != nil {
		bodyLen = len(req.Body.Raw)
	}
	switch {
	case bodyLen == 0:
		score += r.cfg.ScoreBodyNoneBonus
	case bodyLen <= 100:
		score += r.cfg.ScoreBodySmallBonus
	case bodyLen <= 500:
		score += r.cfg.ScoreBodyMediumBonus
	case bodyLen <= 1000:
		score += r.cfg.ScoreBodyLargeBonus
	default:
		score += r.cfg.ScoreBodyHugePenalty
	}

	segments := req.PathSegments()
	score -= r.cfg.ScorePathSegmentPenalty * len(segments)
	score -= r.cfg.ScoreQueryParamPenalty * len(req.Query)

	ct := strings.ToLower(req.BodyContentType())
	switch {
	case strings.Contains(ct, "application/json"):
		score += r.cfg.ScoreJSONRequestBonus
	case strings.Contains(ct, "form"):
		if strings.Contains(ct, "multipart") {
			score += r.cfg.ScoreMultipartPenalty
		} else {
			score += r.cfg.ScoreFormRequestBonus
		}
	}

	respCT := strings.ToLower(req.Response.ContentType())
	switch {
	case strings.Contains(respCT, "application/json"):
		score += r.cfg.ScoreJSONResponseBonus
	case strings.Contains(respCT, "text/html"):
		score += r.cfg.ScoreHTMLResponsePenalty
	case strings.Contains(respCT, "text/plain"):
		score += r.cfg.ScoreTextResponseBonus
	}

	for _, h := range req.Headers {
		for _, authName := range r.cfg.AuthHeaderNames {
			if strings.EqualFold(h.Name, authName) {
				score += r.cfg.ScoreAuthHeaderPenalty
				break
			}
		}
	}

	if req.PathContains("/health", "/status", "/ping") {
		score += r.cfg.ScoreHealthPathBonus
	} else if req.PathContains("/api/") && len(segments) <= r.cfg.ScoreAPIPathMaxSegments {
		score += r.cfg.ScoreAPIPathBonus
	}

	if score < r.cfg.ScoreFloor {
		score = r.cfg.ScoreFloor
	}
	return score
}
