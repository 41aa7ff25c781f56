package resolver

import (
	"regexp"
	"strings"

	"github.com/harloom/harloom/pkg/request"
)

// HTMLCandidate is one of the earliest captured HTML responses, scanned by
// BootstrapSearch when no prior-response producer exists for a literal.
type HTMLCandidate struct {
	NodeID     string
	Body       string
	SetCookies []string // raw Set-Cookie header values observed on this response
}

type bootstrapPattern struct {
	re      func(literal string) *regexp.Regexp
	pattern string
}

// bootstrapPatterns is tried in spec order: variable declarations,
// window/global assignments, JSON property, data attributes, meta tags,
// hidden form inputs. Each entry's matcher is built per-literal since the
// literal itself, not the variable/attribute name, is what must appear.
var bootstrapPatterns = []bootstrapPattern{
	{
		re:      func(l string) *regexp.Regexp { return regexp.MustCompile(`(?:var|let|const)\s+\w+\s*=\s*["']` + regexp.QuoteMeta(l) + `["']`) },
		pattern: `(?:var|let|const)\s+(\w+)\s*=\s*["']([^"']+)["']`,
	},
	{
		re:      func(l string) *regexp.Regexp { return regexp.MustCompile(`(?:window|global)\.\w+\s*=\s*["']` + regexp.QuoteMeta(l) + `["']`) },
		pattern: `(?:window|global)\.(\w+)\s*=\s*["']([^"']+)["']`,
	},
	{
		re:      func(l string) *regexp.Regexp { return regexp.MustCompile(`"[\w-]+"\s*:\s*"` + regexp.QuoteMeta(l) + `"`) },
		pattern: `"([\w-]+)"\s*:\s*"([^"]+)"`,
	},
	{
		re:      func(l string) *regexp.Regexp { return regexp.MustCompile(`data-[\w-]+=["']` + regexp.QuoteMeta(l) + `["']`) },
		pattern: `data-([\w-]+)=["']([^"']+)["']`,
	},
	{
		re:      func(l string) *regexp.Regexp { return regexp.MustCompile(`<meta[^>]*content=["']` + regexp.QuoteMeta(l) + `["'][^>]*>`) },
		pattern: `<meta[^>]*name=["']([^"']+)["'][^>]*content=["']([^"']+)["'][^>]*>`,
	},
	{
		re:      func(l string) *regexp.Regexp { return regexp.MustCompile(`<input[^>]*value=["']` + regexp.QuoteMeta(l) + `["'][^>]*>`) },
		pattern: `<input[^>]*name=["']([^"']+)["'][^>]*value=["']([^"']+)["'][^>]*>`,
	},
}

// matchBootstrapHTML returns the extraction pattern of the first regex
// family that matches literal's occurrence in html, falling back to a bare
// literal match (spec.md §4.3 "Bootstrap search").
func matchBootstrapHTML(html, literal string) (string, bool) {
	for _, p := range bootstrapPatterns {
		if p.re(literal).MatchString(html) {
			return p.pattern, true
		}
	}
	if strings.Contains(html, literal) {
		return literal, true
	}
	return "", false
}

// BootstrapSearch is the Resolver's last-resort path: scan the earliest
// captured HTML responses for literal, then their Set-Cookie headers, and
// finally fabricate a synthetic source if literal recurs often enough
// (occurrenceCount >= BootstrapSyntheticThreshold) with no real origin.
func (r *Resolver) BootstrapSearch(literal string, candidates []HTMLCandidate, occurrenceCount int, earliestNodeID string) (Source, bool) {
	for _, c := range candidates {
		if pattern, ok := matchBootstrapHTML(c.Body, literal); ok {
			return Source{Kind: SourceKindBootstrapHTML, ProviderNodeID: c.NodeID, ExtractionPattern: pattern}, true
		}
	}

	for _, c := range candidates {
		for _, raw := range c.SetCookies {
			cookie, ok := request.ParseSetCookie(raw)
			if !ok || !strings.Contains(cookie.Value, literal) {
				continue
			}
			return Source{
				Kind:              SourceKindBootstrapCookie,
				ProviderNodeID:    c.NodeID,
				CookieName:        cookie.Name,
				ExtractionPattern: cookie.Name + `=([^;]+)`,
			}, true
		}
	}

	if occurrenceCount >= r.cfg.BootstrapSyntheticThreshold {
		return Source{
			Kind:           SourceKindBootstrapSynthetic,
			ProviderNodeID: earliestNodeID,
			Synthetic:      true,
		}, true
	}

	return Source{}, false
}
