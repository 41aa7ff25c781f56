package workflow

import (
	"math"
	"sort"
	"strings"

	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/request"
	"github.com/harloom/harloom/pkg/types"
)

// CapturedRequest pairs a Dependency Graph node id with its request, the
// unit the Discoverer groups into workflows.
type CapturedRequest struct {
	NodeID  string
	Request request.Request
}

// subActionSuffixes are trailing path segments that mark a request as a
// sub-action of some base resource, disqualifying it as a primary endpoint.
var subActionSuffixes = []string{"copy", "cite", "download", "export", "share", "print"}

// Discoverer groups captured requests into workflows by semantic category.
type Discoverer struct {
	cfg             *config.Config
	orderedCategory []types.Category
}

// New builds a Discoverer whose category-matching order follows cfg's
// configured priorities, highest first, so an ambiguous request (one whose
// URL matches more than one category's keywords) is claimed by the
// higher-priority category.
func New(cfg *config.Config) *Discoverer {
	categories := make([]types.Category, 0, len(cfg.CategoryKeywords))
	for cat := range cfg.CategoryKeywords {
		categories = append(categories, types.Category(cat))
	}
	sort.SliceStable(categories, func(i, j int) bool {
		pi, pj := cfg.CategoryPriority[string(categories[i])], cfg.CategoryPriority[string(categories[j])]
		if pi != pj {
			return pi > pj
		}
		return categories[i] < categories[j]
	})
	return &Discoverer{cfg: cfg, orderedCategory: categories}
}

// categorize assigns a single request to the highest-priority matching
// category, or CategoryOther if none of the configured keyword families match.
func (d *Discoverer) categorize(req request.Request) types.Category {
	for _, cat := range d.orderedCategory {
		for _, kw := range d.cfg.CategoryKeywords[string(cat)] {
			if req.PathContains(kw) {
				return cat
			}
		}
	}
	return types.CategoryOther
}

// isSubAction reports whether req's URL ends in a sub-action segment
// ("/.../copy", "/.../download", ...), disqualifying it as a primary endpoint.
func isSubAction(req request.Request) bool {
	segments := req.PathSegments()
	if len(segments) == 0 {
		return false
	}
	last := strings.ToLower(segments[len(segments)-1])
	for _, suffix := range subActionSuffixes {
		if last == suffix {
			return true
		}
	}
	return false
}

// preferredMethod returns the HTTP method favored as primary for category,
// used only to break ties between equally-frequent base endpoints.
func preferredMethod(cat types.Category) string {
	switch cat {
	case types.CategorySearch, types.CategoryDataExport:
		return "GET"
	case types.CategoryCRUD, types.CategoryAuthentication:
		return "POST"
	default:
		return "GET"
	}
}

type endpointGroup struct {
	method    string
	baseURL   string
	requests  []CapturedRequest
}

// Discover partitions requests into workflows (spec.md §4.5). Order of the
// returned slice is insertion order of each category's first occurrence.
func (d *Discoverer) Discover(requests []CapturedRequest) []types.Workflow {
	var categoryOrder []types.Category
	grouped := map[types.Category][]CapturedRequest{}
	for _, cr := range requests {
		cat := d.categorize(cr.Request)
		if _, seen := grouped[cat]; !seen {
			categoryOrder = append(categoryOrder, cat)
		}
		grouped[cat] = append(grouped[cat], cr)
	}

	// Frequency across ALL groups' primary base endpoints, to compute the
	// "boost up to +1" for every workflow whose primary endpoint reaches that
	// highest count.
	maxFrequency := 0
	primaryByCategory := map[types.Category]*endpointGroup{}
	for _, cat := range categoryOrder {
		primary := pickPrimaryEndpoint(grouped[cat], cat)
		primaryByCategory[cat] = primary
		if primary != nil && len(primary.requests) > maxFrequency {
			maxFrequency = len(primary.requests)
		}
	}

	workflows := make([]types.Workflow, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		members := grouped[cat]
		primary := primaryByCategory[cat]
		if primary == nil || len(primary.requests) == 0 {
			continue
		}

		priority := d.cfg.CategoryPriority[string(cat)]
		if len(primary.requests) == maxFrequency {
			priority++
		}

		complexity := int(math.Ceil(float64(len(members)) / 2))
		if complexity < 1 {
			complexity = 1
		}
		if complexity > 10 {
			complexity = 10
		}

		memberIDs := make([]string, len(members))
		for i, m := range members {
			memberIDs[i] = m.NodeID
		}

		workflows = append(workflows, types.Workflow{
			ID:                types.GenerateID("workflow"),
			Name:              string(cat) + ": " + primary.requests[0].Request.BaseURL(),
			Category:          cat,
			Priority:          priority,
			Complexity:        complexity,
			RequiresUserInput: false,
			MasterNodeID:      primary.requests[0].NodeID,
			MemberNodeIDs:     memberIDs,
		})
	}

	return workflows
}

// pickPrimaryEndpoint finds the (method, base_url) group with the highest
// frequency among non-sub-action requests, breaking ties by the category's
// preferred method and then by first occurrence.
func pickPrimaryEndpoint(members []CapturedRequest, cat types.Category) *endpointGroup {
	groups := map[string]*endpointGroup{}
	var order []string
	for _, cr := range members {
		if isSubAction(cr.Request) {
			continue
		}
		key := strings.ToUpper(cr.Request.Method) + " " + cr.Request.BaseURL()
		g, ok := groups[key]
		if !ok {
			g = &endpointGroup{method: strings.ToUpper(cr.Request.Method), baseURL: cr.Request.BaseURL()}
			groups[key] = g
			order = append(order, key)
		}
		g.requests = append(g.requests, cr)
	}
	if len(order) == 0 {
		return nil
	}

	preferred := preferredMethod(cat)
	var best *endpointGroup
	for _, key := range order {
		g := groups[key]
		switch {
		case best == nil:
			best = g
		case len(g.requests) > len(best.requests):
			best = g
		case len(g.requests) == len(best.requests) && g.method == preferred && best.method != preferred:
			best = g
		}
	}
	return best
}

// SelectPrimary auto-selects the primary workflow by (priority desc,
// complexity asc, id asc) when the user has not chosen one (spec.md §4.5
// "Primary-workflow selection").
func SelectPrimary(workflows []types.Workflow) (types.Workflow, bool) {
	if len(workflows) == 0 {
		return types.Workflow{}, false
	}
	best := workflows[0]
	for _, w := range workflows[1:] {
		switch {
		case w.Priority > best.Priority:
			best = w
		case w.Priority == best.Priority && w.Complexity < best.Complexity:
			best = w
		case w.Priority == best.Priority && w.Complexity == best.Complexity && w.ID < best.ID:
			best = w
		}
	}
	return best, true
}
