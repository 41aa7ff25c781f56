package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/request"
	"github.com/harloom/harloom/pkg/types"
)

// Origin records where a candidate literal was found on the consumer
// request, so the Classifier can apply location-specific auth heuristics.
type Origin struct {
	Location    string // "header", "query", "body", "cookie"
	Name        string // header/query/body-field/cookie name
	HeaderValue string // raw header value, only set when Location == "header"
}

// Classifier partitions a request node's candidate values into input
// variable, authentication token, session constant, or dependency.
type Classifier struct {
	cfg           *config.Config
	cookieAuthRe  *regexp.Regexp
	paramPrograms []*vm.Program
}

// New compiles the configured cookie-name regex and auth-param-name
// expr-lang rules once, so Classify/ClassifyRequestAuth never recompile.
func New(cfg *config.Config) (*Classifier, error) {
	cookieRe, err := regexp.Compile(cfg.CookieAuthNamePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: cookie auth pattern: %v", ErrInvalidPattern, err)
	}

	programs := make([]*vm.Program, 0, len(cfg.AuthParamNameSubstrings))
	for _, sub := range cfg.AuthParamNameSubstrings {
		rule := fmt.Sprintf("name contains %q", strings.ToLower(sub))
		program, err := expr.Compile(rule, expr.Env(map[string]interface{}{"name": ""}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("%w: auth param rule %q: %v", ErrInvalidPattern, rule, err)
		}
		programs = append(programs, program)
	}

	return &Classifier{cfg: cfg, cookieAuthRe: cookieRe, paramPrograms: programs}, nil
}

// isAuthParamName reports whether name matches any configured
// auth-param-name substring rule (token, api, auth, key, ...).
func (c *Classifier) isAuthParamName(name string) bool {
	env := map[string]interface{}{"name": strings.ToLower(name)}
	for _, program := range c.paramPrograms {
		out, err := expr.Run(program, env)
		if err != nil {
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return true
		}
	}
	return false
}

// Classify partitions one candidate literal. inputVars maps a declared
// input's name to its example value; occurrenceCount is how many captured
// requests reference literal; hasPriorProducer reports whether any prior
// response already produces it (disqualifying it as a session constant).
func (c *Classifier) Classify(literal string, origins []Origin, inputVars map[string]string, occurrenceCount int, hasPriorProducer bool) (types.ValueKind, string) {
	for name, example := range inputVars {
		if example == literal {
			return types.ValueKindInput, name
		}
	}

	for _, o := range origins {
		if kind, origin, ok := c.classifyOrigin(o); ok {
			return kind, origin
		}
	}

	if occurrenceCount >= c.cfg.SessionConstantThreshold && !hasPriorProducer {
		return types.ValueKindSessionConstant, "session_constant"
	}

	return types.ValueKindDependency, "dependency"
}

func (c *Classifier) classifyOrigin(o Origin) (types.ValueKind, string, bool) {
	switch o.Location {
	case "header":
		lowerName := strings.ToLower(o.Name)
		if lowerName == "authorization" {
			return types.ValueKindAuthToken, "header:" + o.Name, true
		}
		lowerValue := strings.ToLower(o.HeaderValue)
		if strings.HasPrefix(lowerValue, "bearer ") || strings.HasPrefix(lowerValue, "basic ") {
			return types.ValueKindAuthToken, "header:" + o.Name, true
		}
		for _, sub := range []string{"api-key", "auth-token", "token"} {
			if strings.Contains(lowerName, sub) {
				return types.ValueKindAuthToken, "header:" + o.Name, true
			}
		}
	case "query", "body":
		if c.isAuthParamName(o.Name) {
			return types.ValueKindAuthToken, o.Location + ":" + o.Name, true
		}
	case "cookie":
		if c.cookieAuthRe.MatchString(o.Name) {
			return types.ValueKindAuthToken, "cookie:" + o.Name, true
		}
	}
	return "", "", false
}

// ClassifyRequestAuth determines a request's authentication requirement
// (spec.md §4.4): public path segments always win; otherwise the first
// matching auth signal (Authorization header, configured auth headers,
// or a recognizably-named Cookie entry) determines the auth type.
func (c *Classifier) ClassifyRequestAuth(req request.Request) types.AuthAnalysis {
	if req.PathContains(c.cfg.PublicPathSegments...) {
		return types.AuthAnalysis{Type: "none", Requirement: types.AuthRequirementNone}
	}

	if v, ok := req.Header("Authorization"); ok {
		lower := strings.ToLower(v)
		switch {
		case strings.HasPrefix(lower, "bearer "):
			return types.AuthAnalysis{Type: "bearer", Requirement: types.AuthRequirementRequired}
		case strings.HasPrefix(lower, "basic "):
			return types.AuthAnalysis{Type: "basic", Requirement: types.AuthRequirementRequired}
		default:
			return types.AuthAnalysis{Type: "api_key", Requirement: types.AuthRequirementRequired}
		}
	}

	for _, name := range c.cfg.AuthHeaderNames {
		if _, ok := req.Header(name); ok {
			return types.AuthAnalysis{Type: "api_key", Requirement: types.AuthRequirementRequired}
		}
	}

	if cookieHeader, ok := req.Header("Cookie"); ok {
		for _, part := range strings.Split(cookieHeader, ";") {
			kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
			if len(kv) == 2 && c.cookieAuthRe.MatchString(kv[0]) {
				return types.AuthAnalysis{Type: "cookie", Requirement: types.AuthRequirementRequired}
			}
		}
	}

	return types.AuthAnalysis{Type: "none", Requirement: types.AuthRequirementNone}
}
