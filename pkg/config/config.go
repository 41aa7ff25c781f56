package config

import "time"

// Config holds all tunable parameters for the HAR analysis pipeline.
// Every numeric/string constant named as a literal in spec.md is exposed
// here so the Open Questions it leaves configurable actually are.
type Config struct {
	// ------------------------------------------------------------------
	// Orchestrator / session limits
	// ------------------------------------------------------------------

	MaxSessionDuration  time.Duration // wall-clock budget for one session
	MaxNodeProcessTime  time.Duration // budget for a single PROCESS_NEXT_NODE tick
	MaxQueueSize        int           // safety cap on the orchestrator's work queue
	MaxGraphNodes       int           // safety cap on total graph nodes
	MaxGraphEdges       int           // safety cap on total graph edges

	// ------------------------------------------------------------------
	// Candidate-value validation (Resolver §4.3)
	// ------------------------------------------------------------------

	MinLiteralLength int      // values shorter than this are never proposed as dynamic parts
	StaticTokens     []string // common static tokens rejected outright (case-insensitive)

	// ------------------------------------------------------------------
	// Classifier thresholds (§4.4, §9 Open Questions)
	// ------------------------------------------------------------------

	// SessionConstantThreshold is the minimum number of requests a value must
	// appear in (with no prior-response producer) to be classified as a
	// session constant rather than left unresolved. spec.md leaves this
	// "specific to the captured source" and asks that it be configurable.
	SessionConstantThreshold int

	// BootstrapSyntheticThreshold is the minimum occurrence count before the
	// Resolver fabricates a synthetic bootstrap source for a literal that has
	// no real HTML/cookie origin (§4.3 "Bootstrap search").
	BootstrapSyntheticThreshold int

	AuthHeaderNames         []string // header names that mark a value as an auth token when present
	AuthParamNameSubstrings []string // substrings in a param name that mark it auth-related
	CookieAuthNamePattern   string   // regex matched against parsed Cookie header names
	PublicPathSegments      []string // URL path segments that mark a request as public/no-auth

	// ------------------------------------------------------------------
	// Workflow discovery (§4.5)
	// ------------------------------------------------------------------

	CategoryKeywords map[string][]string // category -> language-independent keyword families
	CategoryPriority map[string]int       // category -> base priority (1-10)

	// ------------------------------------------------------------------
	// Resolver simplicity scoring (§4.3 "Ambiguity resolution")
	// ------------------------------------------------------------------

	ScoreBase              int
	ScoreMethodBonus        map[string]int
	ScoreHeaderPenaltyEach  int
	ScoreBodyNoneBonus      int
	ScoreBodySmallBonus     int // <= 100B
	ScoreBodyMediumBonus    int // <= 500B
	ScoreBodyLargeBonus     int // <= 1000B
	ScoreBodyHugePenalty    int // > 1000B
	ScorePathSegmentPenalty int
	ScoreQueryParamPenalty  int
	ScoreJSONRequestBonus   int
	ScoreFormRequestBonus   int
	ScoreMultipartPenalty   int
	ScoreJSONResponseBonus  int
	ScoreTextResponseBonus  int
	ScoreHTMLResponsePenalty int
	ScoreAuthHeaderPenalty  int
	ScoreHealthPathBonus    int
	ScoreAPIPathBonus       int
	ScoreAPIPathMaxSegments int
	ScoreFloor              int

	// ------------------------------------------------------------------
	// HAR ingestion heuristics (§6)
	// ------------------------------------------------------------------

	TrackingHostSubstrings []string // hostnames treated as analytics/tracking, excluded from "meaningful"

	// ------------------------------------------------------------------
	// Oracle (LLM) invocation
	// ------------------------------------------------------------------

	OracleTimeout time.Duration
}

// Default returns production-ready defaults matching the literal values
// named throughout spec.md §4.
func Default() *Config {
	return &Config{
		MaxSessionDuration: 5 * time.Minute,
		MaxNodeProcessTime: 30 * time.Second,
		MaxQueueSize:       2000,
		MaxGraphNodes:      2000,
		MaxGraphEdges:      10000,

		MinLiteralLength: 3,
		StaticTokens: []string{
			"application/json", "text/html", "utf-8", "true", "false", "null",
		},

		SessionConstantThreshold:    3,
		BootstrapSyntheticThreshold: 3,

		AuthHeaderNames:         []string{"Authorization", "X-API-Key", "X-Auth-Token"},
		AuthParamNameSubstrings: []string{"token", "api", "auth", "key"},
		CookieAuthNamePattern:   `(?i)session|token|auth|csrf|xsrf|jwt`,
		PublicPathSegments:      []string{"/no-auth/", "/public/", "/anonymous/", "/guest/"},

		CategoryKeywords: map[string][]string{
			"search":               {"search", "pesquisa"},
			"document_operations":  {"document", "documento", "copiar", "citar"},
			"authentication":       {"auth", "login", "token", "session"},
			"user_management":      {"user", "usuario", "account", "conta"},
			"data_export":          {"export", "download"},
			"crud":                 {"create", "update", "delete", "edit"},
		},
		CategoryPriority: map[string]int{
			"search":              9,
			"authentication":      8,
			"document_operations": 7,
			"crud":                6,
			"data_export":         5,
			"user_management":     4,
			"other":               3,
		},

		ScoreBase: 100,
		ScoreMethodBonus: map[string]int{
			"GET": 20, "HEAD": 15, "POST": 10, "PUT": 5, "PATCH": 5, "DELETE": 3,
		},
		ScoreHeaderPenaltyEach:   2,
		ScoreBodyNoneBonus:       10,
		ScoreBodySmallBonus:      0,
		ScoreBodyMediumBonus:     -5,
		ScoreBodyLargeBonus:      -10,
		ScoreBodyHugePenalty:     -20,
		ScorePathSegmentPenalty:  3,
		ScoreQueryParamPenalty:   4,
		ScoreJSONRequestBonus:    5,
		ScoreFormRequestBonus:    3,
		ScoreMultipartPenalty:    -5,
		ScoreJSONResponseBonus:   8,
		ScoreTextResponseBonus:   5,
		ScoreHTMLResponsePenalty: -3,
		ScoreAuthHeaderPenalty:   -8,
		ScoreHealthPathBonus:     15,
		ScoreAPIPathBonus:        5,
		ScoreAPIPathMaxSegments:  3,
		ScoreFloor:               1,

		TrackingHostSubstrings: []string{
			"google-analytics.com", "googletagmanager.com", "doubleclick.net",
			"facebook.com/tr", "segment.io", "mixpanel.com", "hotjar.com",
			"sentry.io", "newrelic.com", "fullstory.com",
		},

		OracleTimeout: 20 * time.Second,
	}
}

// Strict tightens limits for HARs captured from untrusted sources: smaller
// queues, stricter session-constant threshold, shorter timeouts.
func Strict() *Config {
	cfg := Default()
	cfg.MaxSessionDuration = 2 * time.Minute
	cfg.MaxQueueSize = 500
	cfg.MaxGraphNodes = 500
	cfg.SessionConstantThreshold = 5
	cfg.BootstrapSyntheticThreshold = 5
	cfg.OracleTimeout = 10 * time.Second
	return cfg
}

// Lenient relaxes limits for local, trusted captures with many requests.
func Lenient() *Config {
	cfg := Default()
	cfg.MaxSessionDuration = 15 * time.Minute
	cfg.MaxQueueSize = 10000
	cfg.MaxGraphNodes = 10000
	cfg.SessionConstantThreshold = 2
	return cfg
}

// Clone returns a deep copy so callers may mutate one session's config
// without affecting others sharing the same defaults.
func (c *Config) Clone() *Config {
	clone := *c
	clone.StaticTokens = append([]string(nil), c.StaticTokens...)
	clone.AuthHeaderNames = append([]string(nil), c.AuthHeaderNames...)
	clone.AuthParamNameSubstrings = append([]string(nil), c.AuthParamNameSubstrings...)
	clone.PublicPathSegments = append([]string(nil), c.PublicPathSegments...)
	clone.TrackingHostSubstrings = append([]string(nil), c.TrackingHostSubstrings...)

	clone.CategoryKeywords = make(map[string][]string, len(c.CategoryKeywords))
	for k, v := range c.CategoryKeywords {
		clone.CategoryKeywords[k] = append([]string(nil), v...)
	}
	clone.CategoryPriority = make(map[string]int, len(c.CategoryPriority))
	for k, v := range c.CategoryPriority {
		clone.CategoryPriority[k] = v
	}
	clone.ScoreMethodBonus = make(map[string]int, len(c.ScoreMethodBonus))
	for k, v := range c.ScoreMethodBonus {
		clone.ScoreMethodBonus[k] = v
	}
	return &clone
}

// Validate reports a non-nil error if the configuration is internally
// inconsistent: a negative duration, a MinLiteralLength below 1, or a
// session-constant/bootstrap threshold below 1. Size limits are not checked.
func (c *Config) Validate() error {
	if c.MaxSessionDuration < 0 {
		return ErrInvalidDuration
	}
	if c.MaxNodeProcessTime < 0 {
		return ErrInvalidDuration
	}
	if c.MinLiteralLength < 1 {
		return ErrInvalidThreshold
	}
	if c.SessionConstantThreshold < 1 || c.BootstrapSyntheticThreshold < 1 {
		return ErrInvalidThreshold
	}
	return nil
}
