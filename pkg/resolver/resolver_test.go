package resolver

import (
	"testing"

	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/request"
)

func testResolver() *Resolver {
	return New(config.Default())
}

func TestResolver_ValidateCandidate(t *testing.T) {
	r := testResolver()

	cases := []struct {
		value string
		want  bool
	}{
		{"ab", false},               // too short
		{"application/json", false}, // static token
		{"TRUE", false},             // static token, case-insensitive
		{"abc123token", true},
	}
	for _, c := range cases {
		if got := r.ValidateCandidate(c.value); got != c.want {
			t.Errorf("ValidateCandidate(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestResolver_Resolve_CookieStorePrecedence(t *testing.T) {
	r := testResolver()
	store := request.Store{
		"session": {Name: "session", Value: "sess-abc123"},
	}
	src, err := r.Resolve("abc123", store, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if src.Kind != SourceKindCookie || src.CookieName != "session" {
		t.Fatalf("Resolve() = %+v, want cookie source named session", src)
	}
}

func TestResolver_Resolve_PriorResponseBody(t *testing.T) {
	r := testResolver()
	providers := []ProviderCandidate{
		{
			NodeID: "login",
			Request: request.Request{
				Method: "POST",
				URL:    "https://x/login",
				Response: &request.Response{
					Status:  200,
					Headers: request.HeaderMap{{Name: "Content-Type", Value: "application/json"}},
					Body:    &request.Body{Raw: []byte(`{"token":"xyz789secret"}`)},
				},
			},
		},
	}
	src, err := r.Resolve("xyz789secret", nil, providers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if src.Kind != SourceKindResponseBody || src.ProviderNodeID != "login" {
		t.Fatalf("Resolve() = %+v, want response_body source from login", src)
	}
}

func TestResolver_Resolve_ExcludesConsumerEcho(t *testing.T) {
	r := testResolver()
	// The "provider" request itself references the literal in its own
	// request (a query parameter), so it's a consumer, not a producer.
	providers := []ProviderCandidate{
		{
			NodeID: "echo",
			Request: request.Request{
				Method: "GET",
				URL:    "https://x/echo?value=xyz789secret",
				Response: &request.Response{
					Status: 200,
					Body:   &request.Body{Raw: []byte(`{"echoed":"xyz789secret"}`)},
				},
			},
		},
	}
	_, err := r.Resolve("xyz789secret", nil, providers)
	if err != ErrNoSource {
		t.Fatalf("Resolve() error = %v, want ErrNoSource (consumer echo must be excluded)", err)
	}
}

func TestResolver_Resolve_ExcludesJavaScriptOrHTMLProviders(t *testing.T) {
	r := testResolver()
	providers := []ProviderCandidate{
		{
			NodeID: "bundle",
			Request: request.Request{
				Method: "GET",
				URL:    "https://x/app.js",
				Response: &request.Response{
					Status: 200,
					Body:   &request.Body{Raw: []byte(`const token = "xyz789secret";`)},
				},
			},
		},
	}
	_, err := r.Resolve("xyz789secret", nil, providers)
	if err != ErrNoSource {
		t.Fatalf("Resolve() error = %v, want ErrNoSource (.js providers excluded)", err)
	}
}

func TestResolver_Resolve_SetCookieHeader(t *testing.T) {
	r := testResolver()
	providers := []ProviderCandidate{
		{
			NodeID: "login",
			Request: request.Request{
				Method: "POST",
				URL:    "https://x/login",
				Response: &request.Response{
					Status:  200,
					Headers: request.HeaderMap{{Name: "Set-Cookie", Value: "csrf=tok_abc999; Path=/; HttpOnly"}},
				},
			},
		},
	}
	src, err := r.Resolve("tok_abc999", nil, providers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if src.Kind != SourceKindSetCookie || src.CookieName != "csrf" {
		t.Fatalf("Resolve() = %+v, want set_cookie source named csrf", src)
	}
}

func TestResolver_Resolve_AmbiguityScoring_PrefersSimplerProvider(t *testing.T) {
	r := testResolver()
	providers := []ProviderCandidate{
		{
			NodeID:         "complex",
			InsertionOrder: 0,
			Request: request.Request{
				Method:  "POST",
				URL:     "https://x/a/b/c/d?x=1&y=2",
				Headers: request.HeaderMap{{Name: "Authorization", Value: "Bearer zzz"}, {Name: "X-Foo", Value: "1"}},
				Body:    &request.Body{Raw: make([]byte, 2000)},
				Response: &request.Response{
					Status: 200,
					Body:   &request.Body{Raw: []byte(`{"shared":"matchvalue123"}`)},
				},
			},
		},
		{
			NodeID:         "simple",
			InsertionOrder: 1,
			Request: request.Request{
				Method: "GET",
				URL:    "https://x/health",
				Response: &request.Response{
					Status: 200,
					Body:   &request.Body{Raw: []byte(`{"shared":"matchvalue123"}`)},
				},
			},
		},
	}
	src, err := r.Resolve("matchvalue123", nil, providers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if src.ProviderNodeID != "simple" {
		t.Fatalf("Resolve() = %+v, want the simpler /health GET provider to win", src)
	}
}

func TestResolver_BootstrapSearch_HTMLVariableDeclaration(t *testing.T) {
	r := testResolver()
	candidates := []HTMLCandidate{
		{NodeID: "home", Body: `<html><script>var csrfToken = "boot-tok-555";</script></html>`},
	}
	src, ok := r.BootstrapSearch("boot-tok-555", candidates, 1, "home")
	if !ok {
		t.Fatalf("BootstrapSearch() ok = false, want true")
	}
	if src.Kind != SourceKindBootstrapHTML || src.ProviderNodeID != "home" {
		t.Fatalf("BootstrapSearch() = %+v, want initial-page-html source from home", src)
	}
}

func TestResolver_BootstrapSearch_SetCookie(t *testing.T) {
	r := testResolver()
	candidates := []HTMLCandidate{
		{NodeID: "home", Body: "<html></html>", SetCookies: []string{"xsrf=boot-cookie-777; Path=/"}},
	}
	src, ok := r.BootstrapSearch("boot-cookie-777", candidates, 1, "home")
	if !ok {
		t.Fatalf("BootstrapSearch() ok = false, want true")
	}
	if src.Kind != SourceKindBootstrapCookie || src.CookieName != "xsrf" {
		t.Fatalf("BootstrapSearch() = %+v, want initial-page-cookie source named xsrf", src)
	}
}

func TestResolver_BootstrapSearch_SyntheticFallback(t *testing.T) {
	r := testResolver()
	src, ok := r.BootstrapSearch("never-seen-literal", nil, 3, "earliest")
	if !ok {
		t.Fatalf("BootstrapSearch() ok = false, want true once occurrence count meets the synthetic threshold")
	}
	if src.Kind != SourceKindBootstrapSynthetic || !src.Synthetic || src.ProviderNodeID != "earliest" {
		t.Fatalf("BootstrapSearch() = %+v, want synthetic source attached to earliest", src)
	}
}

func TestResolver_BootstrapSearch_NoMatchBelowThreshold(t *testing.T) {
	r := testResolver()
	_, ok := r.BootstrapSearch("never-seen-literal", nil, 1, "earliest")
	if ok {
		t.Fatalf("BootstrapSearch() ok = true, want false below the synthetic occurrence threshold")
	}
}
