package request

import "testing"

func TestHeaderMap_Get_CaseInsensitive(t *testing.T) {
	h := HeaderMap{
		{Name: "Authorization", Value: "Bearer AAA"},
		{Name: "Content-Type", Value: "application/json"},
	}

	tests := []struct {
		name    string
		lookup  string
		want    string
		wantOk  bool
	}{
		{name: "exact case", lookup: "Authorization", want: "Bearer AAA", wantOk: true},
		{name: "lower case", lookup: "authorization", want: "Bearer AAA", wantOk: true},
		{name: "upper case", lookup: "CONTENT-TYPE", want: "application/json", wantOk: true},
		{name: "missing", lookup: "X-Missing", want: "", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.Get(tt.lookup)
			if ok != tt.wantOk || got != tt.want {
				t.Fatalf("Get(%q) = (%q, %v), want (%q, %v)", tt.lookup, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestRequest_IsJavaScriptOrHTML(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{
			name: "js extension",
			req:  Request{Method: "GET", URL: "https://cdn.example.com/bundle.js"},
			want: true,
		},
		{
			name: "js extension with query string",
			req:  Request{Method: "GET", URL: "https://cdn.example.com/bundle.js?v=2"},
			want: true,
		},
		{
			name: "html response content-type",
			req: Request{
				Method: "GET", URL: "https://example.com/",
				Response: &Response{Headers: HeaderMap{{Name: "Content-Type", Value: "text/html; charset=utf-8"}}},
			},
			want: true,
		},
		{
			name: "javascript response content-type",
			req: Request{
				Method: "GET", URL: "https://example.com/app.foo",
				Response: &Response{Headers: HeaderMap{{Name: "Content-Type", Value: "application/javascript"}}},
			},
			want: true,
		},
		{
			name: "json api response is not excluded",
			req: Request{
				Method: "GET", URL: "https://api.example.com/items",
				Response: &Response{Headers: HeaderMap{{Name: "Content-Type", Value: "application/json"}}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.IsJavaScriptOrHTML(); got != tt.want {
				t.Fatalf("IsJavaScriptOrHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequest_Identity(t *testing.T) {
	a := Request{Method: "get", URL: "https://api/x", Body: &Body{Raw: []byte(`{"a":1}`)}}
	b := Request{Method: "GET", URL: "https://api/x", Body: &Body{Raw: []byte(`{"a":1}`)}}
	c := Request{Method: "GET", URL: "https://api/x", Body: &Body{Raw: []byte(`{"a":2}`)}}

	if a.Identity() != b.Identity() {
		t.Fatalf("identical requests should have equal identity: %q vs %q", a.Identity(), b.Identity())
	}
	if a.Identity() == c.Identity() {
		t.Fatalf("requests with different bodies should have different identity")
	}
}

func TestRequest_BaseURL(t *testing.T) {
	r := Request{Method: "GET", URL: "https://api.example.com/search?q=shoe&page=2"}
	if got := r.BaseURL(); got != "https://api.example.com/search" {
		t.Fatalf("BaseURL() = %q, want %q", got, "https://api.example.com/search")
	}
}

func TestBody_JSON_LazyParse(t *testing.T) {
	b := &Body{Raw: []byte(`{"access_token":"AAA"}`)}
	val, err := b.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		t.Fatalf("JSON() = %T, want map[string]interface{}", val)
	}
	if m["access_token"] != "AAA" {
		t.Fatalf("JSON()[access_token] = %v, want AAA", m["access_token"])
	}

	// Second call must be served from cache (no panic / same result).
	val2, err2 := b.JSON()
	if err2 != nil || val2.(map[string]interface{})["access_token"] != "AAA" {
		t.Fatalf("cached JSON() mismatch: %v, %v", val2, err2)
	}
}

func TestParseSetCookie(t *testing.T) {
	c, ok := ParseSetCookie("sessionId=Z9; Path=/; HttpOnly; Secure")
	if !ok {
		t.Fatalf("ParseSetCookie failed to parse a valid cookie")
	}
	if c.Name != "sessionId" || c.Value != "Z9" {
		t.Fatalf("ParseSetCookie() = %+v, want name=sessionId value=Z9", c)
	}
	if c.Path != "/" {
		t.Fatalf("ParseSetCookie() path = %q, want /", c.Path)
	}
	if _, ok := c.Flags["httponly"]; !ok {
		t.Fatalf("ParseSetCookie() missing httponly flag")
	}
}
