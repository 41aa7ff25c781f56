package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harloom/harloom/pkg/config"
)

type wireNV struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func buildHAR(t *testing.T) []byte {
	t.Helper()

	type postData struct {
		MimeType string `json:"mimeType,omitempty"`
		Text     string `json:"text,omitempty"`
	}
	type content struct {
		MimeType string `json:"mimeType,omitempty"`
		Text     string `json:"text,omitempty"`
	}
	type wireRequest struct {
		Method      string     `json:"method"`
		URL         string     `json:"url"`
		Headers     []wireNV   `json:"headers,omitempty"`
		QueryString []wireNV   `json:"queryString,omitempty"`
		PostData    *postData  `json:"postData,omitempty"`
	}
	type wireResponse struct {
		Status  int      `json:"status"`
		Headers []wireNV `json:"headers,omitempty"`
		Content content  `json:"content"`
	}
	type wireEntry struct {
		StartedDateTime string       `json:"startedDateTime"`
		Request         wireRequest  `json:"request"`
		Response        wireResponse `json:"response"`
	}
	type archive struct {
		Log struct {
			Entries []wireEntry `json:"entries"`
		} `json:"log"`
	}

	var a archive
	a.Log.Entries = []wireEntry{
		{
			StartedDateTime: "2026-01-01T00:00:00.000Z",
			Request: wireRequest{
				Method: "GET",
				URL:    "https://api.example.com/v1/public/ping",
			},
			Response: wireResponse{
				Status:  200,
				Content: content{MimeType: "application/json", Text: `{"ok":true}`},
			},
		},
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal fixture HAR: %v", err)
	}
	return raw
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(DefaultConfig(), config.Default(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.middlewareChain(mux(srv)).ServeHTTP(rec, req)
	return rec
}

func mux(srv *Server) http.Handler {
	m := http.NewServeMux()
	srv.registerRoutes(m)
	return m
}

func TestHandleCreateSession(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(createSessionRequest{HAR: buildHAR(t)})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected a session id in response")
	}
}

func TestHandleCreateSession_WrongMethod(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sessions", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleCreateSession_MalformedBody(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/sessions", []byte("not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleGetSession_FullLifecycle(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(createSessionRequest{HAR: buildHAR(t)})

	createRec := doRequest(t, srv, http.MethodPost, "/api/v1/sessions", body)
	var created sessionResponse
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	getRec := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want %d; body=%s", getRec.Code, http.StatusOK, getRec.Body.String())
	}

	selectRec := doRequest(t, srv, http.MethodPost, "/api/v1/sessions/"+created.ID+"/select-workflow", nil)
	if selectRec.Code != http.StatusOK {
		t.Fatalf("select-workflow status = %d, want %d; body=%s", selectRec.Code, http.StatusOK, selectRec.Body.String())
	}

	processRec := doRequest(t, srv, http.MethodPost, "/api/v1/sessions/"+created.ID+"/process", nil)
	if processRec.Code != http.StatusOK {
		t.Fatalf("process status = %d, want %d; body=%s", processRec.Code, http.StatusOK, processRec.Body.String())
	}

	genRec := doRequest(t, srv, http.MethodPost, "/api/v1/sessions/"+created.ID+"/generate", nil)
	if genRec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, want %d; body=%s", genRec.Code, http.StatusOK, genRec.Body.String())
	}
	if !bytes.Contains(genRec.Body.Bytes(), []byte("Code generated")) {
		t.Fatalf("expected generated code header, got: %s", genRec.Body.String())
	}
}

func TestHandleGetSession_NotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/sess_does_not_exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSplitSessionPath(t *testing.T) {
	tests := []struct {
		path       string
		wantID     string
		wantAction string
		wantOK     bool
	}{
		{"/api/v1/sessions/sess_1", "sess_1", "", true},
		{"/api/v1/sessions/sess_1/process", "sess_1", "process", true},
		{"/api/v1/sessions/", "", "", false},
		{"/api/v1/other", "", "", false},
	}
	for _, tt := range tests {
		id, action, ok := splitSessionPath(tt.path)
		if id != tt.wantID || action != tt.wantAction || ok != tt.wantOK {
			t.Errorf("splitSessionPath(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.path, id, action, ok, tt.wantID, tt.wantAction, tt.wantOK)
		}
	}
}
