package har

import (
	"testing"

	"github.com/harloom/harloom/pkg/config"
)

const sampleHAR = `{
  "log": {
    "entries": [
      {
        "startedDateTime": "2026-01-01T00:00:01Z",
        "request": {
          "method": "GET",
          "url": "https://x/search?q=shoe",
          "headers": [{"name":"Accept","value":"application/json"}],
          "queryString": [{"name":"q","value":"shoe"}]
        },
        "response": {
          "status": 200,
          "statusText": "OK",
          "headers": [{"name":"Content-Type","value":"application/json"}],
          "content": {"mimeType":"application/json","text":"{\"results\":[]}"}
        }
      },
      {
        "startedDateTime": "2026-01-01T00:00:00Z",
        "request": {
          "method": "OPTIONS",
          "url": "https://x/search"
        },
        "response": {"status": 204}
      },
      {
        "startedDateTime": "2026-01-01T00:00:02Z",
        "request": {
          "method": "GET",
          "url": "https://analytics.google-analytics.com/collect"
        },
        "response": {"status": 200}
      }
    ]
  }
}`

func TestParse_OrdersByTimestamp(t *testing.T) {
	requests, _, err := Parse([]byte(sampleHAR), config.Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(requests) != 3 {
		t.Fatalf("Parse() returned %d requests, want 3", len(requests))
	}
	if requests[0].Method != "OPTIONS" {
		t.Fatalf("requests[0].Method = %q, want OPTIONS (earliest timestamp)", requests[0].Method)
	}
}

func TestParse_MeaningfulExcludesOptionsAndTracking(t *testing.T) {
	_, summary, err := Parse([]byte(sampleHAR), config.Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if summary.TotalRequestCount != 3 {
		t.Fatalf("TotalRequestCount = %d, want 3", summary.TotalRequestCount)
	}
	if summary.MeaningfulRequestCount != 1 {
		t.Fatalf("MeaningfulRequestCount = %d, want 1 (OPTIONS and tracking host excluded)", summary.MeaningfulRequestCount)
	}
	if summary.Quality != QualityGood {
		t.Fatalf("Quality = %v, want good", summary.Quality)
	}
}

func TestParse_EmptyArchive(t *testing.T) {
	_, summary, err := Parse([]byte(`{"log":{"entries":[]}}`), config.Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if summary.Quality != QualityEmpty {
		t.Fatalf("Quality = %v, want empty", summary.Quality)
	}
}

func TestParse_PoorQualityWhenNoMeaningfulRequests(t *testing.T) {
	raw := `{"log":{"entries":[{"startedDateTime":"2026-01-01T00:00:00Z","request":{"method":"OPTIONS","url":"https://x/a"},"response":{"status":204}}]}}`
	_, summary, err := Parse([]byte(raw), config.Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if summary.Quality != QualityPoor {
		t.Fatalf("Quality = %v, want poor", summary.Quality)
	}
}

func TestParse_MalformedArchive(t *testing.T) {
	_, _, err := Parse([]byte(`not json`), config.Default())
	if err == nil {
		t.Fatalf("Parse() error = nil, want ErrMalformed")
	}
}

func TestParse_Base64ResponseBody(t *testing.T) {
	raw := `{"log":{"entries":[{"startedDateTime":"2026-01-01T00:00:00Z","request":{"method":"GET","url":"https://x/img"},"response":{"status":200,"content":{"mimeType":"image/png","text":"aGVsbG8=","encoding":"base64"}}}]}}`
	requests, _, err := Parse([]byte(raw), config.Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if requests[0].Response.BodyText() != "hello" {
		t.Fatalf("decoded body = %q, want hello", requests[0].Response.BodyText())
	}
}

func TestParseCookieFile_BareStringValues(t *testing.T) {
	store, err := ParseCookieFile([]byte(`{"session":"sess-abc"}`))
	if err != nil {
		t.Fatalf("ParseCookieFile() error = %v", err)
	}
	if store["session"].Value != "sess-abc" {
		t.Fatalf("store[session].Value = %q, want sess-abc", store["session"].Value)
	}
}

func TestParseCookieFile_ObjectValues(t *testing.T) {
	store, err := ParseCookieFile([]byte(`{"session":{"value":"sess-abc","domain":"x.com"}}`))
	if err != nil {
		t.Fatalf("ParseCookieFile() error = %v", err)
	}
	if store["session"].Value != "sess-abc" || store["session"].Domain != "x.com" {
		t.Fatalf("store[session] = %+v, want value=sess-abc domain=x.com", store["session"])
	}
}

func TestParseCookieFile_Malformed(t *testing.T) {
	_, err := ParseCookieFile([]byte(`not json`))
	if err == nil {
		t.Fatalf("ParseCookieFile() error = nil, want ErrCookieFileMalformed")
	}
}
