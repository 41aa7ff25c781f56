package har

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/request"
)

// Quality is the HAR validation summary's overall assessment.
type Quality string

const (
	QualityGood  Quality = "good"
	QualityPoor  Quality = "poor"
	QualityEmpty Quality = "empty"
)

// Summary is the Parser's validation output alongside the Request Model
// list (spec.md §6).
type Summary struct {
	Quality                Quality
	MeaningfulRequestCount int
	TotalRequestCount      int
	Issues                 []string
	Recommendations        []string
}

// wire types mirror the canonical HAR JSON shape (log.entries[].request/response).
type wireArchive struct {
	Log wireLog `json:"log"`
}

type wireLog struct {
	Entries []wireEntry `json:"entries"`
}

type wireEntry struct {
	StartedDateTime string       `json:"startedDateTime"`
	Request         wireRequest  `json:"request"`
	Response        wireResponse `json:"response"`
}

type wireNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type wirePostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type wireRequest struct {
	Method      string          `json:"method"`
	URL         string          `json:"url"`
	Headers     []wireNameValue `json:"headers"`
	QueryString []wireNameValue `json:"queryString"`
	PostData    *wirePostData   `json:"postData"`
}

type wireContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding"`
}

type wireResponse struct {
	Status     int             `json:"status"`
	StatusText string          `json:"statusText"`
	Headers    []wireNameValue `json:"headers"`
	Content    wireContent     `json:"content"`
}

// Parse decodes a HAR archive into the Request Model plus a validation
// summary. It never returns an error for a structurally valid but empty
// archive; callers check Summary.Quality == QualityEmpty for the fatal
// HAR_EMPTY condition themselves (spec.md §7: HAR empty is fatal, but the
// orchestrator — not the parser — owns transitioning the session to failed).
func Parse(raw []byte, cfg *config.Config) ([]request.Request, Summary, error) {
	var archive wireArchive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return nil, Summary{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	entries := make([]wireEntry, len(archive.Log.Entries))
	copy(entries, archive.Log.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartedDateTime < entries[j].StartedDateTime
	})

	requests := make([]request.Request, 0, len(entries))
	meaningful := 0
	for _, e := range entries {
		req := toRequest(e)
		requests = append(requests, req)
		if isMeaningful(req, cfg) {
			meaningful++
		}
	}

	summary := Summary{
		TotalRequestCount:      len(requests),
		MeaningfulRequestCount: meaningful,
	}

	switch {
	case summary.TotalRequestCount == 0:
		summary.Quality = QualityEmpty
		summary.Issues = append(summary.Issues, "archive contains no request entries")
		summary.Recommendations = append(summary.Recommendations, "capture a HAR file while performing the target action")
	case summary.MeaningfulRequestCount == 0:
		summary.Quality = QualityPoor
		summary.Issues = append(summary.Issues, "no meaningful requests found after excluding OPTIONS, favicon, and tracking hosts")
		summary.Recommendations = append(summary.Recommendations, "re-capture with the target action actually performed")
	default:
		summary.Quality = QualityGood
	}

	return requests, summary, nil
}

func toRequest(e wireEntry) request.Request {
	req := request.Request{
		Method:  e.Request.Method,
		URL:     e.Request.URL,
		Headers: toHeaders(e.Request.Headers),
		Query:   toQuery(e.Request.QueryString),
	}
	if e.Request.PostData != nil {
		req.Body = &request.Body{Raw: []byte(e.Request.PostData.Text), ContentType: e.Request.PostData.MimeType}
	}
	if t, err := time.Parse(time.RFC3339, e.StartedDateTime); err == nil {
		req.Timestamp = &t
	}

	body := decodeContent(e.Response.Content)
	req.Response = &request.Response{
		Status:     e.Response.Status,
		StatusText: e.Response.StatusText,
		Headers:    toHeaders(e.Response.Headers),
		Body:       body,
	}
	return req
}

func decodeContent(c wireContent) *request.Body {
	raw := []byte(c.Text)
	if strings.EqualFold(c.Encoding, "base64") {
		if decoded, err := base64.StdEncoding.DecodeString(c.Text); err == nil {
			raw = decoded
		}
	}
	return &request.Body{Raw: raw, ContentType: c.MimeType}
}

func toHeaders(in []wireNameValue) request.HeaderMap {
	out := make(request.HeaderMap, len(in))
	for i, h := range in {
		out[i] = request.Header{Name: h.Name, Value: h.Value}
	}
	return out
}

func toQuery(in []wireNameValue) request.QueryMap {
	out := make(request.QueryMap, len(in))
	for i, q := range in {
		out[i] = request.QueryParam{Name: q.Name, Value: q.Value}
	}
	return out
}

// isMeaningful excludes OPTIONS, favicon, and analytics/tracking hosts from
// the meaningful-request count (spec.md §6).
func isMeaningful(req request.Request, cfg *config.Config) bool {
	if strings.EqualFold(req.Method, "OPTIONS") {
		return false
	}
	if strings.Contains(strings.ToLower(req.URL), "favicon") {
		return false
	}
	host := hostOf(req.URL)
	for _, tracking := range cfg.TrackingHostSubstrings {
		if strings.Contains(host, strings.ToLower(tracking)) {
			return false
		}
	}
	return true
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Host)
}
