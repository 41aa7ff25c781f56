package har

import (
	"encoding/json"
	"fmt"

	"github.com/harloom/harloom/pkg/request"
)

// wireCookieEntry is one entry in the cookie file's key/value map
// (spec.md §6: "Key/value map of cookies with optional attributes").
type wireCookieEntry struct {
	Value  string            `json:"value"`
	Domain string            `json:"domain,omitempty"`
	Path   string            `json:"path,omitempty"`
	Flags  map[string]string `json:"flags,omitempty"`
}

// ParseCookieFile decodes the session's cookie file into a request.Store.
// Each top-level JSON key is a cookie name; its value may be either a bare
// string (just the cookie value) or an object carrying domain/path/flags.
func ParseCookieFile(raw []byte) (request.Store, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCookieFileMalformed, err)
	}

	store := make(request.Store, len(generic))
	for name, msg := range generic {
		var asString string
		if err := json.Unmarshal(msg, &asString); err == nil {
			store[name] = request.Cookie{Name: name, Value: asString}
			continue
		}

		var entry wireCookieEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			return nil, fmt.Errorf("%w: cookie %q: %v", ErrCookieFileMalformed, name, err)
		}
		store[name] = request.Cookie{Name: name, Value: entry.Value, Domain: entry.Domain, Path: entry.Path, Flags: entry.Flags}
	}
	return store, nil
}
