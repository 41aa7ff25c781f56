package types

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/harloom/harloom/pkg/request"
)

// wireNode is the envelope used for Node's tagged-union JSON representation.
// The "kind" discriminator selects which concrete NodeData type "data"
// decodes into; an unrecognized kind fails fast (SPEC_FULL §9: "unknown
// enum values must fail fast").
type wireNode struct {
	ID   string          `json:"id"`
	Kind NodeKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type wireRequestData struct {
	Request    request.Request            `json:"request"`
	Unresolved []string                   `json:"unresolved_values,omitempty"`
	Provided   []string                   `json:"provided_values,omitempty"`
	Inputs     map[string]string          `json:"inputs,omitempty"`
	Params     map[string]ClassifiedParam `json:"params,omitempty"`
	Auth       *AuthAnalysis              `json:"auth,omitempty"`
	WorkflowID string                     `json:"workflow_id,omitempty"` // only set for master nodes
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// MarshalJSON implements the tagged-union wire format for Node.
func (n Node) MarshalJSON() ([]byte, error) {
	var payload interface{}

	switch d := n.Data.(type) {
	case *RequestData:
		payload = wireRequestData{
			Request:    d.Request,
			Unresolved: sortedKeys(d.Unresolved),
			Provided:   sortedKeys(d.Provided),
			Inputs:     d.Inputs,
			Params:     d.Params,
			Auth:       d.Auth,
		}
	case *MasterData:
		payload = wireRequestData{
			Request:    d.Request,
			Unresolved: sortedKeys(d.Unresolved),
			Provided:   sortedKeys(d.Provided),
			Inputs:     d.Inputs,
			Params:     d.Params,
			Auth:       d.Auth,
			WorkflowID: d.WorkflowID,
		}
	case *CookieData:
		payload = struct {
			CookieName    string   `json:"cookie_name"`
			CapturedValue string   `json:"captured_value"`
			Provided      []string `json:"provided_values,omitempty"`
		}{d.CookieName, d.CapturedValue, sortedKeys(d.Provided)}
	case *NotFoundData:
		payload = d
	default:
		return nil, fmt.Errorf("types: node %q has unmarshalable data type %T", n.ID, n.Data)
	}

	dataJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("types: marshal node %q data: %w", n.ID, err)
	}

	return json.Marshal(wireNode{ID: n.ID, Kind: n.Kind(), Data: dataJSON})
}

// UnmarshalJSON implements the tagged-union decode for Node, failing fast on
// any kind value outside the closed NodeKind enumeration.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("types: unmarshal node envelope: %w", err)
	}

	n.ID = w.ID

	switch w.Kind {
	case NodeKindRequest, NodeKindMaster:
		var wd wireRequestData
		if err := json.Unmarshal(w.Data, &wd); err != nil {
			return fmt.Errorf("types: unmarshal node %q data: %w", w.ID, err)
		}
		rd := &RequestData{
			Request:    wd.Request,
			Unresolved: toSet(wd.Unresolved),
			Provided:   toSet(wd.Provided),
			Inputs:     wd.Inputs,
			Params:     wd.Params,
			Auth:       wd.Auth,
		}
		if rd.Inputs == nil {
			rd.Inputs = map[string]string{}
		}
		if rd.Params == nil {
			rd.Params = map[string]ClassifiedParam{}
		}
		if w.Kind == NodeKindMaster {
			n.Data = &MasterData{RequestData: rd, WorkflowID: wd.WorkflowID}
		} else {
			n.Data = rd
		}
	case NodeKindCookie:
		var cd struct {
			CookieName    string   `json:"cookie_name"`
			CapturedValue string   `json:"captured_value"`
			Provided      []string `json:"provided_values,omitempty"`
		}
		if err := json.Unmarshal(w.Data, &cd); err != nil {
			return fmt.Errorf("types: unmarshal node %q data: %w", w.ID, err)
		}
		n.Data = &CookieData{CookieName: cd.CookieName, CapturedValue: cd.CapturedValue, Provided: toSet(cd.Provided)}
	case NodeKindNotFound:
		var nd NotFoundData
		if err := json.Unmarshal(w.Data, &nd); err != nil {
			return fmt.Errorf("types: unmarshal node %q data: %w", w.ID, err)
		}
		n.Data = &nd
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeKind, w.Kind)
	}

	return nil
}
