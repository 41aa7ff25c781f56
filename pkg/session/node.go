package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harloom/harloom/pkg/classifier"
	"github.com/harloom/harloom/pkg/oracle"
	"github.com/harloom/harloom/pkg/request"
	"github.com/harloom/harloom/pkg/resolver"
	"github.com/harloom/harloom/pkg/types"
)

// processNode implements the per-node processing algorithm (spec.md §4.7):
// skip markup/script requests outright; otherwise compute dynamic parts,
// classify each, and resolve every non-input value to a graph edge (cookie,
// prior request, bootstrap origin, or a NotFound sentinel). Caller must hold
// s.mu; the node must already exist in the graph (it is added at enqueue time).
func (s *Session) processNode(ctx context.Context, consumerID string) (err error) {
	started := time.Now()
	node, ok := s.graph.GetNode(consumerID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrNodeNotFound, consumerID)
	}
	if s.telemetry != nil {
		defer func() {
			s.telemetry.RecordNodeProcessed(ctx, consumerID, node.Data.Kind(), time.Since(started), err == nil)
		}()
	}

	rd, ok := node.AsRequestData()
	if !ok {
		return nil
	}

	if rd.Request.IsJavaScriptOrHTML() {
		rd.Unresolved = map[string]struct{}{}
		return nil
	}

	nodeLog := s.logger.WithNodeID(consumerID).WithNodeKind(node.Data.Kind())
	literals, origins := s.extractDynamicParts(ctx, rd.Request)
	for _, lit := range literals {
		rd.Unresolved[lit] = struct{}{}
	}

	for _, lit := range literals {
		hasPrior := s.hasPriorProducer(consumerID, lit)
		kind, origin := s.classifier.Classify(lit, origins[lit], s.inputVariables, s.occurrence[lit], hasPrior)
		rd.Params[lit] = types.ClassifiedParam{Kind: kind, Origin: origin}
		nodeLog.WithFields(map[string]interface{}{"literal": lit, "kind": kind, "origin": origin}).Debug("classifier: decided literal kind")

		if kind == types.ValueKindInput {
			rd.Inputs[origin] = lit
			rd.Provided[lit] = struct{}{}
			continue
		}

		if err := s.resolveAndWire(ctx, consumerID, lit); err != nil {
			return err
		}
	}

	auth := s.classifier.ClassifyRequestAuth(rd.Request)
	rd.Auth = &auth
	return nil
}

// extractDynamicParts asks the oracle to identify the request's dynamic
// fragments, falling back to every validated literal scanOrigins observed,
// then applies the mandatory validation rule regardless of source: the
// literal must already be a scanned (validated) value and must actually
// appear, verbatim, in the request's canonical curl form (spec.md §4.6).
func (s *Session) extractDynamicParts(ctx context.Context, req request.Request) ([]string, map[string][]classifier.Origin) {
	order, origins := s.scanOrigins(req)

	prompt := fmt.Sprintf("Identify dynamic parts of %s %s likely to vary across invocations.", req.Method, req.URL)
	parts, _ := oracle.IdentifyDynamicParts(ctx, s.oracle, prompt, func() []string { return order })

	curl := req.CurlString()
	seen := map[string]bool{}
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if seen[p] {
			continue
		}
		if _, known := origins[p]; !known {
			continue
		}
		if !strings.Contains(curl, p) {
			continue
		}
		seen[p] = true
		filtered = append(filtered, p)
	}
	return filtered, origins
}

// hasPriorProducer reports whether the cookie store or any other captured
// request already produces literal (response body, response header, or
// Set-Cookie), disqualifying it from session-constant classification.
func (s *Session) hasPriorProducer(consumerID, literal string) bool {
	_, err := s.resolver.Resolve(literal, s.cookies, s.providerCandidates(consumerID))
	return err == nil
}

// providerCandidates builds the full set of captured requests eligible to
// source consumerID's literals: every other captured request, in original
// HAR order, keyed by its pre-allocated node id.
func (s *Session) providerCandidates(consumerID string) []resolver.ProviderCandidate {
	out := make([]resolver.ProviderCandidate, 0, len(s.requests))
	for i, r := range s.requests {
		id := s.requestNodeIDs[r.Identity()]
		if id == consumerID {
			continue
		}
		out = append(out, resolver.ProviderCandidate{NodeID: id, Request: r, InsertionOrder: i})
	}
	return out
}

// resolveAndWire resolves literal to a source (cookie/request/bootstrap) and
// wires the corresponding Dependency Graph node and edge, or inserts a
// NotFound sentinel if no source exists anywhere.
func (s *Session) resolveAndWire(ctx context.Context, consumerID, literal string) error {
	started := time.Now()
	resolveLog := s.logger.WithNodeID(consumerID).WithField("literal", literal)
	src, err := s.resolver.Resolve(literal, s.cookies, s.providerCandidates(consumerID))
	if err != nil {
		resolveLog.Debug("resolver: no prior-response source, attempting bootstrap search")
		bsrc, ok := s.resolver.BootstrapSearch(literal, s.htmlCandidates, s.occurrence[literal], s.earliestNodeID(literal))
		if !ok {
			resolveLog.Debug("resolver: no source found anywhere, wiring not-found sentinel")
			if s.telemetry != nil {
				s.telemetry.RecordResolverLookup(ctx, "not_found", false, time.Since(started))
			}
			nfID := s.notFoundNodeFor(literal)
			_, err := s.graph.AddEdge(consumerID, nfID, literal)
			return err
		}
		src = bsrc
	}
	resolveLog.WithField("source_kind", src.Kind).Debug("resolver: literal resolved")
	if s.telemetry != nil {
		s.telemetry.RecordResolverLookup(ctx, string(src.Kind), true, time.Since(started))
	}

	markProvided := func() error {
		return s.graph.UpdateNode(consumerID, func(d types.NodeData) {
			if p := d.ProvidedValues(); p != nil {
				p[literal] = struct{}{}
			}
		})
	}

	switch src.Kind {
	case resolver.SourceKindCookie, resolver.SourceKindBootstrapCookie:
		cookieID := s.cookieNodeFor(src.CookieName)
		if _, err := s.graph.AddEdge(consumerID, cookieID, literal); err != nil {
			return err
		}
		return markProvided()

	case resolver.SourceKindResponseBody, resolver.SourceKindResponseHeader, resolver.SourceKindSetCookie, resolver.SourceKindBootstrapHTML, resolver.SourceKindBootstrapSynthetic:
		providerID := src.ProviderNodeID
		if _, exists := s.graph.GetNode(providerID); !exists {
			req, known := s.requestsByID[providerID]
			if !known {
				return fmt.Errorf("%w: provider %s", types.ErrNodeNotFound, providerID)
			}
			if _, err := s.graph.AddNode(providerID, types.NewRequestData(req)); err != nil {
				return err
			}
			s.queue = append(s.queue, providerID)
		}
		if _, err := s.graph.AddEdge(consumerID, providerID, literal); err != nil {
			return err
		}
		return markProvided()
	}

	return fmt.Errorf("session: unhandled resolver source kind %q", src.Kind)
}

func (s *Session) cookieNodeFor(name string) string {
	if id, ok := s.cookieNodeIDs[name]; ok {
		return id
	}
	value := ""
	if c, ok := s.cookies[name]; ok {
		value = c.Value
	}
	id, _ := s.graph.AddNode("", types.NewCookieData(name, value))
	s.cookieNodeIDs[name] = id
	return id
}

func (s *Session) notFoundNodeFor(literal string) string {
	if id, ok := s.notFoundNodeIDs[literal]; ok {
		return id
	}
	id, _ := s.graph.AddNode("", &types.NotFoundData{Literal: literal})
	s.notFoundNodeIDs[literal] = id
	return id
}

// earliestNodeID returns the node id of the earliest captured request that
// actually references literal (spec.md §4.3/§8: a synthetic bootstrap source
// attaches to the origin of the earliest *using* request, not the earliest
// request in the archive). Falls back to the first captured request only if
// indexLiterals never saw the literal at all.
func (s *Session) earliestNodeID(literal string) string {
	if len(s.requests) == 0 {
		return ""
	}
	if i, ok := s.earliestIndex[literal]; ok {
		return s.requestNodeIDs[s.requests[i].Identity()]
	}
	return s.requestNodeIDs[s.requests[0].Identity()]
}
