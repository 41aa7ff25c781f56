package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/harloom/harloom/pkg/types"
)

// DependencyGraph is a directed, acyclic, node-typed graph over
// request/cookie/not_found/master nodes. Edges point consumer -> provider
// ("needs a value from"), so for execution/code-generation purposes a
// provider must appear before its consumers in topological order.
//
// All mutating operations prove acyclicity before committing (AddEdge); the
// graph is never repaired after the fact.
type DependencyGraph struct {
	mu sync.RWMutex

	nodes    []types.Node   // insertion order, authoritative
	index    map[string]int // node id -> position in nodes
	edges    []types.Edge
	edgeByID map[string]int
}

// New creates an empty DependencyGraph.
func New() *DependencyGraph {
	return &DependencyGraph{
		index:    map[string]int{},
		edgeByID: map[string]int{},
	}
}

// AddNode inserts a new node. If id is empty, one is generated. Returns
// ErrDuplicateNodeID if id is already present.
func (g *DependencyGraph) AddNode(id string, data types.NodeData) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id == "" {
		id = types.GenerateID("node")
	}
	if _, exists := g.index[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
	}

	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, types.Node{ID: id, Data: data})
	return id, nil
}

// UpdateNode applies mutate to the node's data in place. mutate receives the
// live NodeData pointer (RequestData/MasterData/CookieData/NotFoundData are
// all pointer-backed), so field changes are visible immediately.
func (g *DependencyGraph) UpdateNode(id string, mutate func(types.NodeData)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	mutate(g.nodes[pos].Data)
	return nil
}

// GetNode returns a copy of the node envelope (the Data pointer itself is
// shared, so mutations through it are still visible to the graph).
func (g *DependencyGraph) GetNode(id string) (types.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	pos, ok := g.index[id]
	if !ok {
		return types.Node{}, false
	}
	return g.nodes[pos], true
}

// GetAllNodes returns all nodes in insertion order.
func (g *DependencyGraph) GetAllNodes() []types.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]types.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// FindNodeByRequest looks up an existing request/master node whose captured
// request has the same (method, url, body hash) identity, implementing the
// "two requests are the same node" rule from spec.md §3.
func (g *DependencyGraph) FindNodeByRequest(identity string) (types.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, n := range g.nodes {
		if rd, ok := n.AsRequestData(); ok && rd.Request.Identity() == identity {
			return n, true
		}
	}
	return types.Node{}, false
}

// AddEdge transactionally inserts a consumer->provider edge. Before adding
// anything it checks whether the provider can already reach the consumer
// through existing edges (which, combined with the new edge, would form a
// cycle), and aborts without committing anything if so.
func (g *DependencyGraph) AddEdge(consumer, provider, label string) (types.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.index[consumer]; !ok {
		return types.Edge{}, fmt.Errorf("%w: consumer %s", ErrNodeNotFound, consumer)
	}
	if _, ok := g.index[provider]; !ok {
		return types.Edge{}, fmt.Errorf("%w: provider %s", ErrNodeNotFound, provider)
	}

	// Cycle check against the PRE-insertion edge set: if the provider can
	// already reach the consumer by following existing consumer->provider
	// edges, adding consumer->provider now closes a cycle. Nothing is
	// committed before this check passes.
	if g.reachableLocked(provider, consumer) {
		return types.Edge{}, fmt.Errorf("%w: %s -> %s", ErrCircularDependency, consumer, provider)
	}

	edge := types.Edge{ID: types.GenerateID("edge"), Source: consumer, Target: provider, Label: label}
	g.edgeByID[edge.ID] = len(g.edges)
	g.edges = append(g.edges, edge)
	return edge, nil
}

// reachableLocked reports whether goal is reachable from start by following
// existing edges' Source->Target direction. Caller must hold g.mu.
func (g *DependencyGraph) reachableLocked(start, goal string) bool {
	if start == goal {
		return true
	}
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.edges {
			if e.Source != current || visited[e.Target] {
				continue
			}
			if e.Target == goal {
				return true
			}
			visited[e.Target] = true
			queue = append(queue, e.Target)
		}
	}
	return false
}

// Predecessors returns the provider nodes id directly depends on (edges
// where id is the consumer/Source).
func (g *DependencyGraph) Predecessors(id string) []types.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []types.Node
	for _, e := range g.edges {
		if e.Source == id {
			if pos, ok := g.index[e.Target]; ok {
				out = append(out, g.nodes[pos])
			}
		}
	}
	return out
}

// Successors returns the consumer nodes that depend on id (edges where id
// is the provider/Target).
func (g *DependencyGraph) Successors(id string) []types.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []types.Node
	for _, e := range g.edges {
		if e.Target == id {
			if pos, ok := g.index[e.Source]; ok {
				out = append(out, g.nodes[pos])
			}
		}
	}
	return out
}

// EdgeLabelsInto returns the set of labels on edges where id is the provider
// (Target): the literals this node supplies to its consumers. This is not
// the node's own ProvidedValues set, which records its own satisfied literals.
func (g *DependencyGraph) EdgeLabelsInto(id string) map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()

	labels := map[string]struct{}{}
	for _, e := range g.edges {
		if e.Target == id && e.Label != "" {
			labels[e.Label] = struct{}{}
		}
	}
	return labels
}

// TopologicalSort orders node ids so that every provider appears before its
// consumers, using Kahn's algorithm over the "needs" relation (a node's
// needs-count is its number of outgoing consumer->provider edges). Ties
// among ready nodes are broken deterministically by (kind priority desc,
// insertion order asc), per spec.md §4.2.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	needs := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		needs[n.ID] = 0
	}
	for _, e := range g.edges {
		needs[e.Source]++
		dependents[e.Target] = append(dependents[e.Target], e.Source)
	}

	ready := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		if needs[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}
	g.sortReadyLocked(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		var newlyReady []string
		for _, dependent := range dependents[current] {
			needs[dependent]--
			if needs[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		g.sortReadyLocked(newlyReady)
		ready = append(ready, newlyReady...)
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCircularDependency
	}
	return order, nil
}

// sortReadyLocked orders a batch of newly-ready node ids by
// (kind priority desc, insertion order asc). Caller must hold g.mu (for read).
func (g *DependencyGraph) sortReadyLocked(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		ni, _ := g.nodeLocked(ids[i])
		nj, _ := g.nodeLocked(ids[j])
		pi, pj := types.KindPriority(ni.Kind()), types.KindPriority(nj.Kind())
		if pi != pj {
			return pi > pj
		}
		return g.index[ids[i]] < g.index[ids[j]]
	})
}

func (g *DependencyGraph) nodeLocked(id string) (types.Node, bool) {
	pos, ok := g.index[id]
	if !ok {
		return types.Node{}, false
	}
	return g.nodes[pos], true
}

// DetectCycles reports a non-nil error iff the graph currently contains a cycle.
func (g *DependencyGraph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}

// GetUnresolvedNodes returns, for every request/master node whose unresolved
// values are not fully covered by its own Provided set, the node id and its
// residual (still-unresolved) literal set.
func (g *DependencyGraph) GetUnresolvedNodes() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := map[string][]string{}
	for _, n := range g.nodes {
		rd, ok := n.AsRequestData()
		if !ok {
			continue
		}
		var residual []string
		for v := range rd.Unresolved {
			if _, covered := rd.Provided[v]; !covered {
				residual = append(residual, v)
			}
		}
		if len(residual) > 0 {
			sort.Strings(residual)
			result[n.ID] = residual
		}
	}
	return result
}

// IsComplete reports whether every request/master node's unresolved values
// are covered by its own Provided set and no NotFound sentinel exists
// (spec.md §4.2).
func (g *DependencyGraph) IsComplete() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, n := range g.nodes {
		if n.Kind() == types.NodeKindNotFound {
			return false
		}
		if rd, ok := n.AsRequestData(); ok && !rd.IsResolved() {
			return false
		}
	}
	return true
}

// MasterNode returns the single master node in the graph, if any.
func (g *DependencyGraph) MasterNode() (types.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, n := range g.nodes {
		if n.Kind() == types.NodeKindMaster {
			return n, true
		}
	}
	return types.Node{}, false
}

// ToJSON serializes the full node and edge set, suitable for the external
// code generator input (spec.md §6 "Outputs at codeGenerated").
func (g *DependencyGraph) ToJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	payload := struct {
		Nodes []types.Node `json:"nodes"`
		Edges []types.Edge `json:"edges"`
	}{Nodes: g.nodes, Edges: g.edges}

	return json.MarshalIndent(payload, "", "  ")
}
