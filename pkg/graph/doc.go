// Package graph implements the Dependency Graph (spec.md §3, §4.2): a
// labeled, node-typed DAG over request/cookie/sentinel/master nodes with
// transactional, cycle-preventing edge insertion, Kahn's-algorithm
// topological sort with deterministic tie-breaking, and the completeness
// check that gates code generation.
//
// Acyclicity is enforced at the edge-insertion call site (AddEdge), never
// repaired after the fact: a rejected edge leaves the graph exactly as it
// was before the call (spec.md §9 "Cyclic graph concerns").
package graph
