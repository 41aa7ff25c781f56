// Package session implements the orchestrator: a cooperative, single
// threaded state machine that drives a captured HAR archive through
// parsing, workflow discovery, dependency-graph construction, and finally
// code generation (spec.md §4.7, §5, §9). A Session owns a Resolver,
// Classifier, Workflow Discoverer, and Dependency Graph, and advances
// through one caller-driven tick at a time: there is no background
// goroutine, matching spec.md §9's "global mutable state, single active
// writer" concurrency model.
package session
