// Package types provides the shared data structures used across the HAR
// analysis pipeline: the dependency-graph node/edge union, the Workflow
// record, the value-classification vocabulary, and the wire-visible error
// taxonomy. It depends only on pkg/request, never on pkg/graph, pkg/resolver,
// pkg/classifier, pkg/workflow, pkg/oracle, or pkg/session — this keeps it a
// leaf every other package can safely import.
package types
