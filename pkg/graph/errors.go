package graph

import "errors"

var (
	// ErrCircularDependency is returned by AddEdge when committing the edge
	// would create a cycle. The edge is never committed.
	ErrCircularDependency = errors.New("graph: adding this edge would create a circular dependency")
	// ErrNodeNotFound is returned when an operation references an id absent from the graph.
	ErrNodeNotFound = errors.New("graph: node not found")
	// ErrDuplicateNodeID is returned by AddNode when the id already exists.
	ErrDuplicateNodeID = errors.New("graph: duplicate node id")
)
