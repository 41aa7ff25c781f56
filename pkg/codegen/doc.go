// Package codegen provides a reference implementation of the session
// package's CodeGenerator collaborator (spec.md §6 "Outputs at
// codeGenerated"): it renders a complete Dependency Graph into a readable Go
// snippet that lists the declared input variables and prints one line per
// request node, in graph insertion order, with that node's dependencies noted
// as comments. A real deployment is free to swap this for
// any other renderer; the orchestrator only depends on the CodeGenerator
// interface.
package codegen
