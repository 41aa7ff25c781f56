// Package request provides the normalized Request Model: a single captured
// request/response pair plus the derived fields the rest of the analysis
// pipeline searches over (canonical curl string, case-insensitive header and
// query lookup, content-type sniffing, and the is-javascript-or-html
// provider exclusion predicate).
//
// This is the leaf-most component of the pipeline (see SPEC_FULL.md §2):
// it has no dependency on the graph, resolver, classifier, workflow, or
// session packages, so any of them may depend on it without risk of an
// import cycle.
package request
