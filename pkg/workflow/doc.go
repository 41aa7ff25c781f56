// Package workflow implements the Workflow Discoverer (spec.md §4.5): it
// groups captured requests into semantically coherent workflows using
// URL/keyword heuristics, picks each workflow's primary endpoint (master
// node), assigns a priority/complexity score, and auto-selects a primary
// workflow by (priority desc, complexity asc, id asc) when the user hasn't
// chosen one.
package workflow
