// Package classifier implements the Classifier (spec.md §4.4): given a
// consumer request node's candidate unknown values, it partitions each into
// input variable, authentication token, session constant, or dependency
// (the residual set handed to the Resolver), and separately determines
// whether a request is public (no authentication required).
//
// Auth-related parameter-name matching is expressed as compiled expr-lang
// programs, mirroring the rule-evaluation idiom used elsewhere in this
// module for conditional logic, rather than hand-rolled substring loops.
package classifier
