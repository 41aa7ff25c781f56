// Package config centralizes configuration for the HAR analysis pipeline:
// resolver scoring weights, classifier thresholds, HAR quality heuristics,
// and orchestrator resource limits.
//
// # Basic usage
//
//	cfg := config.Default()
//	cfg.SessionConstantThreshold = 5 // override the Open Question default
//
// Default returns secure, production-ready values. Strict tightens limits
// for analyzing HARs captured from untrusted sources; Lenient relaxes them
// for local, trusted captures.
package config
