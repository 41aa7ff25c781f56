// Package server provides an HTTP API over the session orchestrator. It
// enables programmatic, multi-request access to dependency-graph analysis
// with support for:
//   - Session lifecycle endpoints (create, select workflow, process, generate)
//   - Health check and readiness endpoints
//   - Prometheus metrics endpoint
//   - Request/response logging
//   - Graceful shutdown
package server
