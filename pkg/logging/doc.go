// Package logging provides structured logging capabilities for the HAR analysis pipeline.
//
// # Overview
//
// The logging package wraps log/slog with leveled logging, JSON or text
// output, and helpers that attach session, workflow and node fields to every
// entry written through a derived logger.
//
// # Features
//
//   - Structured logging: JSON and text formats
//   - Log levels: DEBUG, INFO, WARN, ERROR
//   - Scoped fields: session ID, workflow ID, node ID, node kind
//   - Context propagation: store a logger in a context.Context and retrieve it
//   - Thread-safe: Safe for concurrent use
//   - Flexible output: Write to any io.Writer
//
// # Log Levels
//
// The package supports standard log levels:
//
//   - DEBUG: Detailed diagnostic information
//   - INFO: General informational messages
//   - WARN: Warning messages for potential issues
//   - ERROR: Error messages for failures
//
// # Basic Usage
//
//	import "github.com/harloom/harloom/pkg/logging"
//
//	// Create logger
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	// Log messages
//	logger.Info("session started")
//	logger.WithError(err).Error("node processing failed")
//
// # Context Integration
//
// A logger can be stored in a context and retrieved further down the call
// chain; FromContext returns a new default logger when the context holds none:
//
//	ctx = logger.WithContext(ctx)
//	logging.FromContext(ctx).Info("node processed")
//
// # Structured Fields
//
// Fields are attached by deriving a new logger; the original is unchanged:
//
//	logger.WithFields(map[string]interface{}{
//	    "method": "GET",
//	    "url":    "https://api.example.com",
//	    "status": 200,
//	}).Info("provider found")
//
// # Output Formats
//
// JSON format (Pretty: false, the default):
//
//	{"time":"2024-01-15T10:30:00.000Z","level":"INFO","msg":"session started","session_id":"sess_123","workflow_id":"wf-123"}
//
// Text format (Pretty: true):
//
//	time=2024-01-15T10:30:00.000Z level=INFO msg="session started" session_id=sess_123 workflow_id=wf-123
//
// # Configuration
//
// Logger configuration options:
//
//	config := logging.Config{
//	    Level:         "debug",   // debug, info, warn/warning or error; anything else means info
//	    Output:        os.Stdout, // Where to write logs (nil means os.Stdout)
//	    Pretty:        false,     // true selects the text handler instead of JSON
//	    IncludeCaller: true,      // Include file:line
//	}
//
// # Common Logging Patterns
//
// Session and node processing:
//
//	logger.WithSessionID(sessionID).WithWorkflowID(workflowID).Info("workflow selected")
//	logger.WithNodeID(nodeID).WithNodeKind(types.NodeKindRequest).Debug("node classified")
//
// Formatted messages:
//
//	logger.Debugf("resolved %d of %d values", resolved, total)
//
// # Best Practices
//
//   - Use structured fields instead of string formatting
//   - Include execution context (workflow_id, node_id, etc.)
//   - Log at appropriate levels (avoid debug in production)
//   - Add timing information for performance analysis
//   - Include error context (not just error message)
//   - Use consistent field names across the codebase
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently
// from multiple goroutines without additional synchronization.
//
// # Testing
//
// For testing, use a logger with a buffer:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{
//	    Level:  "debug",
//	    Output: buf,
//	})
//
//	// Execute code, then check that buf.String() contains the expected message
package logging
