package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harloom/harloom/pkg/codegen"
	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/health"
	"github.com/harloom/harloom/pkg/logging"
	"github.com/harloom/harloom/pkg/oracle"
	"github.com/harloom/harloom/pkg/session"
	"github.com/harloom/harloom/pkg/storage"
	"github.com/harloom/harloom/pkg/telemetry"
	"github.com/harloom/harloom/pkg/types"
)

// Config holds server configuration
type Config struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// ShutdownTimeout for graceful shutdown
	ShutdownTimeout time.Duration

	// MaxRequestBodySize limits request body size
	MaxRequestBodySize int64

	// EnableCORS enables CORS headers
	EnableCORS bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 20 * 1024 * 1024, // 20MB, HAR captures run large
		EnableCORS:         true,
	}
}

// Server is the HTTP API that exposes the session orchestrator: one
// analysis session per captured HAR, addressed by the id New hands back.
type Server struct {
	config            Config
	httpServer        *http.Server
	healthChecker     *health.Checker
	telemetryProvider *telemetry.Provider
	logger            *logging.Logger
	sessionConfig     *config.Config
	oracle            oracle.Oracle
	sessions          storage.Registry
	codegen           session.CodeGenerator
}

// New creates a new server instance. sessionConfig and o are passed straight
// through to every session.New call; o defaults to oracle.NopOracle{} there
// when nil.
func New(cfg Config, sessionConfig *config.Config, o oracle.Oracle) (*Server, error) {
	logger := logging.New(logging.DefaultConfig())

	telemetryConfig := telemetry.DefaultConfig()
	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetryConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}

	healthChecker := health.NewChecker("harloom", "0.1.0")
	healthChecker.RegisterCheck("sessions", func(ctx context.Context) error {
		return nil
	}, 5*time.Second, true)

	server := &Server{
		config:            cfg,
		healthChecker:     healthChecker,
		telemetryProvider: telemetryProvider,
		logger:            logger,
		sessionConfig:     sessionConfig,
		oracle:            o,
		sessions:          storage.NewInMemoryRegistry(),
		codegen:           codegen.New(),
	}

	mux := http.NewServeMux()
	server.registerRoutes(mux)

	server.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      server.middlewareChain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, nil
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("/api/v1/sessions/", s.handleSessionSubroute)
}

// handleSessionSubroute dispatches /api/v1/sessions/{id}[/action] since
// http.ServeMux (pre-1.22 patterns) cannot itself extract path parameters.
func (s *Server) handleSessionSubroute(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitSessionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "":
		s.handleGetSession(w, r, id)
	case "select-workflow":
		s.handleSelectWorkflow(w, r, id)
	case "process":
		s.handleProcess(w, r, id)
	case "generate":
		s.handleGenerate(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// splitSessionPath parses "/api/v1/sessions/{id}" and
// "/api/v1/sessions/{id}/{action}" out of r.URL.Path.
func splitSessionPath(path string) (id, action string, ok bool) {
	const prefix = "/api/v1/sessions/"
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return "", "", false
	}
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], rest[i+1:], rest[:i] != ""
		}
	}
	return rest, "", rest != ""
}

// middlewareChain applies middleware to the handler
func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// createSessionRequest is the body of POST /api/v1/sessions.
type createSessionRequest struct {
	HAR            json.RawMessage   `json:"har"`
	CookieFile     string            `json:"cookieFile,omitempty"`
	InputVariables map[string]string `json:"inputVariables,omitempty"`
}

// handleCreateSession starts a new analysis session from a captured HAR.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var req createSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeErrorResponse(w, "Failed to parse request body", http.StatusBadRequest, err)
		return
	}

	sess, err := session.New(s.sessionConfig, s.oracle)
	if err != nil {
		s.writeErrorResponse(w, "Failed to create session", http.StatusInternalServerError, err)
		return
	}
	sess.SetLogger(s.logger)
	sess.SetTelemetry(s.telemetryProvider)

	startTime := time.Now()
	startErr := sess.Start(r.Context(), session.StartInput{
		HAR:            req.HAR,
		CookieFile:     []byte(req.CookieFile),
		InputVariables: req.InputVariables,
	})
	duration := time.Since(startTime)
	s.telemetryProvider.RecordSessionRun(r.Context(), sess.ID(), duration, startErr == nil, len(sess.Graph().GetAllNodes()))

	if err := s.sessions.Put(sess); err != nil {
		s.writeErrorResponse(w, "Failed to register session", http.StatusInternalServerError, err)
		return
	}

	status := http.StatusCreated
	if startErr != nil {
		status = http.StatusOK // the session exists and is inspectable even in StateFailed
	}
	s.writeJSONResponse(w, status, sessionView(sess))
}

// handleGetSession reports a session's current state, logs, discovered
// workflows, and terminal error if any.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeErrorResponse(w, "Session not found", http.StatusNotFound, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, sessionView(sess))
}

type selectWorkflowRequest struct {
	WorkflowID string `json:"workflowId,omitempty"`
}

// handleSelectWorkflow moves a session out of awaitingWorkflowSelection,
// either into the workflow named in the body or, if none is given, the
// highest-priority auto-selected one.
func (s *Server) handleSelectWorkflow(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeErrorResponse(w, "Session not found", http.StatusNotFound, err)
		return
	}

	var req selectWorkflowRequest
	body, _ := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestBodySize))
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeErrorResponse(w, "Failed to parse request body", http.StatusBadRequest, err)
			return
		}
	}

	var selectErr error
	if req.WorkflowID == "" {
		selectErr = sess.AutoSelectWorkflow(r.Context())
	} else {
		selectErr = sess.SelectWorkflow(r.Context(), req.WorkflowID)
	}
	_ = s.sessions.Touch(id)

	if selectErr != nil {
		s.writeErrorResponse(w, "Failed to select workflow", http.StatusBadRequest, selectErr)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, sessionView(sess))
}

// handleProcess drives the Dependency Graph to completion: runs
// ProcessNextNode until the graph is complete or the session fails. A
// dependency graph over real traffic is rarely large enough to warrant
// returning control to the caller mid-run, so process always runs to
// completion rather than exposing a single-tick endpoint.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeErrorResponse(w, "Session not found", http.StatusNotFound, err)
		return
	}

	runErr := sess.Run(r.Context())
	_ = s.sessions.Touch(id)

	if runErr != nil {
		s.writeErrorResponse(w, "Dependency processing failed", http.StatusUnprocessableEntity, runErr)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, sessionView(sess))
}

// handleGenerate renders the completed Dependency Graph into a reproduction
// script via pkg/codegen.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeErrorResponse(w, "Session not found", http.StatusNotFound, err)
		return
	}

	code, genErr := sess.GenerateCode(r.Context(), s.codegen)
	_ = s.sessions.Touch(id)
	if genErr != nil {
		s.writeErrorResponse(w, "Code generation failed", http.StatusUnprocessableEntity, genErr)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(code)
}

// sessionResponse is the wire shape returned by every session endpoint.
type sessionResponse struct {
	ID        string               `json:"id"`
	State     session.State        `json:"state"`
	Workflows []types.Workflow     `json:"workflows,omitempty"`
	ActionURL string               `json:"actionUrl,omitempty"`
	Logs      []session.LogEntry   `json:"logs,omitempty"`
	Error     *types.SessionError  `json:"error,omitempty"`
	Complete  bool                 `json:"complete"`
}

func sessionView(sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID(),
		State:     sess.State(),
		Workflows: sess.Workflows(),
		ActionURL: sess.ActionURL(),
		Logs:      sess.Logs(),
		Error:     sess.Err(),
		Complete:  sess.IsComplete(),
	}
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int, err error) {
	s.logger.WithError(err).WithField("status_code", statusCode).Error(message)

	s.writeJSONResponse(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
		"details": err.Error(),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("address", s.config.Address).Info("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	if err := s.telemetryProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown telemetry: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(startTime)

		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("http request")
	})
}

// recoveryMiddleware recovers from panics
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithField("error", fmt.Sprintf("%v", err)).
					WithField("path", r.URL.Path).
					Error("panic recovered")

				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
