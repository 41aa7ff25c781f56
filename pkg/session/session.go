package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/harloom/harloom/pkg/classifier"
	"github.com/harloom/harloom/pkg/config"
	"github.com/harloom/harloom/pkg/graph"
	"github.com/harloom/harloom/pkg/har"
	"github.com/harloom/harloom/pkg/logging"
	"github.com/harloom/harloom/pkg/oracle"
	"github.com/harloom/harloom/pkg/request"
	"github.com/harloom/harloom/pkg/resolver"
	"github.com/harloom/harloom/pkg/telemetry"
	"github.com/harloom/harloom/pkg/types"
	"github.com/harloom/harloom/pkg/workflow"
)

// State is one of the orchestrator's named states (spec.md §4.7).
type State string

const (
	StateInitializing             State = "initializing"
	StateParsingHAR                State = "parsingHar"
	StateDiscoveringWorkflows      State = "discoveringWorkflows"
	StateAwaitingWorkflowSelection State = "awaitingWorkflowSelection"
	StateProcessingDependencies    State = "processingDependencies"
	StateProcessingNode            State = "processingNode"
	StateReadyForCodeGen           State = "readyForCodeGen"
	StateCodeGenerated             State = "codeGenerated"
	StateFailed                    State = "failed"
)

// LogEntry is one entry appended by the ADD_LOG global event (spec.md §9).
type LogEntry struct {
	Level     string
	Component string
	Message   string
}

// CodeGenerator is the narrow, out-of-scope collaborator that turns a
// complete Dependency Graph into generated reproduction code (spec.md §6
// "Outputs at codeGenerated"). The orchestrator only depends on this
// interface; pkg/codegen provides one concrete implementation.
type CodeGenerator interface {
	Generate(ctx context.Context, graphJSON []byte, actionURL string, inputVariables map[string]string) ([]byte, error)
}

// StartInput bundles everything a session needs to begin analysis: the raw
// HAR archive, an optional cookie file, and any input variables the caller
// already knows about (name -> representative example value).
type StartInput struct {
	HAR            []byte
	CookieFile     []byte
	InputVariables map[string]string
}

// Session is the orchestrator state machine. All mutation happens under a
// single mutex and there is no background goroutine, so no other caller
// observes a tick half-done. A tick whose node processing fails part-way
// does not roll back the node and graph writes it already made; the session
// moves to failed with those writes in place.
type Session struct {
	mu sync.Mutex

	id    string
	cfg   *config.Config
	state State
	err   *types.SessionError
	logs  []LogEntry

	graph      *graph.DependencyGraph
	resolver   *resolver.Resolver
	classifier *classifier.Classifier
	discoverer *workflow.Discoverer
	oracle     oracle.Oracle
	logger     *logging.Logger
	telemetry  *telemetry.Provider

	requests       []request.Request  // read-only after Start, HAR insertion order
	requestsByID   map[string]request.Request
	requestNodeIDs map[string]string // request identity -> pre-allocated node id
	cookies        request.Store
	occurrence     map[string]int // literal -> count of distinct captured requests referencing it
	earliestIndex  map[string]int // literal -> lowest s.requests index that references it
	htmlCandidates []resolver.HTMLCandidate

	cookieNodeIDs   map[string]string
	notFoundNodeIDs map[string]string

	workflows        []types.Workflow
	selectedWorkflow *types.Workflow
	masterNodeID     string
	actionURL        string
	inputVariables   map[string]string

	queue []string
}

// New constructs a Session in the initializing state. cfg defaults to
// config.Default() if nil; o defaults to oracle.NopOracle{} if nil, so the
// deterministic fallback path is always exercised when no LLM backend is wired.
func New(cfg *config.Config, o oracle.Oracle) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cl, err := classifier.New(cfg)
	if err != nil {
		return nil, err
	}
	if o == nil {
		o = oracle.NopOracle{}
	}
	id := "sess_" + uuid.NewString()
	return &Session{
		id:              id,
		cfg:             cfg,
		state:           StateInitializing,
		graph:           graph.New(),
		resolver:        resolver.New(cfg),
		classifier:      cl,
		discoverer:      workflow.New(cfg),
		oracle:          o,
		logger:          logging.New(logging.DefaultConfig()).WithSessionID(id),
		requestsByID:    map[string]request.Request{},
		requestNodeIDs:  map[string]string{},
		occurrence:      map[string]int{},
		earliestIndex:   map[string]int{},
		cookieNodeIDs:   map[string]string{},
		notFoundNodeIDs: map[string]string{},
		inputVariables:  map[string]string{},
	}, nil
}

func (s *Session) ID() string { return s.id }

// SetLogger replaces the session's default logger, e.g. with a shared
// server-wide logger already carrying a request/workflow-id scope. Must be
// called before Start; the session keeps using its own WithSessionID scope.
func (s *Session) SetLogger(l *logging.Logger) {
	if l == nil {
		return
	}
	s.logger = l.WithSessionID(s.id)
}

// SetTelemetry attaches a metrics provider; per-node and per-resolver-lookup
// instruments stay no-ops until this is called, matching RecordSessionRun's
// own nil-meter guard.
func (s *Session) SetTelemetry(t *telemetry.Provider) {
	s.telemetry = t
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Err() *types.SessionError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *Session) Workflows() []types.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Workflow, len(s.workflows))
	copy(out, s.workflows)
	return out
}

func (s *Session) Graph() *graph.DependencyGraph { return s.graph }

func (s *Session) ActionURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionURL
}

func (s *Session) addLog(level, component, message string) {
	s.logs = append(s.logs, LogEntry{Level: level, Component: component, Message: message})
	entryLog := s.logger.WithField("component", component)
	switch level {
	case "error":
		entryLog.Error(message)
	case "warn":
		entryLog.Warn(message)
	default:
		entryLog.Info(message)
	}
}

// transition moves the orchestrator to next, logging the edge at DEBUG.
func (s *Session) transition(next State) {
	s.logger.WithFields(map[string]interface{}{"from": s.state, "to": next}).Debug("session: state transition")
	s.state = next
}

// fail records a fatal SessionError and moves the session to the terminal
// failed state (spec.md §7: HAR_EMPTY, WORKFLOW_DISCOVERY_FAILED,
// CIRCULAR_DEPENDENCIES, ANALYSIS_INCOMPLETE, NODE_PROCESSING_FAILED, and
// CODE_GENERATION_FAILED are all fatal). Caller must hold s.mu.
func (s *Session) fail(code types.ErrorCode, component, message string) *types.SessionError {
	se := types.NewSessionError(code, component, message, nil)
	s.transition(StateFailed)
	s.err = se
	s.addLog("error", component, message)
	return se
}

// Start parses the HAR archive (and optional cookie file), discovers
// candidate workflows, and leaves the session in awaitingWorkflowSelection.
// It does not auto-select a workflow; call SelectWorkflow or
// AutoSelectWorkflow next (spec.md §4.7).
func (s *Session) Start(ctx context.Context, in StartInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitializing {
		return fmt.Errorf("%w: Start requires initializing, got %s", ErrInvalidTransition, s.state)
	}
	s.transition(StateParsingHAR)

	requests, summary, err := har.Parse(in.HAR, s.cfg)
	if err != nil {
		return s.fail(types.ErrCodeHARTooEmpty, "har", err.Error())
	}
	if summary.Quality == har.QualityEmpty {
		return s.fail(types.ErrCodeHARTooEmpty, "har", "archive contains no request entries")
	}
	if summary.Quality == har.QualityPoor {
		s.addLog("warn", "har", "HAR quality is poor: "+strings.Join(summary.Issues, "; "))
	}

	s.requests = requests
	for _, r := range requests {
		identity := r.Identity()
		if _, exists := s.requestNodeIDs[identity]; exists {
			continue
		}
		id := types.GenerateID("node")
		s.requestNodeIDs[identity] = id
		s.requestsByID[id] = r
	}

	if len(in.CookieFile) > 0 {
		store, err := har.ParseCookieFile(in.CookieFile)
		if err != nil {
			s.addLog("warn", "har", "cookie file could not be parsed: "+err.Error())
		} else {
			s.cookies = store
		}
	}
	if in.InputVariables != nil {
		for k, v := range in.InputVariables {
			s.inputVariables[k] = v
		}
	}

	s.indexLiterals()

	s.transition(StateDiscoveringWorkflows)
	captured := make([]workflow.CapturedRequest, len(requests))
	for i, r := range requests {
		captured[i] = workflow.CapturedRequest{NodeID: s.requestNodeIDs[r.Identity()], Request: r}
	}

	prompt := fmt.Sprintf("Group %d captured requests into coherent workflows.", len(captured))
	discovered, ok := oracle.DiscoverWorkflows(ctx, s.oracle, prompt, func() []oracle.DiscoveredWorkflow { return nil })
	if ok && len(discovered) > 0 {
		if converted := s.convertOracleWorkflows(discovered, captured); len(converted) > 0 {
			s.workflows = converted
		}
	}
	if len(s.workflows) == 0 {
		s.workflows = s.discoverer.Discover(captured)
	}

	s.transition(StateAwaitingWorkflowSelection)
	if len(s.workflows) == 0 {
		return s.fail(types.ErrCodeWorkflowDiscoveryFail, "workflow", "no workflows could be discovered from the captured requests")
	}
	return nil
}

// convertOracleWorkflows maps the oracle's URL/method view of a discovered
// workflow back onto the pre-allocated node ids of the matching captured
// requests. A workflow with no endpoint matching a captured request, or no
// endpoint marked "primary", is dropped: it cannot anchor a master node.
func (s *Session) convertOracleWorkflows(discovered []oracle.DiscoveredWorkflow, captured []workflow.CapturedRequest) []types.Workflow {
	byKey := make(map[string]workflow.CapturedRequest, len(captured))
	for _, c := range captured {
		byKey[strings.ToUpper(c.Request.Method)+" "+c.Request.BaseURL()] = c
	}

	out := make([]types.Workflow, 0, len(discovered))
	for _, dw := range discovered {
		var masterID string
		var memberIDs []string
		for _, ep := range dw.Endpoints {
			cr, ok := byKey[strings.ToUpper(ep.Method)+" "+ep.URL]
			if !ok {
				continue
			}
			memberIDs = append(memberIDs, cr.NodeID)
			if ep.Role == "primary" && masterID == "" {
				masterID = cr.NodeID
			}
		}
		if masterID == "" {
			continue
		}
		out = append(out, types.Workflow{
			ID:                dw.ID,
			Name:              dw.Name,
			Category:          types.Category(dw.Category),
			Priority:          dw.Priority,
			Complexity:        dw.Complexity,
			RequiresUserInput: dw.RequiresUserInput,
			MasterNodeID:      masterID,
			MemberNodeIDs:     memberIDs,
		})
	}
	return out
}

// SelectWorkflow anchors the session on the workflow with the given id,
// inserting its master node and beginning dependency processing.
func (s *Session) SelectWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingWorkflowSelection {
		return fmt.Errorf("%w: SelectWorkflow requires awaitingWorkflowSelection, got %s", ErrInvalidTransition, s.state)
	}
	for _, wf := range s.workflows {
		if wf.ID == id {
			return s.selectWorkflowLocked(ctx, wf)
		}
	}
	return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
}

// AutoSelectWorkflow applies the deterministic primary-workflow tie-break
// (priority desc, complexity asc, id asc) when the caller has not picked one.
func (s *Session) AutoSelectWorkflow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingWorkflowSelection {
		return fmt.Errorf("%w: AutoSelectWorkflow requires awaitingWorkflowSelection, got %s", ErrInvalidTransition, s.state)
	}
	primary, ok := workflow.SelectPrimary(s.workflows)
	if !ok {
		return fmt.Errorf("%w: no workflows to auto-select among", ErrWorkflowNotFound)
	}
	return s.selectWorkflowLocked(ctx, primary)
}

// selectWorkflowLocked anchors wf's master node, seeds the processing queue,
// and transitions to processingDependencies. Caller must hold s.mu.
func (s *Session) selectWorkflowLocked(ctx context.Context, wf types.Workflow) error {
	req, ok := s.requestsByID[wf.MasterNodeID]
	if !ok {
		return fmt.Errorf("session: workflow %s references unknown master node %s", wf.ID, wf.MasterNodeID)
	}

	master := &types.MasterData{RequestData: types.NewRequestData(req), WorkflowID: wf.ID}
	id, err := s.graph.AddNode(wf.MasterNodeID, master)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf("Identify user-supplied input variables for %s %s", req.Method, req.URL)
	suggestions, _ := oracle.IdentifyInputVariables(ctx, s.oracle, prompt, func() []oracle.IdentifiedVariable { return nil })
	for _, sug := range suggestions {
		if _, exists := s.inputVariables[sug.VariableName]; !exists {
			s.inputVariables[sug.VariableName] = sug.VariableValue
		}
	}

	wfCopy := wf
	s.selectedWorkflow = &wfCopy
	s.masterNodeID = id
	s.actionURL = req.URL
	s.queue = append(s.queue, id)
	s.transition(StateProcessingDependencies)
	s.addLog("info", "session", "selected workflow "+wf.Name)
	return nil
}

// ProcessNextNode advances the queue by exactly one node (spec.md §4.7's
// PROCESS_NEXT_NODE event). An empty queue transitions to readyForCodeGen
// regardless of completeness; GenerateCode is where ANALYSIS_INCOMPLETE is
// actually raised.
func (s *Session) ProcessNextNode(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateProcessingDependencies {
		return fmt.Errorf("%w: ProcessNextNode requires processingDependencies, got %s", ErrInvalidTransition, s.state)
	}
	if len(s.queue) == 0 {
		s.transition(StateReadyForCodeGen)
		return nil
	}

	id := s.queue[0]
	s.queue = s.queue[1:]
	s.transition(StateProcessingNode)

	if err := s.processNode(ctx, id); err != nil {
		se, ok := err.(*types.SessionError)
		if !ok {
			code := types.ErrCodeNodeProcessingFailed
			if errors.Is(err, graph.ErrCircularDependency) {
				code = types.ErrCodeCircularDependencies
			}
			se = types.NewSessionError(code, "session", err.Error(), map[string]interface{}{"node_id": id})
		}
		s.transition(StateFailed)
		s.err = se
		s.addLog("error", "session", se.Error())
		return se
	}

	s.transition(StateProcessingDependencies)
	return nil
}

// Run drives ProcessNextNode to completion (readyForCodeGen or failed),
// honoring ctx cancellation between ticks.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := s.State()
		if st == StateReadyForCodeGen || st == StateFailed {
			return nil
		}
		if err := s.ProcessNextNode(ctx); err != nil {
			return err
		}
	}
}

// IsComplete reports the graph-completeness + queue-empty + master-known +
// action-url-known conjunction from spec.md §8's invariants.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCompleteLocked()
}

func (s *Session) isCompleteLocked() bool {
	return s.graph.IsComplete() && len(s.queue) == 0 && s.masterNodeID != "" && s.actionURL != ""
}

// GenerateCode requires readyForCodeGen and a complete graph; it raises the
// fatal ANALYSIS_INCOMPLETE error otherwise (spec.md §7).
func (s *Session) GenerateCode(ctx context.Context, gen CodeGenerator) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReadyForCodeGen {
		return nil, fmt.Errorf("%w: GenerateCode requires readyForCodeGen, got %s", ErrInvalidTransition, s.state)
	}
	if !s.isCompleteLocked() {
		se := s.fail(types.ErrCodeAnalysisIncomplete, "session", "dependency graph is incomplete")
		se.Data = map[string]interface{}{"unresolved": s.graph.GetUnresolvedNodes()}
		return nil, se
	}

	s.logProvidedValues()

	payload, err := s.graph.ToJSON()
	if err != nil {
		return nil, err
	}
	code, err := gen.Generate(ctx, payload, s.actionURL, s.inputVariables)
	if err != nil {
		return nil, s.fail(types.ErrCodeCodeGenerationFailed, "codegen", err.Error())
	}
	s.transition(StateCodeGenerated)
	return code, nil
}

// logProvidedValues logs, at DEBUG, the set of literals each graph node
// supplies downstream (spec.md §8's "provider's provided_values contains v",
// read as "labels of edges targeting this node" — distinct from a node's own
// RequestData.Provided, which tracks which of *its own* unresolved literals
// have been satisfied, per spec.md §3). Called once the graph is complete, so
// every provider's downstream contribution is known.
func (s *Session) logProvidedValues() {
	for _, n := range s.graph.GetAllNodes() {
		labels := s.graph.EdgeLabelsInto(n.ID)
		if len(labels) == 0 {
			continue
		}
		values := make([]string, 0, len(labels))
		for v := range labels {
			values = append(values, v)
		}
		s.logger.WithNodeID(n.ID).WithNodeKind(n.Kind()).WithField("provides", values).
			Debug("graph: node supplies these literals downstream")
	}
}

// indexLiterals pre-computes, once, the occurrence count of every
// dynamic-part literal across all captured requests (for the
// SessionConstantThreshold/BootstrapSyntheticThreshold checks), the lowest
// s.requests index that references each literal (for earliestNodeID, so a
// synthetic bootstrap source attaches to the earliest request that actually
// uses the literal rather than the earliest request overall), and the
// earliest captured HTML responses (for BootstrapSearch).
func (s *Session) indexLiterals() {
	seenIn := map[string]map[int]struct{}{}
	for i, r := range s.requests {
		order, _ := s.scanOrigins(r)
		for _, lit := range order {
			if seenIn[lit] == nil {
				seenIn[lit] = map[int]struct{}{}
			}
			seenIn[lit][i] = struct{}{}
		}
	}
	for lit, set := range seenIn {
		s.occurrence[lit] = len(set)
		min := -1
		for i := range set {
			if min == -1 || i < min {
				min = i
			}
		}
		s.earliestIndex[lit] = min
	}

	const maxHTMLCandidates = 5
	for _, r := range s.requests {
		if len(s.htmlCandidates) >= maxHTMLCandidates {
			break
		}
		if !strings.Contains(strings.ToLower(r.Response.ContentType()), "text/html") {
			continue
		}
		var setCookies []string
		for _, h := range r.Response.Headers {
			if strings.EqualFold(h.Name, "Set-Cookie") {
				setCookies = append(setCookies, h.Value)
			}
		}
		s.htmlCandidates = append(s.htmlCandidates, resolver.HTMLCandidate{
			NodeID:     s.requestNodeIDs[r.Identity()],
			Body:       r.Response.BodyText(),
			SetCookies: setCookies,
		})
	}
}

// scanOrigins walks every header, query parameter, cookie-header entry, and
// JSON body leaf of req, returning the literals that pass candidate
// validation in first-seen order plus each literal's observed origin(s).
func (s *Session) scanOrigins(req request.Request) (order []string, origins map[string][]classifier.Origin) {
	origins = map[string][]classifier.Origin{}
	seen := map[string]bool{}
	add := func(value string, o classifier.Origin) {
		if !s.resolver.ValidateCandidate(value) {
			return
		}
		origins[value] = append(origins[value], o)
		if !seen[value] {
			seen[value] = true
			order = append(order, value)
		}
	}

	for _, h := range req.Headers {
		if strings.EqualFold(h.Name, "Cookie") {
			for _, part := range strings.Split(h.Value, ";") {
				kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
				if len(kv) == 2 {
					add(kv[1], classifier.Origin{Location: "cookie", Name: kv[0]})
				}
			}
			continue
		}
		add(h.Value, classifier.Origin{Location: "header", Name: h.Name, HeaderValue: h.Value})
	}
	for _, q := range req.Query {
		add(q.Value, classifier.Origin{Location: "query", Name: q.Name})
	}
	if req.Body != nil {
		if v, err := req.Body.JSON(); err == nil {
			flattenJSONLeaves(v, "", add)
		}
	}
	return order, origins
}

func flattenJSONLeaves(v interface{}, path string, add func(string, classifier.Origin)) {
	switch val := v.(type) {
	case string:
		add(val, classifier.Origin{Location: "body", Name: path})
	case float64:
		add(strconv.FormatFloat(val, 'f', -1, 64), classifier.Origin{Location: "body", Name: path})
	case map[string]interface{}:
		for k, vv := range val {
			flattenJSONLeaves(vv, joinPath(path, k), add)
		}
	case []interface{}:
		for i, vv := range val {
			flattenJSONLeaves(vv, fmt.Sprintf("%s[%d]", path, i), add)
		}
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
