package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/davharte/tribunal/internal/backend"
	"github.com/davharte/tribunal/internal/models"
	"github.com/davharte/tribunal/internal/panel"
	"github.com/davharte/tribunal/internal/prompt"
	"github.com/davharte/tribunal/internal/store"
)

// Server wraps the review panel and exposes it as MCP tools. The host
// (typically Claude Code) runs reviews through tribunal_review, executes
// any delegated roles as its own tasks, and pushes their verdicts back
// through tribunal_submit_verdict.
type Server struct {
	store   store.Store
	prompts *prompt.Builder

	// Injectable for tests.
	detect      func() []string
	newBackends func(ids, tools []string) []panel.Backend
}

// NewServer creates the MCP server wrapper over the given store.
func NewServer(s store.Store) *Server {
	return &Server{
		store:       s,
		prompts:     prompt.NewBuilder(),
		detect:      backend.Detect,
		newBackends: panelBackends,
	}
}

// panelBackends adapts backend constructors to the panel interface.
func panelBackends(ids, tools []string) []panel.Backend {
	bs := backend.ForIDs(ids, tools)
	out := make([]panel.Backend, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("tribunal", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.reviewTool())
	srv.AddTool(s.submitVerdictTool())
	srv.AddTool(s.getCycleTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// tribunal_review
func (s *Server) reviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tribunal_review",
		mcp.WithDescription("Convene the adversarial review panel over a proposed change. Runs every available external reviewer backend and returns the consensus, per-role verdicts, and pending instructions for roles the caller must execute itself (run each pending prompt as a task, then call tribunal_submit_verdict with the result)."),
		mcp.WithString("task", mcp.Required(), mcp.Description("What the change is trying to accomplish")),
		mcp.WithString("changes", mcp.Required(), mcp.Description("Description of the proposed changes (diff summary or prose)")),
		mcp.WithString("files", mcp.Description("Comma-separated list of affected file paths")),
		mcp.WithString("context_files", mcp.Description("Comma-separated list of additional context file paths")),
		mcp.WithString("severity", mcp.Description("Change severity: low, medium, high, critical (default: medium)")),
		mcp.WithString("mode", mcp.Description("Execution mode: advisory or blocking (default: advisory)")),
	)
	return tool, s.handleReview
}

func (s *Server) handleReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task"), nil
	}
	changes, err := request.RequireString("changes")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: changes"), nil
	}

	input := models.ReviewInput{
		Task:         task,
		Changes:      changes,
		Files:        splitCSV(request.GetString("files", "")),
		ContextFiles: splitCSV(request.GetString("context_files", "")),
		Severity:     models.Severity(request.GetString("severity", string(models.SeverityMedium))),
		Mode:         models.ExecutionMode(request.GetString("mode", string(models.ExecAdvisory))),
	}
	if !input.Severity.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid severity: %s", input.Severity)), nil
	}

	cfg := panel.LoadConfig(panel.Overrides{}, s.detect())
	runner := panel.NewRunner(cfg, s.prompts, s.newBackends(cfg.Backends, cfg.AllowedTools)...)

	cycle := runner.Run(ctx, input)
	if err := s.store.CreateCycle(ctx, cycle); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to persist cycle: %v", err)), nil
	}

	return cycleResult(cycle)
}

// tribunal_submit_verdict
func (s *Server) submitVerdictTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tribunal_submit_verdict",
		mcp.WithDescription("Submit the verdict for a delegated reviewer role and recompute the cycle's consensus. Returns the updated consensus as JSON."),
		mcp.WithString("cycle_id", mcp.Required(), mcp.Description("Review cycle ID")),
		mcp.WithString("role", mcp.Required(), mcp.Description("Reviewer role: failure_finder, structure_critic, cost_critic")),
		mcp.WithString("decision", mcp.Required(), mcp.Description("Decision: proceed, proceed_with_changes, block")),
		mcp.WithString("confidence", mcp.Description("Confidence between 0 and 1 (default: 0.5)")),
		mcp.WithString("findings", mcp.Description("Role findings as a JSON object (failure_modes/design_issues/cost_concerns lists etc.)")),
	)
	return tool, s.handleSubmitVerdict
}

func (s *Server) handleSubmitVerdict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycleID, err := request.RequireString("cycle_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: cycle_id"), nil
	}
	roleStr, err := request.RequireString("role")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: role"), nil
	}
	decisionStr, err := request.RequireString("decision")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: decision"), nil
	}

	role := models.ReviewerRole(roleStr)
	if !role.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid role: %s", roleStr)), nil
	}
	decision := models.Decision(decisionStr)
	if !decision.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid decision: %s", decisionStr)), nil
	}

	confidence := panel.DefaultFieldConfidence
	if raw := request.GetString("confidence", ""); raw != "" {
		if _, err := fmt.Sscanf(raw, "%f", &confidence); err != nil || confidence < 0 || confidence > 1 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid confidence: %s", raw)), nil
		}
	}

	var findings map[string]any
	if raw := request.GetString("findings", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &findings); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("findings is not a JSON object: %v", err)), nil
		}
	}

	v := models.Verdict{
		Role:       role,
		BackendID:  models.DelegatedBackendID,
		Decision:   decision,
		Confidence: confidence,
		Findings:   findings,
		Status:     models.StatusCompleted,
	}

	if err := s.store.SubmitVerdict(ctx, cycleID, v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit verdict: %v", err)), nil
	}

	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reload cycle: %v", err)), nil
	}

	consensus := panel.Recompute(cycle)
	if err := s.store.UpdateConsensus(ctx, cycleID, consensus, cycle.Provisional); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update consensus: %v", err)), nil
	}

	return cycleResult(cycle)
}

// tribunal_get_cycle
func (s *Server) getCycleTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tribunal_get_cycle",
		mcp.WithDescription("Fetch a stored review cycle with its verdicts, pending instructions, and consensus as JSON."),
		mcp.WithString("cycle_id", mcp.Required(), mcp.Description("Review cycle ID")),
	)
	return tool, s.handleGetCycle
}

func (s *Server) handleGetCycle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycleID, err := request.RequireString("cycle_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: cycle_id"), nil
	}

	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cycle not found: %s", cycleID)), nil
	}

	return cycleResult(cycle)
}

// cycleResult marshals a cycle into the tool result shape.
func cycleResult(c *models.ReviewCycle) (*mcp.CallToolResult, error) {
	result := map[string]any{
		"cycle_id":    c.ID,
		"provisional": c.Provisional,
		"consensus":   c.Consensus,
		"verdicts":    c.Verdicts,
		"pending":     c.Pending,
		"created_at":  c.CreatedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal cycle: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// splitCSV splits a comma-separated argument, dropping empty entries.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
