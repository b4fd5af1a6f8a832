package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davharte/tribunal/internal/models"
	"github.com/davharte/tribunal/internal/panel"
	"github.com/davharte/tribunal/internal/prompt"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockStore implements store.Store for testing.
type mockStore struct {
	cycles map[string]*models.ReviewCycle
	nextID int

	// Optional error injection.
	createCycleErr   error
	submitVerdictErr error
}

func newMockStore() *mockStore {
	return &mockStore{cycles: make(map[string]*models.ReviewCycle)}
}

func (m *mockStore) CreateCycle(_ context.Context, c *models.ReviewCycle) error {
	if m.createCycleErr != nil {
		return m.createCycleErr
	}
	if c.ID == "" {
		m.nextID++
		c.ID = fmt.Sprintf("cycle-%d", m.nextID)
	}
	m.cycles[c.ID] = c
	return nil
}

func (m *mockStore) GetCycle(_ context.Context, id string) (*models.ReviewCycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return nil, fmt.Errorf("cycle not found: %s", id)
	}
	return c, nil
}

func (m *mockStore) ListCycles(_ context.Context, limit int) ([]*models.ReviewCycle, error) {
	var out []*models.ReviewCycle
	for _, c := range m.cycles {
		out = append(out, c)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) SubmitVerdict(_ context.Context, cycleID string, v models.Verdict) error {
	if m.submitVerdictErr != nil {
		return m.submitVerdictErr
	}
	c, ok := m.cycles[cycleID]
	if !ok {
		return fmt.Errorf("cycle not found: %s", cycleID)
	}
	c.Verdicts = append(c.Verdicts, v)
	remaining := c.Pending[:0]
	for _, p := range c.Pending {
		if p.Role != v.Role {
			remaining = append(remaining, p)
		}
	}
	c.Pending = remaining
	return nil
}

func (m *mockStore) UpdateConsensus(_ context.Context, cycleID string, consensus models.Consensus, provisional bool) error {
	c, ok := m.cycles[cycleID]
	if !ok {
		return fmt.Errorf("cycle not found: %s", cycleID)
	}
	c.Consensus = &consensus
	c.Provisional = provisional
	return nil
}

func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }

// fakeBackend returns a canned JSON verdict.
type fakeBackend struct {
	id       string
	response string
}

func (f *fakeBackend) ID() string { return f.id }
func (f *fakeBackend) Review(context.Context, string) (string, error) {
	return f.response, nil
}

// newTestServer builds a Server with one fake external backend and a mock
// store.
func newTestServer(st *mockStore, detected []string, backends ...panel.Backend) *Server {
	return &Server{
		store:   st,
		prompts: prompt.NewBuilder(),
		detect:  func() []string { return detected },
		newBackends: func(ids, tools []string) []panel.Backend {
			return backends
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

type cycleResponse struct {
	CycleID     string                      `json:"cycle_id"`
	Provisional bool                        `json:"provisional"`
	Consensus   *models.Consensus           `json:"consensus"`
	Verdicts    []models.Verdict            `json:"verdicts"`
	Pending     []models.PendingInstruction `json:"pending"`
}

// ---------------------------------------------------------------------------
// tribunal_review
// ---------------------------------------------------------------------------

func TestHandleReview(t *testing.T) {
	st := newMockStore()
	srv := newTestServer(st, []string{"claude"},
		&fakeBackend{id: "claude", response: `{"decision": "proceed", "confidence": 0.9}`})

	req := callToolReq("tribunal_review", map[string]any{
		"task":    "add retry logic",
		"changes": "wrap the PUT call in a backoff loop",
		"files":   "internal/upload/client.go, internal/upload/retry.go",
	})
	result, err := srv.handleReview(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError, "unexpected tool error: %s", resultText(t, result))

	var resp cycleResponse
	resultJSON(t, result, &resp)
	assert.NotEmpty(t, resp.CycleID)
	assert.True(t, resp.Provisional, "delegated roles outstanding, cycle must be provisional")
	require.Len(t, resp.Verdicts, 1)
	assert.Equal(t, models.RoleFailureFinder, resp.Verdicts[0].Role)
	assert.Len(t, resp.Pending, 2)
	require.NotNil(t, resp.Consensus)

	// The cycle was persisted.
	assert.Len(t, st.cycles, 1)
}

func TestHandleReview_MissingTask(t *testing.T) {
	srv := newTestServer(newMockStore(), nil)

	req := callToolReq("tribunal_review", map[string]any{"changes": "c"})
	result, err := srv.handleReview(context.Background(), req)
	require.NoError(t, err, "handler should not return Go error; should wrap in result")
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "task")
}

func TestHandleReview_InvalidSeverity(t *testing.T) {
	srv := newTestServer(newMockStore(), nil)

	req := callToolReq("tribunal_review", map[string]any{
		"task": "t", "changes": "c", "severity": "catastrophic",
	})
	result, err := srv.handleReview(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid severity")
}

func TestHandleReview_StoreFailure(t *testing.T) {
	st := newMockStore()
	st.createCycleErr = fmt.Errorf("disk full")
	srv := newTestServer(st, nil)

	req := callToolReq("tribunal_review", map[string]any{"task": "t", "changes": "c"})
	result, err := srv.handleReview(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "persist")
}

func TestHandleReview_NoBackendsDegrades(t *testing.T) {
	st := newMockStore()
	srv := newTestServer(st, nil)

	req := callToolReq("tribunal_review", map[string]any{"task": "t", "changes": "c"})
	result, err := srv.handleReview(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp cycleResponse
	resultJSON(t, result, &resp)
	assert.Empty(t, resp.Verdicts)
	assert.Len(t, resp.Pending, 3)
	require.NotNil(t, resp.Consensus)
	assert.Equal(t, panel.DegradedConfidence, resp.Consensus.Confidence)
}

// ---------------------------------------------------------------------------
// tribunal_submit_verdict
// ---------------------------------------------------------------------------

func seedProvisionalCycle(t *testing.T, st *mockStore) *models.ReviewCycle {
	t.Helper()
	c := &models.ReviewCycle{
		Input: models.ReviewInput{Task: "t", Changes: "c", Severity: models.SeverityMedium, Mode: models.ExecAdvisory},
		Verdicts: []models.Verdict{
			{Role: models.RoleFailureFinder, BackendID: "claude", Decision: models.DecisionBlock,
				Confidence: 0.9, Status: models.StatusCompleted},
		},
		Pending: []models.PendingInstruction{
			{Role: models.RoleStructureCritic, BackendID: models.DelegatedBackendID, Prompt: "p"},
		},
		Provisional: true,
	}
	require.NoError(t, st.CreateCycle(context.Background(), c))
	return c
}

func TestHandleSubmitVerdict(t *testing.T) {
	st := newMockStore()
	c := seedProvisionalCycle(t, st)
	srv := newTestServer(st, nil)

	req := callToolReq("tribunal_submit_verdict", map[string]any{
		"cycle_id":   c.ID,
		"role":       "structure_critic",
		"decision":   "block",
		"confidence": "0.8",
		"findings":   `{"design_issues": ["handler owns persistence"]}`,
	})
	result, err := srv.handleSubmitVerdict(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError, "unexpected tool error: %s", resultText(t, result))

	var resp cycleResponse
	resultJSON(t, result, &resp)
	require.NotNil(t, resp.Consensus)
	// Two blocks now carry the panel.
	assert.Equal(t, models.DecisionBlock, resp.Consensus.Decision)
	assert.False(t, resp.Provisional, "no pending roles remain")
	assert.Contains(t, resp.Consensus.Issues, "handler owns persistence")
}

func TestHandleSubmitVerdict_InvalidRole(t *testing.T) {
	st := newMockStore()
	c := seedProvisionalCycle(t, st)
	srv := newTestServer(st, nil)

	req := callToolReq("tribunal_submit_verdict", map[string]any{
		"cycle_id": c.ID, "role": "style_pedant", "decision": "proceed",
	})
	result, err := srv.handleSubmitVerdict(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid role")
}

func TestHandleSubmitVerdict_InvalidConfidence(t *testing.T) {
	st := newMockStore()
	c := seedProvisionalCycle(t, st)
	srv := newTestServer(st, nil)

	for _, raw := range []string{"1.5", "-0.1", "very sure"} {
		req := callToolReq("tribunal_submit_verdict", map[string]any{
			"cycle_id": c.ID, "role": "structure_critic", "decision": "proceed", "confidence": raw,
		})
		result, err := srv.handleSubmitVerdict(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, result.IsError, "confidence %q should be rejected", raw)
	}
}

func TestHandleSubmitVerdict_BadFindingsJSON(t *testing.T) {
	st := newMockStore()
	c := seedProvisionalCycle(t, st)
	srv := newTestServer(st, nil)

	req := callToolReq("tribunal_submit_verdict", map[string]any{
		"cycle_id": c.ID, "role": "structure_critic", "decision": "proceed", "findings": "{broken",
	})
	result, err := srv.handleSubmitVerdict(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSubmitVerdict_UnknownCycle(t *testing.T) {
	srv := newTestServer(newMockStore(), nil)

	req := callToolReq("tribunal_submit_verdict", map[string]any{
		"cycle_id": "nope", "role": "structure_critic", "decision": "proceed",
	})
	result, err := srv.handleSubmitVerdict(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// tribunal_get_cycle
// ---------------------------------------------------------------------------

func TestHandleGetCycle(t *testing.T) {
	st := newMockStore()
	c := seedProvisionalCycle(t, st)
	srv := newTestServer(st, nil)

	req := callToolReq("tribunal_get_cycle", map[string]any{"cycle_id": c.ID})
	result, err := srv.handleGetCycle(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp cycleResponse
	resultJSON(t, result, &resp)
	assert.Equal(t, c.ID, resp.CycleID)
	require.Len(t, resp.Verdicts, 1)
	assert.Len(t, resp.Pending, 1)
}

func TestHandleGetCycle_NotFound(t *testing.T) {
	srv := newTestServer(newMockStore(), nil)

	req := callToolReq("tribunal_get_cycle", map[string]any{"cycle_id": "nope"})
	result, err := srv.handleGetCycle(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a , b ,"))
}

func TestMCPServer_RegistersTools(t *testing.T) {
	srv := newTestServer(newMockStore(), nil)
	assert.NotNil(t, srv.MCPServer())
}
