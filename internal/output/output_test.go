package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davharte/tribunal/internal/models"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("done %d", 42)
	assert.Contains(t, out.String(), "done 42")
}

func TestWarning(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Warning("careful %s", "now")
	assert.Contains(t, errOut.String(), "careful now")
}

func TestVerboseLog_Disabled(t *testing.T) {
	u, out, _ := newTestUI()
	u.Verbose = false
	u.VerboseLog("detail %d", 1)
	assert.Empty(t, out.String())
}

func TestDryRunMsg(t *testing.T) {
	u, _, errOut := newTestUI()
	u.DryRun = true
	u.DryRunMsg("would review %s", "change")
	assert.Contains(t, errOut.String(), "[DRY-RUN]")

	u.DryRun = false
	errOut.Reset()
	u.DryRunMsg("would review %s", "change")
	assert.Empty(t, errOut.String())
}

func TestDecisionColor_PassesThroughUnknown(t *testing.T) {
	assert.Equal(t, "weird", DecisionColor("weird"))
}

func sampleReportCycle() *models.ReviewCycle {
	consensus := models.Consensus{
		Decision:        models.DecisionProceedWithChanges,
		Confidence:      0.77,
		Issues:          []string{"unbounded retries"},
		Recommendations: []string{"cap attempts at 5"},
	}
	return &models.ReviewCycle{
		ID: "01TEST",
		Input: models.ReviewInput{
			Task:     "add retry logic",
			Changes:  "wrap the PUT call",
			Severity: models.SeverityMedium,
			Mode:     models.ExecAdvisory,
		},
		Verdicts: []models.Verdict{
			{Role: models.RoleFailureFinder, BackendID: "claude", Decision: models.DecisionProceedWithChanges,
				Confidence: 0.8, Status: models.StatusCompleted},
			{Role: models.RoleStructureCritic, BackendID: "codex", Decision: models.DecisionProceedWithChanges,
				Confidence: 0.3, Status: models.StatusErrored, Error: "exit status 1"},
		},
		Pending: []models.PendingInstruction{
			{Role: models.RoleCostCritic, BackendID: models.DelegatedBackendID},
		},
		Consensus:   &consensus,
		Provisional: true,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := WriteReport(dir, sampleReportCycle())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "review-01TEST.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)

	assert.Contains(t, report, "# Review 01TEST")
	assert.Contains(t, report, "Provisional Consensus")
	assert.Contains(t, report, "**proceed_with_changes** (confidence 0.77)")
	assert.Contains(t, report, "unbounded retries")
	assert.Contains(t, report, "cap attempts at 5")
	assert.Contains(t, report, "| Failure Finder | claude |")
	assert.Contains(t, report, "> Structure Critic: exit status 1")
	assert.Contains(t, report, "Cost Critic (delegated)")
}

func TestRenderMarkdown_FinalConsensusHeading(t *testing.T) {
	c := sampleReportCycle()
	c.Provisional = false
	c.Pending = nil

	report := renderMarkdown(c)
	assert.Contains(t, report, "## Consensus")
	assert.False(t, strings.Contains(report, "Provisional"), "final consensus must not be labeled provisional")
	assert.NotContains(t, report, "Pending Delegated Roles")
}
