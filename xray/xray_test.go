package xray

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qainfra/bdd-demo/config"
)

const mixedReport = `[
  {
    "name": "Data Quality Validation",
    "elements": [
      {"type": "scenario", "name": "passing scenario", "steps": [
        {"keyword": "Given ", "name": "a", "result": {"status": "passed", "duration": 0.1}}
      ]},
      {"type": "scenario", "name": "failing scenario", "steps": [
        {"keyword": "Given ", "name": "a", "result": {"status": "failed", "duration": 0.1}}
      ]},
      {"type": "scenario", "name": "skipped scenario", "steps": [
        {"keyword": "Given ", "name": "a", "result": {"status": "skipped", "duration": 0}}
      ]}
    ]
  }
]`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	cfg.ReportsDir = t.TempDir()
	return NewClient(cfg, slog.Default())
}

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cucumber_report.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var keyPattern = regexp.MustCompile(`^DEMO-\d{4}$`)

func TestUploadStrictOutcomeMapping(t *testing.T) {
	c := newTestClient(t)

	result := c.Upload(writeReport(t, mixedReport))
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Regexp(t, keyPattern, result.TestExecutionKey)

	require.Len(t, result.Issues, 3)
	assert.Equal(t, 3, result.TotalTests)
	assert.Equal(t, 1, result.PassedTests)
	assert.Equal(t, 2, result.FailedTests, "skipped scenarios map to FAIL, not PASS")

	byName := map[string]string{}
	for _, issue := range result.Issues {
		assert.Regexp(t, keyPattern, issue.Key)
		byName[issue.Summary] = issue.Status
	}
	assert.Equal(t, "PASS", byName["passing scenario"])
	assert.Equal(t, "FAIL", byName["failing scenario"])
	assert.Equal(t, "FAIL", byName["skipped scenario"])
}

func TestUploadAttachesBrowseURL(t *testing.T) {
	c := newTestClient(t)

	result := c.Upload(writeReport(t, mixedReport))
	require.True(t, result.Success)
	require.Contains(t, result.URLs, "execution")
	assert.Contains(t, result.URLs["execution"], "/browse/"+result.TestExecutionKey)
}

func TestUploadPersistsResponse(t *testing.T) {
	c := newTestClient(t)

	result := c.Upload(writeReport(t, mixedReport))
	require.True(t, result.Success)
	require.NotEmpty(t, result.ResponsePath)

	data, err := os.ReadFile(result.ResponsePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), result.TestExecutionKey)
}

func TestUploadMissingReport(t *testing.T) {
	c := newTestClient(t)

	result := c.Upload(filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestCreateTestPlan(t *testing.T) {
	c := newTestClient(t)

	plan := c.CreateTestPlan("Release 1.2 regression")
	assert.True(t, plan.Success)
	assert.Regexp(t, keyPattern, plan.TestPlanKey)
	assert.Equal(t, "Release 1.2 regression", plan.Name)

	unnamed := c.CreateTestPlan("")
	assert.Contains(t, unnamed.Name, "BDD Regression")
}

func TestExecutionStatus(t *testing.T) {
	c := newTestClient(t)

	status := c.ExecutionStatus("DEMO-1234")
	assert.Equal(t, "DEMO-1234", status["test_execution_key"])
	assert.Contains(t, []string{"DONE", "IN_PROGRESS", "TODO"}, status["status"])
}

func TestExport(t *testing.T) {
	c := newTestClient(t)

	path, err := c.Export("DEMO-1234")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestDeepLinks(t *testing.T) {
	c := newTestClient(t)
	c.cfg.JiraBaseURL = "https://jira.internal"

	links := c.DeepLinks("DEMO-1111", "DEMO-2222")
	assert.Equal(t, "https://jira.internal/browse/DEMO-1111", links["execution"])
	assert.Equal(t, "https://jira.internal/browse/DEMO-2222", links["plan"])

	links = c.DeepLinks("DEMO-1111", "")
	_, hasPlan := links["plan"]
	assert.False(t, hasPlan)
}
