// Package xray mimics a Jira Xray integration. Every call synthesizes a
// plausible response locally; nothing leaves the process. Real-mode
// configuration logs a warning and falls back to the mock behavior.
package xray

import (
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/internal/fileutil"
	"github.com/qainfra/bdd-demo/runner"
)

// TestIssue is one synthesized Xray test issue with its execution outcome.
type TestIssue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	Feature string `json:"feature"`
	Comment string `json:"comment,omitempty"`
}

// UploadResult is the response of a (mock) results upload.
type UploadResult struct {
	Success          bool        `json:"success"`
	TestExecutionKey string      `json:"test_execution_key"`
	TestPlanKey      string      `json:"test_plan_key,omitempty"`
	Issues           []TestIssue `json:"issues"`
	TotalTests       int         `json:"total_tests"`
	PassedTests      int         `json:"passed_tests"`
	FailedTests      int         `json:"failed_tests"`
	UploadedAt       string      `json:"uploaded_at"`

	// URLs holds browse links for the created issues, keyed by kind
	// ("execution", "plan").
	URLs map[string]string `json:"urls,omitempty"`

	ResponsePath string `json:"response_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// PlanResult is the response of a (mock) test-plan creation.
type PlanResult struct {
	Success     bool   `json:"success"`
	TestPlanKey string `json:"test_plan_key"`
	Name        string `json:"name"`
	CreatedAt   string `json:"created_at"`
	Error       string `json:"error,omitempty"`
}

// Client talks to the pretend Xray instance.
type Client struct {
	cfg *config.Config
	log *slog.Logger
}

// NewClient returns an Xray client for the configured project.
func NewClient(cfg *config.Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, log: log}
}

func (c *Client) mockGuard(op string) {
	if !c.cfg.MockMode && c.cfg.JiraBaseURL != "" {
		c.log.Warn("real Xray calls not implemented, using mock response", "operation", op)
	}
}

// Upload re-derives per-scenario outcomes from a cucumber report and wraps
// them in a synthetic Xray execution. The outcome mapping is strict: only a
// fully passed scenario maps to PASS, anything else is FAIL.
func (c *Client) Upload(reportPath string) UploadResult {
	c.mockGuard("upload")
	c.log.Info("uploading test results", "report", reportPath, "project", c.cfg.XrayProjectKey)

	_, scenarios, err := runner.ParseReport(reportPath)
	if err != nil {
		return UploadResult{Error: errors.Wrap(err, "cannot build upload payload").Error()}
	}

	result := UploadResult{
		Success:          true,
		TestExecutionKey: c.issueKey(),
		UploadedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	for _, sc := range scenarios {
		issue := TestIssue{
			Key:     c.issueKey(),
			Summary: sc.Name,
			Feature: sc.Feature,
		}
		if sc.Status == runner.StatusPassed {
			issue.Status = "PASS"
			result.PassedTests++
		} else {
			issue.Status = "FAIL"
			issue.Comment = fmt.Sprintf("scenario finished as %s", sc.Status)
			result.FailedTests++
		}
		result.Issues = append(result.Issues, issue)
	}
	result.TotalTests = len(result.Issues)
	result.URLs = c.DeepLinks(result.TestExecutionKey, "")

	if path, err := c.persistResponse(result); err != nil {
		c.log.Warn("failed to persist upload response", "err", err)
	} else {
		result.ResponsePath = path
	}

	c.log.Info("upload complete",
		"execution", result.TestExecutionKey,
		"total", result.TotalTests,
		"passed", result.PassedTests,
		"failed", result.FailedTests)
	return result
}

// CreateTestPlan synthesizes a new test plan issue.
func (c *Client) CreateTestPlan(name string) PlanResult {
	c.mockGuard("create_test_plan")
	if name == "" {
		name = "BDD Regression " + time.Now().Format("2006-01-02")
	}
	return PlanResult{
		Success:     true,
		TestPlanKey: c.issueKey(),
		Name:        name,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// ExecutionStatus fabricates an in-flight execution status. The distribution
// leans heavily toward finished runs.
func (c *Client) ExecutionStatus(executionKey string) map[string]any {
	c.mockGuard("execution_status")
	statuses := []string{"DONE", "DONE", "DONE", "IN_PROGRESS", "TODO"}
	return map[string]any{
		"test_execution_key": executionKey,
		"status":             statuses[rand.Intn(len(statuses))],
		"checked_at":         time.Now().UTC().Format(time.RFC3339),
	}
}

// Export writes a synthetic export payload for an execution key.
func (c *Client) Export(executionKey string) (string, error) {
	c.mockGuard("export")
	payload := map[string]any{
		"test_execution_key": executionKey,
		"export_id":          uuid.New().String(),
		"format":             "cucumber",
		"exported_at":        time.Now().UTC().Format(time.RFC3339),
	}
	path := filepath.Join(c.cfg.ReportsDir, fmt.Sprintf("xray_export_%s.json", fileutil.Timestamp()))
	if err := fileutil.SaveJSON(payload, path); err != nil {
		return "", err
	}
	return path, nil
}

// DeepLinks returns browse URLs for an execution and its plan. With no base
// URL configured the links point at a placeholder host.
func (c *Client) DeepLinks(executionKey, planKey string) map[string]string {
	base := c.cfg.JiraBaseURL
	if base == "" {
		base = "https://jira.example.com"
	}
	links := map[string]string{
		"execution": fmt.Sprintf("%s/browse/%s", base, executionKey),
	}
	if planKey != "" {
		links["plan"] = fmt.Sprintf("%s/browse/%s", base, planKey)
	}
	return links
}

// issueKey fabricates a project-prefixed issue key like DEMO-4821.
func (c *Client) issueKey() string {
	return fmt.Sprintf("%s-%d", c.cfg.XrayProjectKey, 1000+rand.Intn(9000))
}

func (c *Client) persistResponse(result UploadResult) (string, error) {
	if err := fileutil.EnsureDir(c.cfg.ReportsDir); err != nil {
		return "", err
	}
	path := filepath.Join(c.cfg.ReportsDir, fmt.Sprintf("xray_upload_response_%s.json", fileutil.Timestamp()))
	if err := fileutil.SaveJSON(result, path); err != nil {
		return "", err
	}
	return path, nil
}
