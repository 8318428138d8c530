// Package bdddemo wires the demo components into an end-to-end pipeline:
// seed the database, generate a feature from a requirement, run the BDD
// suite, quality-check the data, optionally validate the dashboard UI and
// upload the results.
package bdddemo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/gherkin"
	"github.com/qainfra/bdd-demo/internal/fileutil"
	"github.com/qainfra/bdd-demo/quality"
	"github.com/qainfra/bdd-demo/runner"
	"github.com/qainfra/bdd-demo/storage"
	"github.com/qainfra/bdd-demo/uicheck"
	"github.com/qainfra/bdd-demo/xray"
)

// StepOutcome records one pipeline stage for the summary table.
type StepOutcome struct {
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"-"`
}

// PipelineResult is the aggregate outcome of a demo run.
type PipelineResult struct {
	Success   bool          `json:"success"`
	Steps     []StepOutcome `json:"steps"`
	Timestamp string        `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// Pipeline holds the components the demo run drives.
type Pipeline struct {
	cfg       *config.Config
	log       *slog.Logger
	store     *storage.Manager
	generator *gherkin.Generator
	runner    *runner.Runner
	checker   *quality.Checker
	browser   *uicheck.Checker
	uploader  *xray.Client
}

// NewPipeline builds a pipeline over an opened storage manager.
func NewPipeline(cfg *config.Config, store *storage.Manager, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		log:       log,
		store:     store,
		generator: gherkin.NewGenerator(cfg, log),
		runner:    runner.NewRunner(cfg, log),
		checker:   quality.NewChecker(cfg, log),
		browser:   uicheck.NewChecker(cfg, log),
		uploader:  xray.NewClient(cfg, log),
	}
}

// Run executes the full demo sequence. Individual stage failures are
// recorded and the pipeline continues; only setup problems abort the run.
func (p *Pipeline) Run(ctx context.Context, requirement string, withUI bool) PipelineResult {
	result := PipelineResult{Timestamp: fileutil.Timestamp(), Success: true}
	record := func(name string, start time.Time, success bool, detail string) {
		result.Steps = append(result.Steps, StepOutcome{
			Name:     name,
			Success:  success,
			Detail:   detail,
			Duration: time.Since(start),
		})
		if !success {
			result.Success = false
		}
	}

	start := time.Now()
	csvPath := filepath.Join(filepath.Dir(p.cfg.SQLiteDBPath), "sample_feed.csv")
	if err := p.store.SeedSampleData(ctx, csvPath); err != nil {
		record("seed database", start, false, err.Error())
		result.Error = err.Error()
		return result
	}
	record("seed database", start, true, "sample clients loaded")

	start = time.Now()
	gen := p.generator.Generate(requirement)
	genDetail := gen.FeatureFilename
	if gen.Error != "" {
		genDetail = gen.Error
	}
	record("generate feature", start, gen.Success, genDetail)

	start = time.Now()
	run := p.runner.RunAll(ctx)
	detail := fmt.Sprintf("%d/%d scenarios passed (%.2f%%)",
		run.Stats.Passed, run.Stats.TotalScenarios, run.Stats.SuccessRate)
	if run.Error != "" {
		detail = run.Error
	}
	record("run BDD suite", start, run.Success, detail)

	start = time.Now()
	clients, err := p.store.Clients(ctx, false)
	if err != nil {
		record("data quality check", start, false, err.Error())
	} else {
		report := p.checker.ValidateRecords("clients", clientRecords(clients))
		record("data quality check", start, report.Success,
			fmt.Sprintf("%d/%d checks passed", report.Passed, report.Total))
	}

	if withUI {
		start = time.Now()
		ui := p.browser.CheckDashboard(ctx, p.cfg.DashboardURL())
		detail := fmt.Sprintf("%s revenue %.2f", ui.ClientName, ui.Revenue)
		if ui.Error != "" {
			detail = ui.Error
		}
		record("dashboard UI check", start, ui.Success, detail)
	}

	if run.ReportJSON != "" {
		start = time.Now()
		upload := p.uploader.Upload(run.ReportJSON)
		detail := upload.TestExecutionKey
		if upload.Error != "" {
			detail = upload.Error
		}
		record("upload results", start, upload.Success, detail)
	}

	p.log.Info("pipeline finished", "success", result.Success, "steps", len(result.Steps))
	return result
}

// clientRecords flattens typed clients into the row maps the checker reads.
func clientRecords(clients []storage.Client) []map[string]any {
	records := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		records = append(records, map[string]any{
			"client_id":   c.ClientID,
			"client_name": c.ClientName,
			"revenue":     c.Revenue,
			"region":      c.Region,
		})
	}
	return records
}

// Summary renders the step outcomes as a text table.
func Summary(result PipelineResult) string {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle("Demo Pipeline Summary")

	t.AppendHeader(table.Row{"Step", "Status", "Duration", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, step := range result.Steps {
		status := "PASS"
		if !step.Success {
			status = "FAIL"
		}
		t.AppendRow(table.Row{step.Name, status, fileutil.FormatDuration(step.Duration), step.Detail})
	}
	t.AppendFooter(table.Row{"overall", overallStatus(result), "", ""})
	t.Render()
	return buf.String()
}

func overallStatus(result PipelineResult) string {
	if result.Success {
		return "PASS"
	}
	return "FAIL"
}
