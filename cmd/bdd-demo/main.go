package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	bdddemo "github.com/qainfra/bdd-demo"
	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/flags"
	"github.com/qainfra/bdd-demo/gherkin"
	"github.com/qainfra/bdd-demo/metrics"
	"github.com/qainfra/bdd-demo/mockapi"
	"github.com/qainfra/bdd-demo/quality"
	"github.com/qainfra/bdd-demo/runner"
	"github.com/qainfra/bdd-demo/service"
	"github.com/qainfra/bdd-demo/storage"
	"github.com/qainfra/bdd-demo/uicheck"
	"github.com/qainfra/bdd-demo/xray"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "bdd-demo"
	app.Usage = "BDD test automation demo"
	app.Description = "bdd-demo generates Gherkin features, runs them with behave and validates the results"
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Start the mock API with health and metrics sidecars",
			Action: runServe,
		},
		{
			Name:   "generate",
			Usage:  "Generate a Gherkin feature from an English requirement",
			Flags:  []cli.Flag{flags.Requirement},
			Action: runGenerate,
		},
		{
			Name:   "run",
			Usage:  "Run BDD features and aggregate the results",
			Flags:  []cli.Flag{flags.Feature, flags.Timeout},
			Action: runTests,
		},
		{
			Name:   "validate-feature",
			Usage:  "Lint and dry-run a feature file to check its syntax",
			Flags:  []cli.Flag{flags.Feature, flags.Timeout},
			Action: runValidateFeature,
		},
		{
			Name:   "list-features",
			Usage:  "List the feature files available to run",
			Action: runListFeatures,
		},
		{
			Name:   "results",
			Usage:  "Show the aggregated results of the most recent run",
			Action: runResults,
		},
		{
			Name:   "check-api",
			Usage:  "Quality-check the mock API test dataset",
			Flags:  []cli.Flag{flags.URL},
			Action: runCheckAPI,
		},
		{
			Name:   "check-table",
			Usage:  "Quality-check a database table",
			Flags:  []cli.Flag{flags.Table, flags.ExpectedCount},
			Action: runCheckTable,
		},
		{
			Name:   "check-ui",
			Usage:  "Validate the dashboard page in a headless browser",
			Flags:  []cli.Flag{flags.URL, flags.Elements},
			Action: runCheckUI,
		},
		{
			Name:   "upload",
			Usage:  "Upload test results to the (mock) issue tracker",
			Flags:  []cli.Flag{flags.Report, flags.PlanName},
			Action: runUpload,
		},
		{
			Name:   "setup-db",
			Usage:  "Create and seed the demo database",
			Action: runSetupDB,
		},
		{
			Name:   "demo",
			Usage:  "Run the full demo pipeline end to end",
			Flags:  []cli.Flag{flags.Requirement, flags.WithUI},
			Action: runDemo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

// setup builds the config and logger every command starts from.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	metrics.Debug = cfg.Debug
	return cfg, log, nil
}

// commandContext derives the context for a subprocess-bound command,
// honoring --timeout when one is set.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	if timeout := c.Duration(flags.Timeout.Name); timeout > 0 {
		return context.WithTimeout(c.Context, timeout)
	}
	return c.Context, func() {}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runServe(_ *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.New(cfg, log)
	svc.Start(ctx)
	defer svc.Shutdown()

	api := mockapi.NewServer(cfg, log)
	go func() {
		if err := api.Start(); err != nil {
			log.Error("mock API stopped", "err", err)
			stop()
		}
	}()

	log.Info("serving", "api", cfg.APIBaseURL(), "dashboard", cfg.DashboardURL())
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return api.Shutdown(shutdownCtx)
}

func runGenerate(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	result := gherkin.NewGenerator(cfg, log).Generate(c.String(flags.Requirement.Name))
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return cli.Exit("feature generation failed", 1)
	}
	return nil
}

func runTests(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	r := runner.NewRunner(cfg, log)
	var result runner.RunResult
	if feature := c.String(flags.Feature.Name); feature != "" {
		result = r.RunFeature(ctx, feature)
	} else {
		result = r.RunAll(ctx)
	}
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return cli.Exit("test run failed", 2)
	}
	if result.Stats.Failed > 0 {
		return cli.Exit("some scenarios failed", 1)
	}
	return nil
}

func runValidateFeature(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	feature := c.String(flags.Feature.Name)
	if feature == "" {
		return cli.Exit("--feature is required", 1)
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	result := runner.NewRunner(cfg, log).ValidateFeature(ctx, feature)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Valid {
		return cli.Exit("feature file is invalid", 1)
	}
	return nil
}

func runListFeatures(_ *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	features, err := runner.NewRunner(cfg, log).ListFeatures()
	if err != nil {
		return err
	}
	return printJSON(features)
}

func runResults(_ *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	stats, scenarios, err := runner.NewRunner(cfg, log).LatestResults()
	if err != nil {
		return err
	}
	return printJSON(struct {
		Stats     runner.Stats            `json:"stats"`
		Scenarios []runner.ScenarioResult `json:"scenarios"`
	}{stats, scenarios})
}

func runCheckAPI(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	url := c.String(flags.URL.Name)
	if url == "" {
		url = cfg.APIBaseURL() + "/api/test-data"
	}
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch test data: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Records []map[string]any `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode test data: %w", err)
	}

	report := quality.NewChecker(cfg, log).ValidateRecords("api_test_data", body.Records)
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.Success {
		return cli.Exit("quality checks failed", 1)
	}
	return nil
}

func runCheckTable(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	report := quality.NewChecker(cfg, log).ValidateTable(
		c.Context, store, c.String(flags.Table.Name), c.Int(flags.ExpectedCount.Name))
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.Success {
		return cli.Exit("table checks failed", 1)
	}
	return nil
}

func runCheckUI(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	url := c.String(flags.URL.Name)
	if url == "" {
		url = cfg.DashboardURL()
	}
	checker := uicheck.NewChecker(cfg, log)

	if specsPath := c.String(flags.Elements.Name); specsPath != "" {
		specs, err := uicheck.LoadElementSpecs(specsPath)
		if err != nil {
			return err
		}
		result := checker.CheckElements(c.Context, url, specs)
		if err := printJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return cli.Exit("element checks failed", 1)
		}
		return nil
	}

	result := checker.CheckDashboard(c.Context, url)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return cli.Exit("dashboard check failed", 1)
	}
	return nil
}

func runUpload(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	report := c.String(flags.Report.Name)
	if report == "" {
		matches, err := filepath.Glob(filepath.Join(cfg.ReportsDir, "cucumber_report_*.json"))
		if err != nil || len(matches) == 0 {
			return cli.Exit("no cucumber report found; pass --report", 1)
		}
		report = matches[len(matches)-1]
	}

	client := xray.NewClient(cfg, log)
	result := client.Upload(report)
	if plan := c.String(flags.PlanName.Name); plan != "" {
		planResult := client.CreateTestPlan(plan)
		result.TestPlanKey = planResult.TestPlanKey
		result.URLs = client.DeepLinks(result.TestExecutionKey, planResult.TestPlanKey)
	}
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return cli.Exit("upload failed", 1)
	}
	return nil
}

func runSetupDB(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	csvPath := filepath.Join(filepath.Dir(cfg.SQLiteDBPath), "sample_feed.csv")
	if err := store.SeedSampleData(c.Context, csvPath); err != nil {
		return err
	}
	log.Info("database seeded", "path", cfg.SQLiteDBPath)
	return nil
}

func runDemo(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := bdddemo.NewPipeline(cfg, store, log)
	result := pipeline.Run(c.Context, c.String(flags.Requirement.Name), c.Bool(flags.WithUI.Name))

	fmt.Println(bdddemo.Summary(result))
	if !result.Success {
		return cli.Exit("demo pipeline finished with failures", 1)
	}
	return nil
}
