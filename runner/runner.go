// Package runner shells out to behave, collects its cucumber JSON output and
// aggregates scenario results.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/gherkin"
	"github.com/qainfra/bdd-demo/internal/fileutil"
	"github.com/qainfra/bdd-demo/metrics"
)

// Runner executes behave as a subprocess and parses its reports.
type Runner struct {
	cfg *config.Config
	log *slog.Logger

	// behaveBin allows tests to substitute the executable.
	behaveBin string
}

// NewRunner creates a runner over the configured features and reports dirs.
func NewRunner(cfg *config.Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, log: log, behaveBin: "behave"}
}

// RunAll executes every feature under the features directory.
func (r *Runner) RunAll(ctx context.Context) RunResult {
	return r.run(ctx, r.cfg.FeaturesDir)
}

// RunFeature executes a single feature file by name. A missing file returns a
// structured failure without launching a subprocess.
func (r *Runner) RunFeature(ctx context.Context, name string) RunResult {
	path := r.featurePath(name)
	if _, err := os.Stat(path); err != nil {
		r.log.Error("feature file not found", "path", path)
		return RunResult{
			RunID:     uuid.New().String(),
			Timestamp: fileutil.Timestamp(),
			Error:     fmt.Sprintf("feature file not found: %s", path),
		}
	}
	return r.run(ctx, path)
}

func (r *Runner) run(ctx context.Context, target string) (result RunResult) {
	start := time.Now()
	ts := fileutil.Timestamp()
	result = RunResult{
		RunID:     uuid.New().String(),
		Timestamp: ts,
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("test run panicked", "panic", rec)
			result.Success = false
			result.Error = fmt.Sprintf("internal error: %v", rec)
		}
		result.Duration = time.Since(start)
		result.DurationS = result.Duration.Seconds()
		metrics.RecordTestRun(result.RunID, result.Success, result.Duration)
		metrics.RecordScenarios(result.RunID, result.Stats.Passed, result.Stats.Failed, result.Stats.Skipped)
		r.saveMetadata(result)
	}()

	if err := fileutil.EnsureDir(r.cfg.ReportsDir); err != nil {
		result.Error = err.Error()
		return result
	}

	jsonReport := filepath.Join(r.cfg.ReportsDir, fmt.Sprintf("cucumber_report_%s.json", ts))
	junitReport := filepath.Join(r.cfg.ReportsDir, fmt.Sprintf("junit_report_%s.xml", ts))

	args := []string{
		target,
		"--format=json", "--outfile=" + jsonReport,
		"--format=junit", "--outfile=" + junitReport,
		"--format=pretty",
		"--no-capture",
		"--no-capture-stderr",
	}

	r.log.Info("running behave", "target", target, "report", jsonReport)
	stdout, stderr, code, err := r.exec(ctx, args)
	result.ReturnCode = code
	result.Stdout = stdout
	result.Stderr = stderr

	if err != nil {
		result.Error = err.Error()
		return result
	}

	stats, scenarios, err := ParseReport(jsonReport)
	if err != nil {
		// behave ran but produced no parseable report, usually a crash
		// before any scenario executed. The run result is still returned
		// with the parse failure recorded.
		result.JSONParseError = err.Error()
		result.Error = errors.Wrap(err, "report parsing failed").Error()
		return result
	}

	result.Success = true
	result.ReportJSON = jsonReport
	result.ReportXML = junitReport
	result.Stats = stats
	result.Scenarios = scenarios

	r.log.Info("test run complete",
		"total", stats.TotalScenarios,
		"passed", stats.Passed,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"success_rate", stats.SuccessRate)
	return result
}

// ValidateFeature lints and then dry-runs a single feature file to check
// it parses and binds.
func (r *Runner) ValidateFeature(ctx context.Context, name string) ValidationResult {
	path := r.featurePath(name)
	content, err := os.ReadFile(path)
	if err != nil {
		return ValidationResult{Feature: name, Error: fmt.Sprintf("feature file not found: %s", path)}
	}

	// Cheap structural lint first; behave's dry run only confirms what
	// a well-formed file binds to.
	if lint := gherkin.Lint(string(content)); !lint.Valid {
		return ValidationResult{Feature: name, Error: strings.Join(lint.Errors, "; ")}
	}

	args := []string{path, "--dry-run", "--no-summary", "--format=json", "--outfile=" + os.DevNull}
	stdout, stderr, code, err := r.exec(ctx, args)
	if err != nil {
		return ValidationResult{Feature: name, Error: err.Error()}
	}
	if code != 0 {
		return ValidationResult{Feature: name, Output: stdout, Error: strings.TrimSpace(stderr)}
	}
	return ValidationResult{Valid: true, Feature: name, Output: stdout}
}

// exec launches behave and returns cleaned stdout/stderr with the exit code.
// A nonzero exit is not an error here: behave exits 1 when tests fail.
func (r *Runner) exec(ctx context.Context, args []string) (stdout, stderr string, code int, err error) {
	cmd := exec.CommandContext(ctx, r.behaveBin, args...)
	cmd.Env = os.Environ()

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = stripansi.Strip(outBuf.String())
	stderr = stripansi.Strip(errBuf.String())

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return stdout, stderr, exitErr.ExitCode(), nil
		}
		return stdout, stderr, -1, errors.Wrap(runErr, "failed to launch behave")
	}
	return stdout, stderr, 0, nil
}

func (r *Runner) featurePath(name string) string {
	if !strings.HasSuffix(name, ".feature") {
		name += ".feature"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.cfg.FeaturesDir, name)
}

// saveMetadata writes a sidecar JSON describing the run next to the reports.
// Failures are logged, not propagated: metadata is best effort.
func (r *Runner) saveMetadata(result RunResult) {
	path := filepath.Join(r.cfg.ReportsDir, fmt.Sprintf("test_metadata_%s.json", result.Timestamp))
	meta := result
	meta.Stdout = ""
	meta.Stderr = ""
	meta.Scenarios = nil
	if err := fileutil.SaveJSON(meta, path); err != nil {
		r.log.Warn("failed to save run metadata", "path", path, "err", err)
	}
}

// ListFeatures enumerates the feature files available to run.
func (r *Runner) ListFeatures() ([]FeatureFile, error) {
	entries, err := os.ReadDir(r.cfg.FeaturesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read features dir %s", r.cfg.FeaturesDir)
	}

	var features []FeatureFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".feature") {
			continue
		}
		path := filepath.Join(r.cfg.FeaturesDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		features = append(features, FeatureFile{
			Filename: entry.Name(),
			Path:     path,
			Name:     featureName(path),
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
		})
	}
	// Newest first; ties fall back to filename for a stable order.
	sort.Slice(features, func(i, j int) bool {
		if features[i].Modified != features[j].Modified {
			return features[i].Modified > features[j].Modified
		}
		return features[i].Filename < features[j].Filename
	})
	return features, nil
}

// featureName extracts the Feature: title from a file, falling back to the
// filename.
func featureName(path string) string {
	content, err := fileutil.LoadText(path)
	if err != nil {
		return filepath.Base(path)
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Feature:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Feature:"))
		}
	}
	return filepath.Base(path)
}

// LatestResults parses the newest cucumber report in the reports directory.
func (r *Runner) LatestResults() (Stats, []ScenarioResult, error) {
	pattern := filepath.Join(r.cfg.ReportsDir, "cucumber_report_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return Stats{}, nil, errors.Wrap(err, "failed to glob reports")
	}
	if len(matches) == 0 {
		return Stats{}, nil, errors.Errorf("no cucumber reports found in %s", r.cfg.ReportsDir)
	}
	sort.Strings(matches)
	return ParseReport(matches[len(matches)-1])
}
