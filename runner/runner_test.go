package runner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/internal/fileutil"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	cfg.FeaturesDir = t.TempDir()
	cfg.ReportsDir = t.TempDir()
	return NewRunner(cfg, slog.Default())
}

func TestRunFeatureMissingFile(t *testing.T) {
	r := newTestRunner(t)

	result := r.RunFeature(context.Background(), "does_not_exist")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "feature file not found")
	assert.NotEmpty(t, result.RunID)
}

func TestRunBehaveNotInstalled(t *testing.T) {
	r := newTestRunner(t)
	r.behaveBin = filepath.Join(t.TempDir(), "no-such-binary")

	result := r.RunAll(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "failed to launch behave")
	assert.Equal(t, -1, result.ReturnCode)
}

func TestRunSavesMetadata(t *testing.T) {
	r := newTestRunner(t)
	r.behaveBin = filepath.Join(t.TempDir(), "no-such-binary")

	result := r.RunAll(context.Background())
	require.NotEmpty(t, result.Timestamp)

	var meta RunResult
	path := filepath.Join(r.cfg.ReportsDir, "test_metadata_"+result.Timestamp+".json")
	require.NoError(t, fileutil.LoadJSON(path, &meta))
	assert.Equal(t, result.RunID, meta.RunID)
	assert.Empty(t, meta.Stdout, "metadata should not duplicate process output")
}

func TestValidateFeatureMissingFile(t *testing.T) {
	r := newTestRunner(t)

	res := r.ValidateFeature(context.Background(), "ghost.feature")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "feature file not found")
}

func TestValidateFeatureLintRejectsMalformed(t *testing.T) {
	r := newTestRunner(t)
	// behave is left unreachable on purpose: the lint step must reject the
	// file before any subprocess is launched.
	r.behaveBin = filepath.Join(t.TempDir(), "no-such-binary")

	path := filepath.Join(r.cfg.FeaturesDir, "broken.feature")
	require.NoError(t, os.WriteFile(path, []byte("Given a step with no feature\n"), 0o644))

	res := r.ValidateFeature(context.Background(), "broken")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "missing Feature declaration")
	assert.NotContains(t, res.Error, "failed to launch behave")
}

func TestFeaturePath(t *testing.T) {
	r := newTestRunner(t)

	withExt := r.featurePath("demo.feature")
	withoutExt := r.featurePath("demo")
	assert.Equal(t, withExt, withoutExt)
	assert.Equal(t, filepath.Join(r.cfg.FeaturesDir, "demo.feature"), withExt)

	abs := filepath.Join(t.TempDir(), "abs.feature")
	assert.Equal(t, abs, r.featurePath(abs))
}

func TestListFeatures(t *testing.T) {
	r := newTestRunner(t)

	content := "Feature: Demo Validation\n\n  Scenario: s\n    Given a step\n"
	require.NoError(t, os.WriteFile(filepath.Join(r.cfg.FeaturesDir, "b_demo.feature"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.cfg.FeaturesDir, "a_demo.feature"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.cfg.FeaturesDir, "notes.txt"), []byte("ignore"), 0o644))

	features, err := r.ListFeatures()
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "a_demo.feature", features[0].Filename)
	assert.Equal(t, "Demo Validation", features[0].Name)
}

func TestListFeaturesMissingDir(t *testing.T) {
	r := newTestRunner(t)
	r.cfg.FeaturesDir = filepath.Join(t.TempDir(), "nope")

	features, err := r.ListFeatures()
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestLatestResults(t *testing.T) {
	r := newTestRunner(t)

	_, _, err := r.LatestResults()
	require.Error(t, err, "no reports yet")

	old := filepath.Join(r.cfg.ReportsDir, "cucumber_report_20250101_000000.json")
	latest := filepath.Join(r.cfg.ReportsDir, "cucumber_report_20250102_000000.json")
	require.NoError(t, os.WriteFile(old, []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(latest, []byte(sampleReport), 0o644))

	stats, _, err := r.LatestResults()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalScenarios, "should pick the newest report")
}
