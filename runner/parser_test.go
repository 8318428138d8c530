package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `[
  {
    "uri": "features/data_validation.feature",
    "name": "Data Quality Validation",
    "elements": [
      {
        "type": "scenario",
        "name": "Validate client revenue data",
        "steps": [
          {"keyword": "Given ", "name": "I have client data", "result": {"status": "passed", "duration": 0.1}},
          {"keyword": "When ", "name": "I check the revenue column", "result": {"status": "passed", "duration": 0.2}},
          {"keyword": "Then ", "name": "all values are non-negative", "result": {"status": "passed", "duration": 0.05}}
        ]
      },
      {
        "type": "scenario",
        "name": "Validate client record count",
        "steps": [
          {"keyword": "Given ", "name": "I have client data", "result": {"status": "passed", "duration": 0.1}},
          {"keyword": "When ", "name": "I count the records", "result": {"status": "failed", "duration": 0.3, "error_message": ["AssertionError: expected 5 got 4"]}},
          {"keyword": "Then ", "name": "the count matches", "result": {"status": "skipped", "duration": 0}}
        ]
      }
    ]
  }
]`

func TestParseReportData(t *testing.T) {
	stats, scenarios, err := parseReportData([]byte(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalScenarios)
	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 50.0, stats.SuccessRate)

	assert.Equal(t, 6, stats.TotalSteps)
	assert.Equal(t, 4, stats.PassedSteps)
	assert.Equal(t, 1, stats.FailedSteps)
	assert.Equal(t, 1, stats.SkippedSteps)

	require.Len(t, scenarios, 2)
	assert.Equal(t, StatusPassed, scenarios[0].Status)
	assert.Equal(t, 3, scenarios[0].TotalSteps)
	assert.Equal(t, 3, scenarios[0].PassedSteps)
	assert.Equal(t, StatusFailed, scenarios[1].Status)
	assert.Equal(t, 3, scenarios[1].TotalSteps)
	assert.Equal(t, 1, scenarios[1].PassedSteps)
	assert.Equal(t, 1, scenarios[1].FailedSteps)
	assert.Equal(t, 1, scenarios[1].SkippedSteps)
	assert.Contains(t, scenarios[1].Steps[1].Error, "AssertionError")
}

func TestParseReportSkippedScenarios(t *testing.T) {
	report := `[
  {
    "name": "f",
    "elements": [
      {"type": "scenario", "name": "all skipped", "steps": [
        {"keyword": "Given ", "name": "s", "result": {"status": "skipped", "duration": 0}}
      ]},
      {"type": "scenario", "name": "no steps", "steps": []},
      {"type": "background", "name": "ignored", "steps": []}
    ]
  }
]`
	stats, scenarios, err := parseReportData([]byte(report))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalScenarios, "background elements should not count")
	assert.Equal(t, 0, stats.Passed, "a scenario with no executed steps never counts as passed")
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0.0, stats.SuccessRate)
	for _, sc := range scenarios {
		assert.Equal(t, StatusSkipped, sc.Status)
	}
}

func TestParseReportStatsSumInvariant(t *testing.T) {
	stats, scenarios, err := parseReportData([]byte(sampleReport))
	require.NoError(t, err)
	assert.Equal(t, stats.TotalScenarios, stats.Passed+stats.Failed+stats.Skipped)
	assert.Equal(t, stats.TotalSteps, stats.PassedSteps+stats.FailedSteps+stats.SkippedSteps)
	for _, sc := range scenarios {
		assert.Equal(t, sc.TotalSteps, sc.PassedSteps+sc.FailedSteps+sc.SkippedSteps, sc.Name)
		assert.Len(t, sc.Steps, sc.TotalSteps, sc.Name)
	}
}

func TestParseReportInvalidJSON(t *testing.T) {
	_, _, err := parseReportData([]byte("not json at all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse cucumber JSON")
}

func TestParseReportMissingFile(t *testing.T) {
	_, _, err := ParseReport(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestParseReportFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cucumber_report.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o644))

	stats, _, err := ParseReport(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalScenarios)
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name   string
		passed int
		total  int
		want   float64
	}{
		{"empty run", 0, 0, 0},
		{"all passed", 5, 5, 100},
		{"half", 1, 2, 50},
		{"rounds to two decimals", 1, 3, 33.33},
		{"two thirds", 2, 3, 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, successRate(tt.passed, tt.total))
		})
	}
}
