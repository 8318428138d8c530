package gherkin

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qainfra/bdd-demo/config"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	cfg.FeaturesDir = t.TempDir()
	g := NewGenerator(cfg, slog.Default())
	g.simulateLatency = false
	return g
}

func TestClassifyRequirement(t *testing.T) {
	tests := []struct {
		name        string
		requirement string
		wantKey     string
		wantFeature string
	}{
		{"data keywords", "Validate the client database feed", "data_validation", "data_validation"},
		{"api keywords", "Check the API endpoint returns JSON", "api_testing", "api_testing"},
		{"ui keywords", "Verify revenue on the dashboard page", "ui_testing", "ui_validation"},
		{"no keywords", "Something entirely different", "data_validation", "generic_validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, feature := classifyRequirement(tt.requirement)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantFeature, feature)
		})
	}
}

func TestGenerateWritesFeatureFile(t *testing.T) {
	g := newTestGenerator(t)

	res := g.Generate("Validate that client revenue data is correct")
	require.True(t, res.Success, "error: %s", res.Error)
	assert.NotEmpty(t, res.GherkinContent)
	assert.True(t, strings.HasSuffix(res.FeatureFilename, ".feature"))

	data, err := os.ReadFile(res.FeaturePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Feature:")
}

func TestGenerateAddsCustomRevenueScenario(t *testing.T) {
	g := newTestGenerator(t)

	res := g.Generate("Check revenue figures in the report")
	require.True(t, res.Success)
	assert.Contains(t, res.GherkinContent, "Custom revenue validation")
}

func TestGenerateAddsCustomCountScenario(t *testing.T) {
	g := newTestGenerator(t)

	res := g.Generate("Validate the count of feed records")
	require.True(t, res.Success)
	assert.Contains(t, res.GherkinContent, "Custom record count validation")
}

func TestGenerateSanitizesFilename(t *testing.T) {
	g := newTestGenerator(t)

	res := g.Generate("Check data quality")
	require.True(t, res.Success)
	assert.Equal(t, filepath.Base(res.FeaturePath), res.FeatureFilename)
	assert.NotContains(t, res.FeatureFilename, " ")
}

func TestLint(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
	}{
		{
			"valid template",
			templates["data_validation"],
			true,
		},
		{
			"missing feature line",
			"Scenario: orphan\n  Given something\n",
			false,
		},
		{
			"step outside scenario",
			"Feature: f\n  Given a step with no scenario\n",
			false,
		},
		{
			"empty content",
			"",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Lint(tt.content)
			assert.Equal(t, tt.wantValid, res.Valid, "errors: %v", res.Errors)
		})
	}
}

func TestAllTemplatesAreLintClean(t *testing.T) {
	for key, content := range templates {
		res := Lint(content)
		assert.True(t, res.Valid, "template %s: %v", key, res.Errors)
	}
}
