package runner

import (
	"encoding/json"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ParseReport reads a cucumber JSON report and classifies every scenario.
//
// A scenario passes only when it has at least one step and every step passed.
// Any failed step fails the scenario; everything else counts as skipped, so a
// scenario with zero executed steps never inflates the pass count.
func ParseReport(path string) (Stats, []ScenarioResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, nil, errors.Wrapf(err, "failed to read report %s", path)
	}
	return parseReportData(data)
}

func parseReportData(data []byte) (Stats, []ScenarioResult, error) {
	var features []cucumberFeature
	if err := json.Unmarshal(data, &features); err != nil {
		return Stats{}, nil, errors.Wrap(err, "failed to parse cucumber JSON")
	}

	var stats Stats
	var scenarios []ScenarioResult
	for _, feature := range features {
		for _, element := range feature.Elements {
			if element.Type != "scenario" {
				continue
			}
			sc := classifyScenario(feature.Name, element)
			scenarios = append(scenarios, sc)
			stats.TotalScenarios++
			switch sc.Status {
			case StatusPassed:
				stats.Passed++
			case StatusFailed:
				stats.Failed++
			default:
				stats.Skipped++
			}
			stats.TotalSteps += sc.TotalSteps
			stats.PassedSteps += sc.PassedSteps
			stats.FailedSteps += sc.FailedSteps
			stats.SkippedSteps += sc.SkippedSteps
		}
	}

	stats.SuccessRate = successRate(stats.Passed, stats.TotalScenarios)
	return stats, scenarios, nil
}

func classifyScenario(featureName string, element cucumberElement) ScenarioResult {
	sc := ScenarioResult{
		Feature: featureName,
		Name:    element.Name,
	}

	allPassed := len(element.Steps) > 0
	anyFailed := false
	for _, step := range element.Steps {
		sc.Duration += step.Result.Duration
		sr := StepResult{
			Keyword:  strings.TrimSpace(step.Keyword),
			Name:     step.Name,
			Status:   step.Result.Status,
			Duration: step.Result.Duration,
		}
		if len(step.Result.ErrorMessage) > 0 {
			sr.Error = strings.Join(step.Result.ErrorMessage, "\n")
		}
		sc.Steps = append(sc.Steps, sr)

		sc.TotalSteps++
		switch step.Result.Status {
		case "passed":
			sc.PassedSteps++
		case "failed":
			sc.FailedSteps++
			anyFailed = true
			allPassed = false
		default:
			// undefined/untested steps count with skipped
			sc.SkippedSteps++
			allPassed = false
		}
	}

	switch {
	case anyFailed:
		sc.Status = StatusFailed
	case allPassed:
		sc.Status = StatusPassed
	default:
		sc.Status = StatusSkipped
	}
	return sc
}

// successRate is passed/total as a percentage, rounded to two decimals.
// A run with no scenarios rates zero, not NaN.
func successRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(passed)/float64(total)*10000) / 100
}
