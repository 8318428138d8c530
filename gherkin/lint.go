package gherkin

import (
	"fmt"
	"strings"
)

// LintResult reports basic structural problems with Gherkin text.
type LintResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var stepKeywords = []string{"Given ", "When ", "Then ", "And ", "But "}

// Lint runs a lightweight structural check over Gherkin content. It is not a
// full parser; it catches the mistakes a hand-edited feature file tends to
// have before behave sees it.
func Lint(content string) LintResult {
	res := LintResult{Valid: true}

	hasFeature := false
	inScenario := false
	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lineNo := i + 1

		switch {
		case strings.HasPrefix(line, "Feature:"):
			hasFeature = true
			inScenario = false
		case strings.HasPrefix(line, "Scenario:") || strings.HasPrefix(line, "Scenario Outline:"):
			inScenario = true
			if !hasFeature {
				res.Errors = append(res.Errors, fmt.Sprintf("line %d: scenario before Feature declaration", lineNo))
			}
		case isStep(line):
			if !inScenario {
				res.Errors = append(res.Errors, fmt.Sprintf("line %d: step outside of a scenario", lineNo))
			}
		case strings.HasPrefix(line, "Background:") || strings.HasPrefix(line, "Examples:") || strings.HasPrefix(line, "|") || strings.HasPrefix(line, "@"):
			// structural lines we accept without further checks
		default:
			// Narrative lines (As a / I want / So that) are fine under a
			// feature; anything else gets a warning, not an error.
			if !hasFeature {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: unrecognized line before Feature declaration", lineNo))
			}
		}
	}

	if !hasFeature {
		res.Errors = append(res.Errors, "missing Feature declaration")
	}
	res.Valid = len(res.Errors) == 0
	return res
}

func isStep(line string) bool {
	for _, kw := range stepKeywords {
		if strings.HasPrefix(line, kw) {
			return true
		}
	}
	return false
}
