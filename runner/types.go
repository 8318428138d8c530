package runner

import "time"

// Cucumber JSON report model, as emitted by behave's json formatter. Only the
// fields the aggregation reads are declared.

type cucumberFeature struct {
	URI      string            `json:"uri"`
	Name     string            `json:"name"`
	Elements []cucumberElement `json:"elements"`
}

type cucumberElement struct {
	Type  string         `json:"type"`
	Name  string         `json:"name"`
	Steps []cucumberStep `json:"steps"`
}

type cucumberStep struct {
	Keyword string         `json:"keyword"`
	Name    string         `json:"name"`
	Result  cucumberResult `json:"result"`
}

type cucumberResult struct {
	Status       string   `json:"status"`
	Duration     float64  `json:"duration"`
	ErrorMessage []string `json:"error_message,omitempty"`
}

// ScenarioStatus is the aggregate outcome of a single scenario.
type ScenarioStatus string

const (
	StatusPassed  ScenarioStatus = "passed"
	StatusFailed  ScenarioStatus = "failed"
	StatusSkipped ScenarioStatus = "skipped"
)

// StepResult is a flattened view of one executed step.
type StepResult struct {
	Keyword  string  `json:"keyword"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error,omitempty"`
}

// ScenarioResult is the classified outcome of one scenario, with its step
// counts broken out by status.
type ScenarioResult struct {
	Feature      string         `json:"feature"`
	Name         string         `json:"name"`
	Status       ScenarioStatus `json:"status"`
	Steps        []StepResult   `json:"steps"`
	TotalSteps   int            `json:"total_steps"`
	PassedSteps  int            `json:"passed_steps"`
	FailedSteps  int            `json:"failed_steps"`
	SkippedSteps int            `json:"skipped_steps"`
	Duration     float64        `json:"duration"`
}

// Stats aggregates scenario and step outcomes across a run.
type Stats struct {
	TotalScenarios int     `json:"total_scenarios"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	TotalSteps     int     `json:"total_steps"`
	PassedSteps    int     `json:"passed_steps"`
	FailedSteps    int     `json:"failed_steps"`
	SkippedSteps   int     `json:"skipped_steps"`
	SuccessRate    float64 `json:"success_rate"`
}

// RunResult is the uniform outcome of a behave invocation. Execution problems
// surface on Error; test failures surface in Stats.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Success    bool             `json:"success"`
	Timestamp  string           `json:"timestamp"`
	ReportJSON string           `json:"report_json,omitempty"`
	ReportXML  string           `json:"report_xml,omitempty"`
	ReturnCode int              `json:"return_code"`
	Stats      Stats            `json:"stats"`
	Scenarios  []ScenarioResult `json:"scenarios,omitempty"`
	Stdout     string           `json:"stdout,omitempty"`
	Stderr     string           `json:"stderr,omitempty"`
	Duration   time.Duration    `json:"-"`
	DurationS  float64          `json:"duration_seconds"`
	// JSONParseError is set when behave ran but its report could not be
	// parsed; the rest of the result is still populated.
	JSONParseError string `json:"json_parse_error,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ValidationResult is the outcome of a feature-file dry run.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Feature string `json:"feature"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FeatureFile describes one feature file on disk.
type FeatureFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}
