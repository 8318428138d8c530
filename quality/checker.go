// Package quality runs column-level sanity checks over tabular data and
// renders the results as JSON plus a small set of static HTML data docs.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/internal/fileutil"
	"github.com/qainfra/bdd-demo/metrics"
	"github.com/qainfra/bdd-demo/storage"
)

// CheckResult is the outcome of one named expectation against one column.
type CheckResult struct {
	Column  string `json:"column"`
	Check   string `json:"check"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// Report aggregates every check run against a dataset.
type Report struct {
	Dataset     string        `json:"dataset"`
	Timestamp   string        `json:"timestamp"`
	Success     bool          `json:"success"`
	Checks      []CheckResult `json:"checks"`
	Total       int           `json:"total_checks"`
	Passed      int           `json:"passed_checks"`
	Failed      int           `json:"failed_checks"`
	SuccessRate float64       `json:"success_rate"`
	RecordCount int           `json:"record_count"`
	Error       string        `json:"error,omitempty"`
}

// Checker validates records and tables against built-in expectations.
type Checker struct {
	cfg *config.Config
	log *slog.Logger
}

// NewChecker returns a checker writing data docs under cfg.DataDocsDir.
func NewChecker(cfg *config.Config, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{cfg: cfg, log: log}
}

const (
	maxMonetaryValue = 1_000_000
	maxTextLength    = 255
)

// monetaryColumn reports whether a column name looks like a money figure.
// The heuristic is a substring match on the column name; callers that need
// stricter typing should declare a schema instead.
func monetaryColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "revenue") || strings.Contains(lower, "amount")
}

// revenueColumn gates the upper-bound check, which applies to revenue
// figures only.
func revenueColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "revenue")
}

// ValidateRecords checks every column across a slice of row maps. Numeric
// columns are checked for nulls and, when the name looks monetary, for a
// non-negative minimum and a bounded maximum. Text columns are checked for
// nulls, empty strings and maximum length.
func (c *Checker) ValidateRecords(dataset string, records []map[string]any) Report {
	report := c.newReport(dataset)
	report.RecordCount = len(records)

	if len(records) == 0 {
		report.Checks = append(report.Checks, CheckResult{
			Check:  "dataset_not_empty",
			Detail: "no records to validate",
		})
		c.finalize(&report)
		return report
	}

	for _, column := range columnNames(records) {
		numeric, values := columnValues(records, column)
		if numeric {
			report.Checks = append(report.Checks, c.numericChecks(column, records, values)...)
		} else {
			report.Checks = append(report.Checks, c.textChecks(column, records)...)
		}
	}

	c.finalize(&report)
	return report
}

// ValidateTable checks row counts on a live database table. expectedCount < 0
// skips the equality check.
func (c *Checker) ValidateTable(ctx context.Context, m *storage.Manager, table string, expectedCount int) Report {
	report := c.newReport(table)

	count, err := m.TableCount(ctx, table)
	if err != nil {
		report.Error = err.Error()
		c.finalize(&report)
		return report
	}
	report.RecordCount = count

	report.Checks = append(report.Checks, CheckResult{
		Check:   "row_count_positive",
		Success: count > 0,
		Detail:  fmt.Sprintf("table %s has %d rows", table, count),
	})
	if expectedCount >= 0 {
		report.Checks = append(report.Checks, CheckResult{
			Check:   "row_count_matches_expected",
			Success: count == expectedCount,
			Detail:  fmt.Sprintf("expected %d rows, found %d", expectedCount, count),
		})
	}

	c.finalize(&report)
	return report
}

func (c *Checker) numericChecks(column string, records []map[string]any, values []float64) []CheckResult {
	nulls := 0
	for _, rec := range records {
		if rec[column] == nil {
			nulls++
		}
	}

	checks := []CheckResult{{
		Column:  column,
		Check:   "no_null_values",
		Success: nulls == 0,
		Detail:  fmt.Sprintf("%d null values", nulls),
	}}

	if monetaryColumn(column) && len(values) > 0 {
		min, max := values[0], values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		checks = append(checks, CheckResult{
			Column:  column,
			Check:   "minimum_non_negative",
			Success: min >= 0,
			Detail:  fmt.Sprintf("minimum value %.2f", min),
		})
		if revenueColumn(column) {
			checks = append(checks, CheckResult{
				Column:  column,
				Check:   "maximum_within_bound",
				Success: max <= maxMonetaryValue,
				Detail:  fmt.Sprintf("maximum value %.2f (bound %d)", max, maxMonetaryValue),
			})
		}
	}
	return checks
}

func (c *Checker) textChecks(column string, records []map[string]any) []CheckResult {
	nulls, empties, maxLen := 0, 0, 0
	for _, rec := range records {
		v := rec[column]
		if v == nil {
			nulls++
			continue
		}
		s := fmt.Sprintf("%v", v)
		if s == "" {
			empties++
		}
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}

	return []CheckResult{
		{
			Column:  column,
			Check:   "no_null_values",
			Success: nulls == 0,
			Detail:  fmt.Sprintf("%d null values", nulls),
		},
		{
			Column:  column,
			Check:   "no_empty_strings",
			Success: empties == 0,
			Detail:  fmt.Sprintf("%d empty values", empties),
		},
		{
			Column:  column,
			Check:   "max_length_within_bound",
			Success: maxLen <= maxTextLength,
			Detail:  fmt.Sprintf("longest value %d chars (bound %d)", maxLen, maxTextLength),
		},
	}
}

func (c *Checker) newReport(dataset string) Report {
	return Report{
		Dataset:   dataset,
		Timestamp: fileutil.Timestamp(),
	}
}

// finalize computes aggregates, records metrics and persists the data docs.
func (c *Checker) finalize(report *Report) {
	report.Total = len(report.Checks)
	for _, check := range report.Checks {
		if check.Success {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Success = report.Error == "" && report.Failed == 0 && report.Total > 0
	if report.Total > 0 {
		report.SuccessRate = math.Round(float64(report.Passed)/float64(report.Total)*10000) / 100
	}

	metrics.RecordQualityCheck(report.Success)

	if err := c.writeDataDocs(*report); err != nil {
		c.log.Warn("failed to write data docs", "dataset", report.Dataset, "err", err)
	}
	c.log.Info("quality check complete",
		"dataset", report.Dataset,
		"success", report.Success,
		"passed", report.Passed,
		"failed", report.Failed)
}

// columnNames returns a stable, sorted union of keys across all records.
func columnNames(records []map[string]any) []string {
	seen := map[string]bool{}
	var names []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// columnValues reports whether a column is numeric and collects its non-null
// numeric values. A column is numeric when every non-null value is a number.
func columnValues(records []map[string]any, column string) (bool, []float64) {
	var values []float64
	numeric := false
	for _, rec := range records {
		v, ok := rec[column]
		if !ok || v == nil {
			continue
		}
		f, isNum := toFloat(v)
		if !isNum {
			return false, nil
		}
		numeric = true
		values = append(values, f)
	}
	return numeric, values
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
