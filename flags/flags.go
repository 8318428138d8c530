package flags

import (
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "BDD_DEMO"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Requirement = &cli.StringFlag{
		Name:    "requirement",
		Value:   "Validate client revenue data quality",
		EnvVars: prefixEnvVars("REQUIREMENT"),
		Usage:   "English requirement to turn into a Gherkin feature",
	}
	Feature = &cli.StringFlag{
		Name:    "feature",
		Value:   "",
		EnvVars: prefixEnvVars("FEATURE"),
		Usage:   "Feature file name to run or validate (empty runs all)",
	}
	Table = &cli.StringFlag{
		Name:    "table",
		Value:   "clients",
		EnvVars: prefixEnvVars("TABLE"),
		Usage:   "Database table to quality-check",
	}
	ExpectedCount = &cli.IntFlag{
		Name:    "expected-count",
		Value:   -1,
		EnvVars: prefixEnvVars("EXPECTED_COUNT"),
		Usage:   "Expected row count for the table check (negative to skip)",
	}
	Report = &cli.StringFlag{
		Name:    "report",
		Value:   "",
		EnvVars: prefixEnvVars("REPORT"),
		Usage:   "Path to a cucumber JSON report (empty uses the newest)",
	}
	URL = &cli.StringFlag{
		Name:    "url",
		Value:   "",
		EnvVars: prefixEnvVars("URL"),
		Usage:   "Page URL to check (empty uses the configured dashboard)",
	}
	Elements = &cli.StringFlag{
		Name:    "elements",
		Value:   "",
		EnvVars: prefixEnvVars("ELEMENTS"),
		Usage:   "YAML file of element checks to run instead of the dashboard scenario",
	}
	WithUI = &cli.BoolFlag{
		Name:    "with-ui",
		Value:   false,
		EnvVars: prefixEnvVars("WITH_UI"),
		Usage:   "Include the browser dashboard check in the demo pipeline",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   time.Duration(0),
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Upper bound on the test subprocess (e.g. '5m'). Set to 0 or omit for no timeout.",
	}
	PlanName = &cli.StringFlag{
		Name:    "plan-name",
		Value:   "",
		EnvVars: prefixEnvVars("PLAN_NAME"),
		Usage:   "Name for a created test plan (empty generates one)",
	}
)
