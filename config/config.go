// Package config builds the process-wide configuration from environment
// variables. The configuration is read once at startup and passed explicitly
// to each component; nothing reads the environment after that.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application settings.
type Config struct {
	// Database settings.
	UseSQLServer bool
	SQLiteDBPath string
	SQLServerDSN string

	// Mocked Bedrock settings.
	BedrockModelID string

	// Mocked Jira Xray settings.
	JiraBaseURL    string
	JiraUsername   string
	JiraAPIToken   string
	XrayProjectKey string

	// Application settings.
	MockMode bool
	Debug    bool

	// Mock API server settings.
	APIHost string
	APIPort int

	// Sidecar server ports.
	HealthzPort int
	MetricsPort int

	// Browser automation settings.
	BrowserHeadless bool
	BrowserTimeout  time.Duration

	// Artifact directories, relative to the working directory.
	ScreenshotsDir string
	ReportsDir     string
	FeaturesDir    string
	DataDocsDir    string
}

// New reads the configuration from the environment. A .env file in the
// working directory is honored when present; missing values fall back to
// demo defaults.
func New() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		UseSQLServer: boolEnv("USE_SQL_SERVER", false),
		SQLiteDBPath: strEnv("SQLITE_DB_PATH", "data/demo.db"),
		SQLServerDSN: strEnv("SQL_SERVER_DSN", ""),

		BedrockModelID: strEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0"),

		JiraBaseURL:    strEnv("JIRA_BASE_URL", "https://your-company.atlassian.net"),
		JiraUsername:   strEnv("JIRA_USERNAME", "mock-user"),
		JiraAPIToken:   strEnv("JIRA_API_TOKEN", "mock-token"),
		XrayProjectKey: strEnv("XRAY_PROJECT_KEY", "DEMO"),

		MockMode: boolEnv("MOCK_MODE", true),
		Debug:    boolEnv("DEBUG", true),

		APIHost: strEnv("API_HOST", "127.0.0.1"),

		BrowserHeadless: boolEnv("BROWSER_HEADLESS", true),

		ScreenshotsDir: "screenshots",
		ReportsDir:     "reports",
		FeaturesDir:    "features",
		DataDocsDir:    "data/ge_data_docs",
	}

	port, err := intEnv("API_PORT", 8001)
	if err != nil {
		return nil, err
	}
	cfg.APIPort = port

	healthzPort, err := intEnv("HEALTHZ_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.HealthzPort = healthzPort

	metricsPort, err := intEnv("METRICS_PORT", 7300)
	if err != nil {
		return nil, err
	}
	cfg.MetricsPort = metricsPort

	timeoutSecs, err := intEnv("BROWSER_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.BrowserTimeout = time.Duration(timeoutSecs) * time.Second

	return cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	if c.UseSQLServer && c.SQLServerDSN == "" {
		return fmt.Errorf("USE_SQL_SERVER is set but SQL_SERVER_DSN is empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API port %d", c.APIPort)
	}
	return nil
}

// APIBaseURL returns the base URL of the mock API server.
func (c *Config) APIBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.APIHost, c.APIPort)
}

// DashboardURL returns the URL of the served HTML dashboard.
func (c *Config) DashboardURL() string {
	return c.APIBaseURL() + "/dashboard"
}

func strEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
