// Package uicheck drives a headless browser against the dashboard and
// asserts on rendered content, capturing screenshots along the way.
package uicheck

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/internal/fileutil"
)

// DashboardResult is the outcome of the dashboard validation scenario.
type DashboardResult struct {
	Success     bool     `json:"success"`
	CardCount   int      `json:"card_count"`
	ClientName  string   `json:"client_name,omitempty"`
	RevenueText string   `json:"revenue_text,omitempty"`
	Revenue     float64  `json:"revenue,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Checker runs browser-based validations.
type Checker struct {
	cfg *config.Config
	log *slog.Logger
}

// NewChecker returns a browser checker writing screenshots under
// cfg.ScreenshotsDir.
func NewChecker(cfg *config.Config, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{cfg: cfg, log: log}
}

// newBrowser builds an allocator plus tab context honoring the configured
// headless flag and timeout. The returned cancel tears down both.
func (c *Checker) newBrowser(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.BrowserHeadless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1280, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.BrowserTimeout)
	cancel := func() {
		cancelTimeout()
		cancelTab()
		cancelAlloc()
	}
	return timeoutCtx, cancel
}

type clientCard struct {
	Name    string `json:"name"`
	Revenue string `json:"revenue"`
}

// cardExtractionJS collects name and revenue text from every client card.
const cardExtractionJS = `Array.from(document.querySelectorAll('.client-card')).map(card => ({
	name: (card.querySelector('.client-name') || {}).textContent || '',
	revenue: (card.querySelector('.revenue') || {}).textContent || ''
}))`

// CheckDashboard loads the dashboard, waits for the clients grid, finds the
// card for Client A and asserts its revenue parses to a positive number.
func (c *Checker) CheckDashboard(ctx context.Context, url string) DashboardResult {
	result := DashboardResult{}
	c.log.Info("checking dashboard", "url", url)

	browserCtx, cancel := c.newBrowser(ctx)
	defer cancel()

	var cards []clientCard
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.WaitVisible("#clientsGrid", chromedp.ByID),
		chromedp.Evaluate(cardExtractionJS, &cards),
	)
	if err != nil {
		result.Error = errors.Wrap(err, "dashboard did not load").Error()
		c.screenshot(browserCtx, "dashboard_failure", &result)
		return result
	}
	c.screenshot(browserCtx, "dashboard_loaded", &result)

	result.CardCount = len(cards)
	if len(cards) == 0 {
		result.Error = "no client cards found in #clientsGrid"
		return result
	}

	var target *clientCard
	for i := range cards {
		if strings.Contains(cards[i].Name, "Client A") {
			target = &cards[i]
			break
		}
	}
	if target == nil {
		result.Error = "no card found for Client A"
		c.screenshot(browserCtx, "client_a_missing", &result)
		return result
	}
	result.ClientName = strings.TrimSpace(target.Name)
	result.RevenueText = strings.TrimSpace(target.Revenue)

	revenue, err := extractRevenue(target.Revenue)
	if err != nil {
		result.Error = err.Error()
		c.screenshot(browserCtx, "revenue_parse_failure", &result)
		return result
	}
	result.Revenue = revenue

	if revenue <= 0 {
		result.Error = fmt.Sprintf("revenue for Client A is not positive: %.2f", revenue)
		c.screenshot(browserCtx, "revenue_not_positive", &result)
		return result
	}

	result.Success = true
	c.screenshot(browserCtx, "dashboard_validated", &result)
	c.log.Info("dashboard check passed", "client", result.ClientName, "revenue", revenue)
	return result
}

var revenuePattern = regexp.MustCompile(`([\d,]+(?:\.\d+)?)`)

// extractRevenue pulls the first numeric figure out of a revenue label such
// as "Revenue: $150,000.50".
func extractRevenue(text string) (float64, error) {
	match := revenuePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, errors.Errorf("no numeric value in revenue text %q", strings.TrimSpace(text))
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse revenue %q", match[1])
	}
	return value, nil
}

// screenshot captures the current page and records the file on the result.
// Capture failures are logged and swallowed: a missing screenshot should not
// fail a check.
func (c *Checker) screenshot(ctx context.Context, label string, result *DashboardResult) {
	path, err := c.capture(ctx, label)
	if err != nil {
		c.log.Warn("screenshot failed", "label", label, "err", err)
		return
	}
	result.Screenshots = append(result.Screenshots, path)
}

func (c *Checker) capture(ctx context.Context, label string) (string, error) {
	if err := fileutil.EnsureDir(c.cfg.ScreenshotsDir); err != nil {
		return "", err
	}
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", errors.Wrap(err, "failed to capture screenshot")
	}
	name := fmt.Sprintf("%s_%s.png", fileutil.SanitizeFilename(label), fileutil.Timestamp())
	path := filepath.Join(c.cfg.ScreenshotsDir, name)
	if err := fileutil.SaveBytes(buf, path); err != nil {
		return "", err
	}
	return path, nil
}
