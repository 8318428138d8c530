package quality

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/qainfra/bdd-demo/internal/fileutil"
)

// writeDataDocs persists a report as JSON plus a rendered HTML page, then
// regenerates the index listing the most recent results.
func (c *Checker) writeDataDocs(report Report) error {
	if err := fileutil.EnsureDir(c.cfg.DataDocsDir); err != nil {
		return err
	}

	suffix := fmt.Sprintf("%s_%s", fileutil.SanitizeFilename(report.Dataset), report.Timestamp)
	jsonPath := filepath.Join(c.cfg.DataDocsDir, fmt.Sprintf("validation_results_%s.json", suffix))
	if err := fileutil.SaveJSON(report, jsonPath); err != nil {
		return err
	}

	htmlPath := filepath.Join(c.cfg.DataDocsDir, fmt.Sprintf("data_docs_%s.html", suffix))
	if err := renderTemplate(reportTemplate, htmlPath, report); err != nil {
		return err
	}

	return c.writeIndex()
}

// writeIndex rebuilds index.html from the newest result pages on disk.
func (c *Checker) writeIndex() error {
	matches, err := filepath.Glob(filepath.Join(c.cfg.DataDocsDir, "data_docs_*.html"))
	if err != nil {
		return errors.Wrap(err, "failed to list data docs")
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	if len(matches) > 10 {
		matches = matches[:10]
	}

	type entry struct {
		Filename string
		Label    string
	}
	var entries []entry
	for _, m := range matches {
		name := filepath.Base(m)
		entries = append(entries, entry{
			Filename: name,
			Label:    strings.TrimSuffix(strings.TrimPrefix(name, "data_docs_"), ".html"),
		})
	}

	return renderTemplate(indexTemplate, filepath.Join(c.cfg.DataDocsDir, "index.html"), entries)
}

func renderTemplate(tmpl *template.Template, path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()
	if err := tmpl.Execute(f, data); err != nil {
		return errors.Wrapf(err, "failed to render %s", path)
	}
	return nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Data Quality: {{.Dataset}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
  h1 { font-size: 1.4em; }
  .summary { margin: 12px 0; padding: 10px; border-radius: 6px; }
  .summary.pass { background: #e6f4ea; border: 1px solid #34a853; }
  .summary.fail { background: #fce8e6; border: 1px solid #ea4335; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
  th { background: #f5f5f5; }
  .status-pass { color: #34a853; font-weight: bold; }
  .status-fail { color: #ea4335; font-weight: bold; }
</style>
</head>
<body>
<h1>Data Quality Report: {{.Dataset}}</h1>
<div class="summary {{if .Success}}pass{{else}}fail{{end}}">
  <strong>{{if .Success}}PASSED{{else}}FAILED{{end}}</strong>
  &mdash; {{.Passed}}/{{.Total}} checks passed ({{printf "%.2f" .SuccessRate}}%)
  over {{.RecordCount}} records at {{.Timestamp}}
  {{if .Error}}<div>Error: {{.Error}}</div>{{end}}
</div>
<table>
  <tr><th>Column</th><th>Check</th><th>Status</th><th>Detail</th></tr>
  {{range .Checks}}
  <tr>
    <td>{{.Column}}</td>
    <td>{{.Check}}</td>
    <td class="{{if .Success}}status-pass{{else}}status-fail{{end}}">{{if .Success}}PASS{{else}}FAIL{{end}}</td>
    <td>{{.Detail}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Data Quality Results</title>
<style>
  body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
  li { margin: 6px 0; }
</style>
</head>
<body>
<h1>Recent Data Quality Results</h1>
<ul>
  {{range .}}
  <li><a href="{{.Filename}}">{{.Label}}</a></li>
  {{end}}
</ul>
</body>
</html>
`))
