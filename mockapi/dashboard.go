package mockapi

import (
	"html/template"
	"net/http"

	"github.com/qainfra/bdd-demo/storage"
)

// handleDashboard renders the HTML page the UI validator drives. The element
// ids and class names here are load-bearing: the browser checks select on
// #clientsGrid, .client-card, .client-name and .revenue.
func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	clients := make([]storage.Client, 0, len(storage.SampleClients))
	for _, c := range storage.SampleClients {
		clients = append(clients, s.withJitter(c))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, clients); err != nil {
		s.log.Error("failed to render dashboard", "err", err)
	}
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Client Dashboard</title>
<style>
  body { font-family: Arial, sans-serif; margin: 24px; background: #fafafa; }
  h1 { color: #333; }
  #clientsGrid { display: flex; flex-wrap: wrap; gap: 16px; }
  .client-card { background: #fff; border: 1px solid #ddd; border-radius: 8px; padding: 16px; width: 220px; }
  .client-name { font-weight: bold; font-size: 1.1em; margin-bottom: 8px; }
  .revenue { color: #2e7d32; margin-bottom: 4px; }
  .region { color: #666; font-size: 0.9em; }
  .status { font-size: 0.85em; margin-top: 6px; }
  .status.active { color: #2e7d32; }
  .status.inactive { color: #c62828; }
</style>
</head>
<body>
<h1>Client Dashboard</h1>
<div id="clientsGrid">
  {{range .}}
  <div class="client-card">
    <div class="client-name">{{.ClientName}}</div>
    <div class="revenue">Revenue: ${{printf "%.2f" .Revenue}}</div>
    <div class="region">Region: {{.Region}}</div>
    <div class="status {{if .Active}}active{{else}}inactive{{end}}">
      {{if .Active}}Active{{else}}Inactive{{end}}
    </div>
  </div>
  {{end}}
</div>
</body>
</html>
`))
