package mockapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	s := NewServer(cfg, slog.Default())
	s.jitter = false
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]any
	code := getJSON(t, ts.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestClientsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Clients []storage.Client `json:"clients"`
		Count   int              `json:"count"`
	}
	code := getJSON(t, ts.URL+"/clients", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, len(storage.SampleClients), body.Count)

	code = getJSON(t, ts.URL+"/clients?active_only=true", &body)
	assert.Equal(t, http.StatusOK, code)
	for _, c := range body.Clients {
		assert.True(t, c.Active)
	}
	assert.Less(t, body.Count, len(storage.SampleClients))
}

func TestClientByID(t *testing.T) {
	ts := newTestServer(t)

	var client storage.Client
	code := getJSON(t, ts.URL+"/clients/1", &client)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Client A", client.ClientName)

	var errBody map[string]any
	code = getJSON(t, ts.URL+"/clients/999", &errBody)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, errBody["error"], "not found")
}

func TestDashboardMarkup(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `id="clientsGrid"`)
	assert.Contains(t, html, `class="client-card"`)
	assert.Contains(t, html, `class="client-name"`)
	assert.Contains(t, html, `class="revenue"`)
	assert.Contains(t, html, "Client A")
	assert.Equal(t, len(storage.SampleClients), strings.Count(html, `class="client-card"`))
}

func TestTestDataEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Records []map[string]any `json:"records"`
		Count   int              `json:"count"`
	}
	code := getJSON(t, ts.URL+"/api/test-data", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Equal(t, 10, body.Count)

	// The dataset deliberately carries one out-of-bound and one negative
	// revenue so downstream quality checks have failures to report.
	assert.Equal(t, 1500000.0, body.Records[8]["revenue"])
	assert.Equal(t, -100.0, body.Records[9]["revenue"])
}

func TestRevenueJitterBounds(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	s := NewServer(cfg, slog.Default())

	base := storage.SampleClients[0]
	for i := 0; i < 100; i++ {
		got := s.withJitter(base).Revenue
		assert.GreaterOrEqual(t, got, base.Revenue*0.95)
		assert.LessOrEqual(t, got, base.Revenue*1.05)
	}
}
