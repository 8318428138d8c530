package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/qainfra/bdd-demo/internal/fileutil"
)

// SampleClients is the canonical demo dataset. The mock API serves the same
// records so that API, database and UI checks agree with each other.
var SampleClients = []Client{
	{ClientID: 1, ClientName: "Client A", Revenue: 150000.50, Region: "North", Active: true, LastUpdated: mustTime("2024-01-15T10:30:00Z")},
	{ClientID: 2, ClientName: "Client B", Revenue: 275000.75, Region: "South", Active: true, LastUpdated: mustTime("2024-01-14T14:20:00Z")},
	{ClientID: 3, ClientName: "Client C", Revenue: 89000.25, Region: "East", Active: false, LastUpdated: mustTime("2024-01-13T09:15:00Z")},
	{ClientID: 4, ClientName: "Client D", Revenue: 420000.00, Region: "West", Active: true, LastUpdated: mustTime("2024-01-16T16:45:00Z")},
	{ClientID: 5, ClientName: "Client E", Revenue: 195000.30, Region: "Central", Active: true, LastUpdated: mustTime("2024-01-12T11:30:00Z")},
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedSampleData writes the sample dataset to csvPath and bulk-loads it into
// the clients table, replacing any existing contents.
func (m *Manager) SeedSampleData(ctx context.Context, csvPath string) error {
	var sb strings.Builder
	sb.WriteString("client_id,client_name,revenue,region,active\n")
	for _, c := range SampleClients {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%t\n",
			c.ClientID, c.ClientName, strconv.FormatFloat(c.Revenue, 'f', 2, 64), c.Region, c.Active))
	}
	if err := fileutil.SaveText(sb.String(), csvPath); err != nil {
		return errors.Wrap(err, "failed to write sample CSV")
	}
	m.log.Info("sample CSV created", "path", csvPath)

	if err := m.LoadCSV(ctx, csvPath, "clients", true); err != nil {
		return errors.Wrap(err, "failed to load sample data")
	}
	m.log.Info("sample data loaded into clients table")
	return nil
}

// Clients returns client records from the clients table, optionally limited
// to active ones.
func (m *Manager) Clients(ctx context.Context, activeOnly bool) ([]Client, error) {
	query := "SELECT client_id, client_name, revenue, region, active FROM clients"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY client_id"

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query clients")
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ClientID, &c.ClientName, &c.Revenue, &c.Region, &c.Active); err != nil {
			return nil, errors.Wrap(err, "failed to scan client")
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
