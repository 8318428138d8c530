// Package storage provides database access for the demo: a thin CRUD layer
// over SQLite (or an external SQL engine when configured), CSV-to-table
// loading and sample data seeding.
package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/internal/fileutil"
)

// Client is a single client record as stored in the clients table and
// served by the mock API.
type Client struct {
	ClientID    int       `json:"client_id"`
	ClientName  string    `json:"client_name"`
	Revenue     float64   `json:"revenue"`
	Region      string    `json:"region"`
	Active      bool      `json:"active"`
	LastUpdated time.Time `json:"last_updated"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableInfo bundles table metadata used by the data-quality checks.
type TableInfo struct {
	TableName string       `json:"table_name"`
	RowCount  int          `json:"row_count"`
	Columns   []ColumnInfo `json:"columns"`
}

// Manager owns a database connection. Callers must Close it; there is no
// pooling beyond what database/sql provides and no retry on failures.
type Manager struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to the configured database backend.
func Open(cfg *config.Config, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}

	if cfg.UseSQLServer {
		// The demo build bundles only the SQLite driver. An external SQL
		// engine requires linking its driver in; surface that instead of a
		// cryptic "unknown driver" from database/sql.
		return nil, errors.New("external SQL engine support is not bundled in this build; unset USE_SQL_SERVER")
	}

	if err := fileutil.EnsureDir(filepath.Dir(cfg.SQLiteDBPath)); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", cfg.SQLiteDBPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to sqlite database")
	}

	log.Info("connected to database", "path", cfg.SQLiteDBPath)
	return &Manager{db: db, log: log}, nil
}

// OpenPath opens a SQLite database at an explicit path. Used by tests and
// tooling that does not carry a full Config.
func OpenPath(path string, log *slog.Logger) (*Manager, error) {
	cfg := &config.Config{SQLiteDBPath: path}
	return Open(cfg, log)
}

// Close releases the underlying connection.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Query runs a SELECT and returns rows as column-name keyed maps.
func (m *Manager) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read result columns")
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		record := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			// SQLite hands text back as []byte.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[col] = v
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Exec runs an INSERT, UPDATE or DELETE statement.
func (m *Manager) Exec(ctx context.Context, query string, args ...any) error {
	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "statement failed")
	}
	if n, err := res.RowsAffected(); err == nil {
		m.log.Debug("statement executed", "rows_affected", n)
	}
	return nil
}

// TableCount returns the row count of a table.
func (m *Manager) TableCount(ctx context.Context, table string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table) //nolint:gosec // table names come from demo config, not user input
	if err := m.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "failed to count rows in %s", table)
	}
	return count, nil
}

// TableInfo returns table metadata: row count plus column details.
func (m *Manager) TableInfo(ctx context.Context, table string) (*TableInfo, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema of %s", table)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, errors.Wrap(err, "failed to scan column info")
		}
		cols = append(cols, ColumnInfo{Name: name, Type: typ, Nullable: notNull == 0})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.Errorf("table %s not found", table)
	}

	count, err := m.TableCount(ctx, table)
	if err != nil {
		return nil, err
	}

	return &TableInfo{TableName: table, RowCount: count, Columns: cols}, nil
}

// LoadCSV loads a CSV file into a table, inferring column types from the
// first data row. When replace is set an existing table is dropped first.
func (m *Manager) LoadCSV(ctx context.Context, csvPath, table string, replace bool) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return errors.Wrap(err, "failed to read CSV header")
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to read CSV row")
		}
		records = append(records, record)
	}
	m.log.Info("loaded CSV", "path", csvPath, "rows", len(records), "columns", len(header))

	if replace {
		if err := m.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return err
		}
	}
	if err := m.Exec(ctx, createTableStatement(table, header, records)); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(header, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, record := range records {
		args := make([]any, len(record))
		for i, field := range record {
			args[i] = convertCSVField(field)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrap(err, "failed to insert CSV row")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit CSV load")
	}

	m.log.Info("CSV loaded into table", "table", table, "rows", len(records))
	return nil
}

// createTableStatement builds a CREATE TABLE from the header and the
// inferred type of each column.
func createTableStatement(table string, header []string, records [][]string) string {
	cols := make([]string, len(header))
	for i, name := range header {
		cols[i] = fmt.Sprintf("%s %s", name, inferColumnType(records, i))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
}

func inferColumnType(records [][]string, col int) string {
	if len(records) == 0 || col >= len(records[0]) {
		return "TEXT"
	}
	sample := records[0][col]
	if _, err := strconv.ParseInt(sample, 10, 64); err == nil {
		return "INTEGER"
	}
	if _, err := strconv.ParseFloat(sample, 64); err == nil {
		return "REAL"
	}
	if _, err := strconv.ParseBool(sample); err == nil {
		return "BOOLEAN"
	}
	return "TEXT"
}

func convertCSVField(field string) any {
	if v, err := strconv.ParseInt(field, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(field); err == nil {
		return v
	}
	return field
}
