package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"montecarlo-forecast/internal/config"
	"montecarlo-forecast/internal/data/migrations"
	"montecarlo-forecast/internal/logging"
	"montecarlo-forecast/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for missing tables, metrics or tickers.
var ErrNotFound = errors.New("not found")

// ErrInvalidIdentifier is returned when a table or metric name is not a plain SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const migrationTable = "schema_migrations"

var discard = logging.Discard()

// Columns that describe a row rather than hold a metric value.
var nonMetricColumns = map[string]bool{
	"ticker":     true,
	"year":       true,
	"sector":     true,
	"id":         true,
	"company":    true,
	"date":       true,
	"period":     true,
	"quarter":    true,
	"created_at": true,
}

// SeriesStore reads and writes per-ticker financial metrics in SQLite.
// Each table holds one row per (ticker, year, quarter) and one column per metric.
type SeriesStore struct {
	db  *sql.DB
	Log logrus.FieldLogger
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*SeriesStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SeriesStore{db: db}, nil
}

func (s *SeriesStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SeriesStore) log() logrus.FieldLogger {
	if s.Log == nil {
		return discard
	}
	return s.Log
}

// EnsureTable creates table with the financials schema if it does not exist.
func (s *SeriesStore) EnsureTable(ctx context.Context, table string) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    year INTEGER NOT NULL,
    quarter TEXT NOT NULL DEFAULT 'FY',
    sector TEXT,
    created_at INTEGER,
    UNIQUE (ticker, year, quarter)
)`, table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// columns returns the table's columns in declaration order.
func (s *SeriesStore) columns(ctx context.Context, table string) ([]string, error) {
	if err := checkIdent("table", table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, ErrNotFound)
	}
	return cols, nil
}

// ListMetrics returns the metric columns of table, skipping descriptive
// columns such as ticker, year and sector.
func (s *SeriesStore) ListMetrics(ctx context.Context, table string) ([]string, error) {
	cols, err := s.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !nonMetricColumns[strings.ToLower(c)] && config.ValidIdentifier(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *SeriesStore) hasMetric(ctx context.Context, table, metric string) error {
	if err := checkIdent("metric", metric); err != nil {
		return err
	}
	metrics, err := s.ListMetrics(ctx, table)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		if strings.EqualFold(m, metric) {
			return nil
		}
	}
	return fmt.Errorf("metric %s in table %s: %w", metric, table, ErrNotFound)
}

func (s *SeriesStore) distinct(ctx context.Context, table, column string) ([]string, error) {
	if _, err := s.columns(ctx, table); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL AND %[1]s != 'N/A' ORDER BY %[1]s", column, table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListTickers returns the distinct tickers present in table.
func (s *SeriesStore) ListTickers(ctx context.Context, table string) ([]string, error) {
	return s.distinct(ctx, table, "ticker")
}

// ListSectors returns the distinct known sectors present in table.
func (s *SeriesStore) ListSectors(ctx context.Context, table string) ([]string, error) {
	return s.distinct(ctx, table, "sector")
}

// LoadSeries returns the ticker's values of metric ordered by ascending year.
// NULL, 'N/A' and non-numeric cells are skipped.
func (s *SeriesStore) LoadSeries(ctx context.Context, table, ticker, metric string) (model.HistoricalSeries, error) {
	if err := s.hasMetric(ctx, table, metric); err != nil {
		return model.HistoricalSeries{}, err
	}
	q := fmt.Sprintf(
		"SELECT year, CAST(%[1]s AS TEXT) FROM %[2]s WHERE ticker = ? AND %[1]s IS NOT NULL AND %[1]s != 'N/A' ORDER BY year ASC",
		metric, table)
	rows, err := s.db.QueryContext(ctx, q, ticker)
	if err != nil {
		return model.HistoricalSeries{}, fmt.Errorf("load %s %s: %w", ticker, metric, err)
	}
	defer rows.Close()

	series := model.HistoricalSeries{Ticker: ticker, Metric: metric}
	skipped := 0
	for rows.Next() {
		var (
			year int
			raw  string
		)
		if err := rows.Scan(&year, &raw); err != nil {
			return model.HistoricalSeries{}, err
		}
		v, ok := parseValue(raw)
		if !ok {
			skipped++
			continue
		}
		series.Observations = append(series.Observations, model.Observation{Period: year, Value: v})
	}
	if err := rows.Err(); err != nil {
		return model.HistoricalSeries{}, err
	}

	s.log().WithFields(logrus.Fields{
		"table":   table,
		"ticker":  ticker,
		"metric":  metric,
		"points":  series.Len(),
		"skipped": skipped,
	}).Debug("loaded series")
	return series, nil
}

// LoadMetrics returns every metric of ticker over its latest limit years,
// oldest first. Metrics with no numeric values are omitted.
func (s *SeriesStore) LoadMetrics(ctx context.Context, table, ticker string, limit int) (map[string][]float64, error) {
	metrics, err := s.ListMetrics(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return map[string][]float64{}, nil
	}
	if limit < 1 {
		limit = 5
	}

	sel := make([]string, len(metrics))
	for i, m := range metrics {
		sel[i] = fmt.Sprintf("CAST(%s AS TEXT)", m)
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ticker = ? AND year IS NOT NULL ORDER BY year DESC LIMIT ?",
		strings.Join(sel, ", "), table)
	rows, err := s.db.QueryContext(ctx, q, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("load metrics for %s: %w", ticker, err)
	}
	defer rows.Close()

	var byRow [][]sql.NullString
	for rows.Next() {
		cells := make([]sql.NullString, len(metrics))
		dest := make([]any, len(metrics))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		byRow = append(byRow, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := map[string][]float64{}
	for r := len(byRow) - 1; r >= 0; r-- {
		for i, cell := range byRow[r] {
			if !cell.Valid {
				continue
			}
			if v, ok := parseValue(cell.String); ok {
				out[metrics[i]] = append(out[metrics[i]], v)
			}
		}
	}
	return out, nil
}

// LoadSectorValues returns metric for every ticker in sector for one year,
// keyed by ticker.
func (s *SeriesStore) LoadSectorValues(ctx context.Context, table, sector, metric string, year int) (map[string]float64, error) {
	if err := s.hasMetric(ctx, table, metric); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		"SELECT ticker, CAST(%[1]s AS TEXT) FROM %[2]s WHERE sector = ? AND year = ? AND %[1]s IS NOT NULL AND %[1]s != 'N/A' ORDER BY ticker",
		metric, table)
	rows, err := s.db.QueryContext(ctx, q, sector, year)
	if err != nil {
		return nil, fmt.Errorf("load sector %s: %w", sector, err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var ticker, raw string
		if err := rows.Scan(&ticker, &raw); err != nil {
			return nil, err
		}
		if v, ok := parseValue(raw); ok {
			out[ticker] = v
		}
	}
	return out, rows.Err()
}

// UpsertObservations writes obs as annual ('FY') rows of metric for ticker,
// adding the metric column when the table lacks it.
func (s *SeriesStore) UpsertObservations(ctx context.Context, table, ticker, metric string, obs []model.Observation) error {
	if err := checkIdent("metric", metric); err != nil {
		return err
	}
	if strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	if nonMetricColumns[strings.ToLower(metric)] {
		return fmt.Errorf("metric %s: reserved column name", metric)
	}
	if err := s.EnsureTable(ctx, table); err != nil {
		return err
	}
	if err := s.hasMetric(ctx, table, metric); errors.Is(err, ErrNotFound) {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s NUMERIC", table, metric)); err != nil {
			return fmt.Errorf("add column %s: %w", metric, err)
		}
	} else if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt := fmt.Sprintf(
		`INSERT INTO %[1]s (ticker, year, quarter, %[2]s, created_at) VALUES (?, ?, 'FY', ?, ?)
		 ON CONFLICT (ticker, year, quarter) DO UPDATE SET %[2]s = excluded.%[2]s`,
		table, metric)
	now := time.Now().UTC().UnixMilli()
	for _, o := range obs {
		if _, err := tx.ExecContext(ctx, stmt, ticker, o.Period, decimal.NewFromFloat(o.Value), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s %s %d: %w", ticker, metric, o.Period, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	s.log().WithFields(logrus.Fields{
		"table":  table,
		"ticker": ticker,
		"metric": metric,
		"rows":   len(obs),
	}).Info("stored observations")
	return nil
}

// SetSector tags every row of ticker with sector.
func (s *SeriesStore) SetSector(ctx context.Context, table, ticker, sector string) error {
	if _, err := s.columns(ctx, table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET sector = ? WHERE ticker = ?", table), sector, ticker)
	if err != nil {
		return fmt.Errorf("set sector for %s: %w", ticker, err)
	}
	return nil
}

// parseValue parses a stored cell. Stored values may be integers, reals in
// exponent form, or free text such as 'N/A'.
func parseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func checkIdent(field, name string) error {
	if !config.ValidIdentifier(name) {
		return fmt.Errorf("%s %q: %w", field, name, ErrInvalidIdentifier)
	}
	return nil
}

func applyMigrations(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`, migrationTable)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var found int
		err := db.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upSection(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec("INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)", file, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upSection returns the SQL between the Up and Down markers.
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	if i := strings.Index(content, up); i >= 0 {
		content = content[i+len(up):]
	}
	if i := strings.Index(content, down); i >= 0 {
		content = content[:i]
	}
	return content
}
