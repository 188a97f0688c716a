// Package dataset loads training/evaluation records from CSV, JSON,
// and SQLite sources and derives cohort and threshold seeds from bulk
// data. The classification engine itself never ingests; it consumes
// the record slices this package produces.
package dataset

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/abhisek/leveliz/internal/features"
)

// RequiredColumns must all be present in a tabular source; level is
// additionally required for training data.
var RequiredColumns = []string{"user_id", "avg_score", "avg_time", "grade"}

// ErrMissingColumn reports a tabular source without a required column.
type ErrMissingColumn struct {
	Column string
}

func (e *ErrMissingColumn) Error() string {
	return fmt.Sprintf("dataset: missing required column %q", e.Column)
}

// Load dispatches on the file extension: .csv, .json, or a SQLite
// database (.db/.sqlite). requireLabels demands the level column for
// training data.
func Load(path string, requireLabels bool) ([]features.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, requireLabels)
	case ".json":
		return LoadJSON(path, requireLabels)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path, "students", requireLabels)
	default:
		return nil, fmt.Errorf("dataset: unsupported format %q", filepath.Ext(path))
	}
}

// LoadCSV reads records from a headered CSV file. Empty avg_score and
// avg_time cells become missing values for the engine to impute.
func LoadCSV(path string, requireLabels bool) ([]features.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if err := checkColumns(cols, requireLabels); err != nil {
		return nil, err
	}

	var records []features.RawRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		rec := features.RawRecord{UserID: strings.TrimSpace(row[cols["user_id"]])}
		if rec.AvgScore, err = parseOptionalFloat(row[cols["avg_score"]]); err != nil {
			return nil, fmt.Errorf("csv line %d: bad avg_score %q", line, row[cols["avg_score"]])
		}
		if rec.AvgTime, err = parseOptionalFloat(row[cols["avg_time"]]); err != nil {
			return nil, fmt.Errorf("csv line %d: bad avg_time %q", line, row[cols["avg_time"]])
		}

		grade, err := strconv.Atoi(strings.TrimSpace(row[cols["grade"]]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad grade %q", line, row[cols["grade"]])
		}
		rec.Grade = grade

		if idx, ok := cols["level"]; ok && strings.TrimSpace(row[idx]) != "" {
			level, err := strconv.Atoi(strings.TrimSpace(row[idx]))
			if err != nil {
				return nil, fmt.Errorf("csv line %d: bad level %q", line, row[idx])
			}
			rec.Level = level
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadSQLite reads records from a SQLite table with the required
// column layout. The level column is optional for prediction input,
// the same as the CSV and JSON sources.
func LoadSQLite(path, table string, requireLabels bool) ([]features.RawRecord, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cols, err := tableColumns(db, table)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(cols, requireLabels); err != nil {
		return nil, err
	}
	_, hasLevel := cols["level"]

	selected := "user_id, avg_score, avg_time, grade"
	if hasLevel {
		selected += ", level"
	}
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM %q`, selected, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []features.RawRecord
	for rows.Next() {
		var (
			rec   features.RawRecord
			score sql.NullFloat64
			tme   sql.NullFloat64
			level sql.NullInt64
		)
		dest := []any{&rec.UserID, &score, &tme, &rec.Grade}
		if hasLevel {
			dest = append(dest, &level)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if score.Valid {
			rec.AvgScore = &score.Float64
		}
		if tme.Valid {
			rec.AvgTime = &tme.Float64
		}
		if level.Valid {
			rec.Level = int(level.Int64)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if requireLabels {
		for i := range records {
			if records[i].Level == 0 {
				return nil, fmt.Errorf("dataset: row %d (%s) has no level label", i, records[i].UserID)
			}
		}
	}
	return records, nil
}

// tableColumns returns the table's column names from PRAGMA
// table_info, keyed to their column index.
func tableColumns(db *sql.DB, table string) (map[string]int, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]int)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		cols[name] = cid
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset: no such table %q", table)
	}
	return cols, nil
}

func checkColumns(cols map[string]int, requireLabels bool) error {
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			return &ErrMissingColumn{Column: name}
		}
	}
	if requireLabels {
		if _, ok := cols["level"]; !ok {
			return &ErrMissingColumn{Column: "level"}
		}
	}
	return nil
}

// parseOptionalFloat treats an empty cell as a missing value; a
// non-empty cell that fails to parse is an error, not a missing value.
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
