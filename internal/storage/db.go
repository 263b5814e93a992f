package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"worldprod/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "storage: create dir for %s", path)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "storage: open sqlite")
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "storage: enable wal")
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "storage: init schema")
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL,
  inputDir TEXT,
  outputPath TEXT,
  reportYaml TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS skipped_tables (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  tableId TEXT NOT NULL,
  reason TEXT NOT NULL,
  detail TEXT,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_skipped_run ON skipped_tables(runId);

CREATE TABLE IF NOT EXISTS dataset_values (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  source TEXT NOT NULL,
  entity TEXT NOT NULL,
  category TEXT NOT NULL,
  metric TEXT NOT NULL,
  unit TEXT NOT NULL,
  yearColumn TEXT NOT NULL,
  value REAL,
  UNIQUE(runId, rowNo, yearColumn),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_dataset_run ON dataset_values(runId, rowNo);

CREATE TABLE IF NOT EXISTS lookup_entries (
  page INTEGER PRIMARY KEY,
  category TEXT NOT NULL,
  unit TEXT NOT NULL,
  origin TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

type RunRow struct {
	ID         string
	Status     string
	StartedAt  string
	FinishedAt string
	InputDir   string
	OutputPath string
	ReportYAML string
}

type SkippedRow struct {
	TableID string
	Reason  string
	Detail  string
}

func (d *DB) InsertRun(run RunRow, skipped []SkippedRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return eris.Wrap(err, "storage: begin insert run")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO runs (id, status, startedAt, finishedAt, inputDir, outputPath, reportYaml)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.StartedAt, run.FinishedAt, run.InputDir, run.OutputPath, run.ReportYAML,
	); err != nil {
		return eris.Wrapf(err, "storage: insert run %s", run.ID)
	}

	for _, s := range skipped {
		if _, err := tx.Exec(`INSERT INTO skipped_tables (runId, tableId, reason, detail) VALUES (?, ?, ?, ?)`,
			run.ID, s.TableID, s.Reason, s.Detail); err != nil {
			return eris.Wrapf(err, "storage: insert skipped table %s", s.TableID)
		}
	}
	return tx.Commit()
}

func (d *DB) GetRun(id string) (*RunRow, error) {
	var r RunRow
	var inputDir, outputPath sql.NullString
	err := d.conn.QueryRow(`
SELECT id, status, startedAt, finishedAt, inputDir, outputPath, reportYaml
FROM runs WHERE id = ?`, id).Scan(&r.ID, &r.Status, &r.StartedAt, &r.FinishedAt, &inputDir, &outputPath, &r.ReportYAML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "storage: get run %s", id)
	}
	r.InputDir = inputDir.String
	r.OutputPath = outputPath.String
	return &r, nil
}

// LatestRunID returns "" when no run has been recorded.
func (d *DB) LatestRunID() (string, error) {
	var id string
	err := d.conn.QueryRow(`SELECT id FROM runs ORDER BY startedAt DESC, createdAt DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "storage: latest run")
	}
	return id, nil
}

func (d *DB) ListSkipped(runID string) ([]SkippedRow, error) {
	rows, err := d.conn.Query(`SELECT tableId, reason, detail FROM skipped_tables WHERE runId = ? ORDER BY id`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list skipped")
	}
	defer rows.Close()

	var out []SkippedRow
	for rows.Next() {
		var s SkippedRow
		var detail sql.NullString
		if err := rows.Scan(&s.TableID, &s.Reason, &detail); err != nil {
			return nil, err
		}
		s.Detail = detail.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertDataset stores one row per record and year column. Null values are
// stored as NULL so all-null columns survive a reload.
func (d *DB) InsertDataset(runID string, ds internal.Dataset) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return eris.Wrap(err, "storage: begin insert dataset")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO dataset_values (runId, rowNo, source, entity, category, metric, unit, yearColumn, value)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "storage: prepare dataset insert")
	}
	defer stmt.Close()

	for i, rec := range ds.Records {
		k := rec.Key
		for _, col := range ds.YearColumns {
			if _, err := stmt.Exec(runID, i, k.Source, k.Entity, k.Category, k.Metric, k.Unit, col, rec.Values[col]); err != nil {
				return eris.Wrapf(err, "storage: insert dataset row %d", i)
			}
		}
	}
	return tx.Commit()
}

func (d *DB) GetDataset(runID string) (internal.Dataset, error) {
	rows, err := d.conn.Query(`
SELECT rowNo, source, entity, category, metric, unit, yearColumn, value
FROM dataset_values WHERE runId = ? ORDER BY rowNo, yearColumn`, runID)
	if err != nil {
		return internal.Dataset{}, eris.Wrapf(err, "storage: get dataset %s", runID)
	}
	defer rows.Close()

	var ds internal.Dataset
	cols := map[string]struct{}{}
	lastRow := -1
	for rows.Next() {
		var rowNo int
		var k internal.RecordKey
		var col string
		var value sql.NullFloat64
		if err := rows.Scan(&rowNo, &k.Source, &k.Entity, &k.Category, &k.Metric, &k.Unit, &col, &value); err != nil {
			return internal.Dataset{}, err
		}
		if rowNo != lastRow {
			ds.Records = append(ds.Records, internal.FinalRecord{Key: k, Values: map[string]*float64{}})
			lastRow = rowNo
		}
		var v *float64
		if value.Valid {
			f := value.Float64
			v = &f
		}
		ds.Records[len(ds.Records)-1].Values[col] = v
		cols[col] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return internal.Dataset{}, err
	}

	for col := range cols {
		ds.YearColumns = append(ds.YearColumns, col)
	}
	sort.Strings(ds.YearColumns)
	return ds, nil
}

// UpsertLookupEntries replaces entries by page. origin records where they came
// from ("file", "api").
func (d *DB) UpsertLookupEntries(entries []internal.LookupEntry, origin string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return eris.Wrap(err, "storage: begin upsert lookup")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO lookup_entries (page, category, unit, origin, updatedAt)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(page) DO UPDATE SET
  category=excluded.category,
  unit=excluded.unit,
  origin=excluded.origin,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return eris.Wrap(err, "storage: prepare lookup upsert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Page, e.Category, e.Unit, origin); err != nil {
			return eris.Wrapf(err, "storage: upsert lookup page %d", e.Page)
		}
	}
	return tx.Commit()
}

func (d *DB) ListLookupEntries() ([]internal.LookupEntry, error) {
	rows, err := d.conn.Query(`SELECT page, category, unit FROM lookup_entries ORDER BY page`)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list lookup entries")
	}
	defer rows.Close()

	var out []internal.LookupEntry
	for rows.Next() {
		var e internal.LookupEntry
		if err := rows.Scan(&e.Page, &e.Category, &e.Unit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
