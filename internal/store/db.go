package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"epidash/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Dataset names of the observations table
const (
	DatasetRegions    = "regions"
	DatasetFacilities = "facilities"
)

// Store is the sqlite catalog of imported simulation data
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite file at dbPath and creates missing tables.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; the import stages write concurrently
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	importTable := `
	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		row_count INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS import_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		import_id TEXT,
		stage TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	facilityTable := `
	CREATE TABLE IF NOT EXISTS facilities (
		name TEXT PRIMARY KEY,
		capacity REAL
	);
	`
	cols := make([]string, 0, model.MeasureCount)
	for _, m := range model.Measures() {
		cols = append(cols, fmt.Sprintf("%s REAL DEFAULT 0", m))
	}
	observationTable := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS observations (
		dataset TEXT,
		obs_key TEXT,
		period INTEGER,
		age_group TEXT,
		%s,
		PRIMARY KEY (dataset, obs_key, period, age_group)
	);
	`, strings.Join(cols, ",\n\t\t"))

	for _, stmt := range []string{importTable, errorTable, facilityTable, observationTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveImport stores a new import run
func (s *Store) SaveImport(id string, spec model.ImportSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO imports (id, spec, status, row_count, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		id, specJSON, model.ImportPending, now, now)
	return err
}

// UpdateImportStatus updates the status of an import run
func (s *Store) UpdateImportStatus(id, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE imports SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	return err
}

// CompleteImport marks a run completed with its stored row count
func (s *Store) CompleteImport(id string, rows int64) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE imports SET status = ?, row_count = ?, updated_at = ? WHERE id = ?`,
		model.ImportCompleted, rows, now, id)
	return err
}

// SaveImportError records an error for an import run
func (s *Store) SaveImportError(id, stage string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.Exec(`INSERT INTO import_errors (import_id, stage, error_message, created_at) VALUES (?, ?, ?, ?)`,
		id, stage, err.Error(), now)
	return e
}

// ListImports returns all import runs, newest first
func (s *Store) ListImports() ([]model.ImportRun, error) {
	rows, err := s.db.Query(`SELECT id, spec, status, row_count, created_at, updated_at FROM imports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []model.ImportRun{}
	for rows.Next() {
		run, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetImport fetches one import run; sql.ErrNoRows when it does not exist
func (s *Store) GetImport(id string) (model.ImportRun, error) {
	row := s.db.QueryRow(`SELECT id, spec, status, row_count, created_at, updated_at FROM imports WHERE id = ?`, id)
	return scanImport(row)
}

// GetImportErrors returns the errors recorded for an import run
func (s *Store) GetImportErrors(id string) ([]model.ImportError, error) {
	rows, err := s.db.Query(`SELECT id, import_id, stage, error_message, created_at FROM import_errors WHERE import_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ImportError{}
	for rows.Next() {
		var e model.ImportError
		if err := rows.Scan(&e.ID, &e.ImportID, &e.Stage, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanImport(row scanner) (model.ImportRun, error) {
	var run model.ImportRun
	var specJSON string
	if err := row.Scan(&run.ID, &specJSON, &run.Status, &run.Rows, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return model.ImportRun{}, err
	}
	if err := json.Unmarshal([]byte(specJSON), &run.Spec); err != nil {
		return model.ImportRun{}, err
	}
	return run, nil
}

// InsertObservations upserts a batch of observations into dataset in one
// transaction.
func (s *Store) InsertObservations(ctx context.Context, dataset string, obs []model.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	cols := []string{"dataset", "obs_key", "period", "age_group"}
	for _, m := range model.Measures() {
		cols = append(cols, m.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(`INSERT OR REPLACE INTO observations (%s) VALUES (%s)`, strings.Join(cols, ", "), placeholders)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for _, o := range obs {
		args[0], args[1], args[2], args[3] = dataset, o.Key, o.Period, o.AgeGroup
		for i, v := range o.Values {
			args[4+i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert observation %s/%d/%s: %w", o.Key, o.Period, o.AgeGroup, err)
		}
	}
	return tx.Commit()
}

// InsertFacilities upserts facility capacities
func (s *Store) InsertFacilities(ctx context.Context, facilities []model.Facility) error {
	if len(facilities) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, f := range facilities {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO facilities (name, capacity) VALUES (?, ?)`, f.Name, f.Capacity); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadObservations reads every observation of dataset, ordered by period.
func (s *Store) LoadObservations(ctx context.Context, dataset string) ([]model.Observation, error) {
	cols := []string{"obs_key", "period", "age_group"}
	for _, m := range model.Measures() {
		cols = append(cols, m.String())
	}
	query := fmt.Sprintf(`SELECT %s FROM observations WHERE dataset = ? ORDER BY period, obs_key, age_group`, strings.Join(cols, ", "))
	rows, err := s.db.QueryContext(ctx, query, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		dest := []interface{}{&o.Key, &o.Period, &o.AgeGroup}
		for i := range o.Values {
			dest = append(dest, &o.Values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LoadFacilities reads all facilities ordered by name
func (s *Store) LoadFacilities(ctx context.Context) ([]model.Facility, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, capacity FROM facilities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Facility
	for rows.Next() {
		var f model.Facility
		if err := rows.Scan(&f.Name, &f.Capacity); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountObservations returns the number of rows stored for dataset
func (s *Store) CountObservations(ctx context.Context, dataset string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations WHERE dataset = ?`, dataset).Scan(&n)
	return n, err
}
