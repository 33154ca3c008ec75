/*
Package sqlite provides the SQLite-backed leave-record store.

PURPOSE:
  Implements leave.RecordStore and leave.AdmissionStore for single-node
  deployments. The engine itself never sees this package - handlers
  fetch snapshots here, evaluate with the pure engine, then admit here.

ADMISSION SERIALIZATION:
  The read-then-decide race is closed with optimistic concurrency:
  roster_period_versions carries a counter per roster-period code.
  Admit runs one SQL transaction that
    1. re-reads the version of every affected period,
    2. aborts with leave.ErrConcurrentAdmission on any mismatch,
    3. inserts the record and bumps the counters.
  Status transitions bump the same counters so stale snapshots that
  counted (or ignored) the record are invalidated too.

KEY TABLES:
  leave_records:          one row per leave request
  roster_period_versions: per-period admission counters

WAL MODE:
  Opened with WAL so readers don't block the single writer. A process
  mutex serializes writers; SQLite would otherwise surface SQLITE_BUSY
  under concurrent admissions.

USAGE:
  store, err := sqlite.New("./data/roster.db", calc)
  defer store.Close()
  Use ":memory:" for tests.

SEE ALSO:
  - leave/store.go: the contracts and error semantics
  - store/postgres: the multi-node variant with advisory locks
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// Store implements leave.AdmissionStore on SQLite.
type Store struct {
	db   *sql.DB
	calc *roster.Calculator
	mu   sync.Mutex // serializes writers; readers go through WAL
}

var _ leave.AdmissionStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and migrates the
// schema. Use ":memory:" for an in-memory database.
func New(dbPath string, calc *roster.Calculator) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, calc: calc}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_records (
		id TEXT PRIMARY KEY,
		pilot_id TEXT NOT NULL,
		role TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		request_type TEXT NOT NULL,
		submitted_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_records_range
		ON leave_records(start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_leave_records_pilot
		ON leave_records(pilot_id);

	CREATE TABLE IF NOT EXISTS roster_period_versions (
		code TEXT PRIMARY KEY,
		version INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (s *Store) RecordsOverlapping(ctx context.Context, from, to roster.Date) ([]leave.LeaveRecord, error) {
	if err := roster.ValidateRange(from, to); err != nil {
		return nil, err
	}

	// Interval overlap on ISO-8601 text dates: lexical order == date order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pilot_id, role, start_date, end_date, status, request_type, submitted_at
		FROM leave_records
		WHERE end_date >= ? AND start_date <= ?
		ORDER BY start_date, id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []leave.LeaveRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Record(ctx context.Context, id string) (leave.LeaveRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pilot_id, role, start_date, end_date, status, request_type, submitted_at
		FROM leave_records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.LeaveRecord{}, leave.ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) PeriodVersions(ctx context.Context, codes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(codes))
	for _, code := range codes {
		var version int64
		err := s.db.QueryRowContext(ctx,
			`SELECT version FROM roster_period_versions WHERE code = ?`, code).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			version = 0
		} else if err != nil {
			return nil, fmt.Errorf("failed to read period version %s: %w", code, err)
		}
		out[code] = version
	}
	return out, nil
}

// =============================================================================
// ADMISSION
// =============================================================================

func (s *Store) Admit(ctx context.Context, record leave.LeaveRecord, expectedVersions map[string]int64) (leave.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to begin admission: %w", err)
	}
	defer tx.Rollback()

	// Re-check the caller's snapshot inside the transaction.
	for code, expected := range expectedVersions {
		current, err := periodVersionTx(ctx, tx, code)
		if err != nil {
			return leave.LeaveRecord{}, err
		}
		if current != expected {
			return leave.LeaveRecord{}, leave.ErrConcurrentAdmission
		}
	}

	submitted := sql.NullString{}
	if !record.SubmittedAt.IsZero() {
		submitted = sql.NullString{String: record.SubmittedAt.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leave_records
			(id, pilot_id, role, start_date, end_date, status, request_type, submitted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, string(record.PilotID), string(record.Role),
		record.StartDate.String(), record.EndDate.String(),
		string(record.Status), string(record.Type),
		submitted, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to insert record: %w", err)
	}

	if err := s.bumpPeriodsTx(ctx, tx, record); err != nil {
		return leave.LeaveRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to commit admission: %w", err)
	}
	return record, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status leave.LeaveStatus) (leave.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to begin status update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, pilot_id, role, start_date, end_date, status, request_type, submitted_at
		FROM leave_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.LeaveRecord{}, leave.ErrRecordNotFound
	}
	if err != nil {
		return leave.LeaveRecord{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE leave_records SET status = ? WHERE id = ?`, string(status), id); err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to update status: %w", err)
	}
	rec.Status = status

	if err := s.bumpPeriodsTx(ctx, tx, rec); err != nil {
		return leave.LeaveRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("failed to commit status update: %w", err)
	}
	return rec, nil
}

// bumpPeriodsTx advances the version of every roster period the record
// touches, creating counters on first sight.
func (s *Store) bumpPeriodsTx(ctx context.Context, tx *sql.Tx, rec leave.LeaveRecord) error {
	periods, err := s.calc.PeriodsOverlapping(rec.StartDate, rec.EndDate)
	if err != nil {
		return err
	}
	for _, p := range periods {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO roster_period_versions (code, version) VALUES (?, 1)
			ON CONFLICT(code) DO UPDATE SET version = version + 1`, p.Code)
		if err != nil {
			return fmt.Errorf("failed to bump period %s: %w", p.Code, err)
		}
	}
	return nil
}

func periodVersionTx(ctx context.Context, tx *sql.Tx, code string) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx,
		`SELECT version FROM roster_period_versions WHERE code = ?`, code).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read period version %s: %w", code, err)
	}
	return version, nil
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (leave.LeaveRecord, error) {
	var (
		rec                 leave.LeaveRecord
		pilot, role         string
		start, end          string
		status, requestType string
		submitted           sql.NullString
	)
	if err := row.Scan(&rec.ID, &pilot, &role, &start, &end, &status, &requestType, &submitted); err != nil {
		return leave.LeaveRecord{}, err
	}

	var err error
	if rec.StartDate, err = roster.ParseDate(start); err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("corrupt start_date %q: %w", start, err)
	}
	if rec.EndDate, err = roster.ParseDate(end); err != nil {
		return leave.LeaveRecord{}, fmt.Errorf("corrupt end_date %q: %w", end, err)
	}
	if submitted.Valid {
		if rec.SubmittedAt, err = roster.ParseDate(submitted.String); err != nil {
			return leave.LeaveRecord{}, fmt.Errorf("corrupt submitted_at %q: %w", submitted.String, err)
		}
	}

	rec.PilotID = leave.PilotID(pilot)
	rec.Role = leave.Role(role)
	rec.Status = leave.LeaveStatus(status)
	rec.Type = leave.RequestType(requestType)
	return rec, nil
}
