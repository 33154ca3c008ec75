/*
Package postgres provides the PostgreSQL-backed leave-record store.

PURPOSE:
  The multi-node variant of the admission layer. Where the SQLite
  store relies on a process mutex, this one serializes admission per
  roster period with transaction-scoped advisory locks: every Admit
  takes pg_advisory_xact_lock on each affected period code before the
  version check, so two nodes racing into the same period queue up
  instead of both passing a stale check.

SCHEMA:
  Migrated on New(). Same shape as the SQLite store: leave_records
  plus roster_period_versions.

SEE ALSO:
  - leave/store.go: the contracts and error semantics
  - store/sqlite: the single-node variant
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// Store implements leave.AdmissionStore on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	calc *roster.Calculator
}

var _ leave.AdmissionStore = (*Store)(nil)

// New connects to the database and migrates the schema.
func New(ctx context.Context, connString string, calc *roster.Calculator) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool, calc: calc}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leave_records (
			id TEXT PRIMARY KEY,
			pilot_id TEXT NOT NULL,
			role TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status TEXT NOT NULL,
			request_type TEXT NOT NULL,
			submitted_at DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_leave_records_range
			ON leave_records(start_date, end_date);
		CREATE INDEX IF NOT EXISTS idx_leave_records_pilot
			ON leave_records(pilot_id);

		CREATE TABLE IF NOT EXISTS roster_period_versions (
			code TEXT PRIMARY KEY,
			version BIGINT NOT NULL DEFAULT 0
		);
	`)
	return err
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (s *Store) RecordsOverlapping(ctx context.Context, from, to roster.Date) ([]leave.LeaveRecord, error) {
	if err := roster.ValidateRange(from, to); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, pilot_id, role, start_date, end_date, status, request_type, submitted_at
		FROM leave_records
		WHERE end_date >= $1 AND start_date <= $2
		ORDER BY start_date, id`,
		from.Time(), to.Time())
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
	row := s.pool.QueryRow(ctx, `
		SELECT id, pilot_id, role, start_date, end_date, status, request_type, submitted_at
		FROM leave_records WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.LeaveRecord{}, leave.ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) PeriodVersions(ctx context.Context, codes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(codes))
	for _, code := range codes {
		var version int64
		err := s.pool.QueryRow(ctx,
			`SELECT version FROM roster_period_versions WHERE code = $1`, code).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
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
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Advisory locks first: admissions into the same period queue
		// up here instead of both passing a stale version check.
		for code := range expectedVersions {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, code); err != nil {
				return fmt.Errorf("failed to lock period %s: %w", code, err)
			}
		}

		for code, expected := range expectedVersions {
			current, err := periodVersionTx(ctx, tx, code)
			if err != nil {
				return err
			}
			if current != expected {
				return leave.ErrConcurrentAdmission
			}
		}

		var submitted any
		if !record.SubmittedAt.IsZero() {
			submitted = record.SubmittedAt.Time()
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO leave_records
				(id, pilot_id, role, start_date, end_date, status, request_type, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			record.ID, string(record.PilotID), string(record.Role),
			record.StartDate.Time(), record.EndDate.Time(),
			string(record.Status), string(record.Type), submitted); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}

		return s.bumpPeriodsTx(ctx, tx, record)
	})
	if err != nil {
		return leave.LeaveRecord{}, err
	}
	return record, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status leave.LeaveStatus) (leave.LeaveRecord, error) {
	var rec leave.LeaveRecord

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, pilot_id, role, start_date, end_date, status, request_type, submitted_at
			FROM leave_records WHERE id = $1 FOR UPDATE`, id)

		var err error
		rec, err = scanRecord(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE leave_records SET status = $1 WHERE id = $2`, string(status), id); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		rec.Status = status

		return s.bumpPeriodsTx(ctx, tx, rec)
	})
	if err != nil {
		return leave.LeaveRecord{}, err
	}
	return rec, nil
}

func (s *Store) bumpPeriodsTx(ctx context.Context, tx pgx.Tx, rec leave.LeaveRecord) error {
	periods, err := s.calc.PeriodsOverlapping(rec.StartDate, rec.EndDate)
	if err != nil {
		return err
	}
	for _, p := range periods {
		_, err := tx.Exec(ctx, `
			INSERT INTO roster_period_versions (code, version) VALUES ($1, 1)
			ON CONFLICT (code) DO UPDATE SET version = roster_period_versions.version + 1`, p.Code)
		if err != nil {
			return fmt.Errorf("failed to bump period %s: %w", p.Code, err)
		}
	}
	return nil
}

func periodVersionTx(ctx context.Context, tx pgx.Tx, code string) (int64, error) {
	var version int64
	err := tx.QueryRow(ctx,
		`SELECT version FROM roster_period_versions WHERE code = $1`, code).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
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
		start, end          time.Time
		status, requestType string
		submitted           *time.Time
	)
	if err := row.Scan(&rec.ID, &pilot, &role, &start, &end, &status, &requestType, &submitted); err != nil {
		return leave.LeaveRecord{}, err
	}

	rec.PilotID = leave.PilotID(pilot)
	rec.Role = leave.Role(role)
	rec.StartDate = roster.DateOf(start)
	rec.EndDate = roster.DateOf(end)
	rec.Status = leave.LeaveStatus(status)
	rec.Type = leave.RequestType(requestType)
	if submitted != nil {
		rec.SubmittedAt = roster.DateOf(*submitted)
	}
	return rec, nil
}
