// Package memory provides an in-memory AdmissionStore for tests and
// the dev server. Same contract as the SQL stores, no durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps records and period versions under one mutex, which makes
// the optimistic admission check trivially atomic.
type Store struct {
	mu       sync.RWMutex
	calc     *roster.Calculator
	records  map[string]leave.LeaveRecord
	versions map[string]int64 // roster-period code -> version counter
}

// New creates an empty in-memory store. The calculator maps record
// ranges onto the roster periods whose versions admissions bump.
func New(calc *roster.Calculator) *Store {
	return &Store{
		calc:     calc,
		records:  make(map[string]leave.LeaveRecord),
		versions: make(map[string]int64),
	}
}

var _ leave.AdmissionStore = (*Store)(nil)

// Seed inserts records directly, bypassing the admission check.
// Test and scenario setup only.
func (s *Store) Seed(records ...leave.LeaveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		s.records[rec.ID] = rec
		s.bumpPeriodsLocked(rec)
	}
}

func (s *Store) RecordsOverlapping(_ context.Context, from, to roster.Date) ([]leave.LeaveRecord, error) {
	if err := roster.ValidateRange(from, to); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.LeaveRecord
	for _, rec := range s.records {
		if rec.Overlaps(from, to) {
			out = append(out, rec)
		}
	}
	// Map iteration order is random; callers get a stable view.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Record(_ context.Context, id string) (leave.LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return leave.LeaveRecord{}, leave.ErrRecordNotFound
	}
	return rec, nil
}

func (s *Store) PeriodVersions(_ context.Context, codes []string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64, len(codes))
	for _, code := range codes {
		out[code] = s.versions[code]
	}
	return out, nil
}

func (s *Store) Admit(_ context.Context, record leave.LeaveRecord, expectedVersions map[string]int64) (leave.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for code, expected := range expectedVersions {
		if s.versions[code] != expected {
			return leave.LeaveRecord{}, leave.ErrConcurrentAdmission
		}
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.records[record.ID] = record
	s.bumpPeriodsLocked(record)
	return record, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status leave.LeaveStatus) (leave.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return leave.LeaveRecord{}, leave.ErrRecordNotFound
	}
	rec.Status = status
	s.records[id] = rec
	s.bumpPeriodsLocked(rec)
	return rec, nil
}

// bumpPeriodsLocked advances the version of every roster period the
// record touches. Caller holds the write lock.
func (s *Store) bumpPeriodsLocked(rec leave.LeaveRecord) {
	periods, err := s.calc.PeriodsOverlapping(rec.StartDate, rec.EndDate)
	if err != nil {
		return
	}
	for _, p := range periods {
		s.versions[p.Code]++
	}
}
