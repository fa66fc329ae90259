// Package memory keeps attendance records in process memory with the same
// uniqueness and compare-and-swap guarantees as the PostgreSQL repositories.
// It backs local development and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
)

type dayKey struct {
	name  string
	email string
	date  string
}

// Store implements attendance.RecordRepository and attendance.EvidenceRepository.
type Store struct {
	mu       sync.RWMutex
	records  map[string]attendance.Record
	byDay    map[dayKey]string
	evidence map[string][]attendance.Evidence
	sequence int64
}

var (
	_ attendance.RecordRepository   = (*Store)(nil)
	_ attendance.EvidenceRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		records:  make(map[string]attendance.Record),
		byDay:    make(map[dayKey]string),
		evidence: make(map[string][]attendance.Evidence),
	}
}

func keyOf(key attendance.EmployeeKey, date string) dayKey {
	return dayKey{name: key.Name, email: key.Email, date: date}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", attendance.ErrStorageUnavailable, err)
	}
	return nil
}

// FindOpenRecord implements attendance.RecordRepository.
func (s *Store) FindOpenRecord(ctx context.Context, key attendance.EmployeeKey, date string) (*attendance.Record, error) {
	rec, err := s.FindRecord(ctx, key, date)
	if err != nil || rec == nil {
		return nil, err
	}
	if !rec.IsOpen() {
		return nil, nil
	}
	return rec, nil
}

// FindRecord implements attendance.RecordRepository.
func (s *Store) FindRecord(ctx context.Context, key attendance.EmployeeKey, date string) (*attendance.Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byDay[keyOf(key, date)]
	if !ok {
		return nil, nil
	}
	rec := s.records[id].Clone()
	return &rec, nil
}

// Create implements attendance.RecordRepository.
func (s *Store) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if err := checkContext(ctx); err != nil {
		return attendance.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := keyOf(record.EmployeeKey, record.Date)
	if _, exists := s.byDay[k]; exists {
		return attendance.Record{}, attendance.ErrDuplicateRecord
	}

	stored := record.Clone()
	stored.ID = uuid.NewString()
	stored.Version = 1
	stored.Evidence = nil
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}

	s.records[stored.ID] = stored
	s.byDay[k] = stored.ID

	return stored.Clone(), nil
}

// Save implements attendance.RecordRepository.
func (s *Store) Save(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if err := checkContext(ctx); err != nil {
		return attendance.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[record.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if current.Version != record.Version {
		return attendance.Record{}, attendance.ErrVersionConflict
	}

	stored := record.Clone()
	stored.EmployeeKey = current.EmployeeKey
	stored.Date = current.Date
	stored.CreatedAt = current.CreatedAt
	stored.Version = current.Version + 1
	stored.Evidence = nil

	s.records[stored.ID] = stored

	return stored.Clone(), nil
}

// Append implements attendance.EvidenceRepository.
func (s *Store) Append(ctx context.Context, evidence attendance.Evidence) (attendance.Evidence, error) {
	if err := checkContext(ctx); err != nil {
		return attendance.Evidence{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[evidence.RecordID]; !ok {
		return attendance.Evidence{}, attendance.ErrRecordNotFound
	}

	s.sequence++
	evidence.ID = uuid.NewString()
	evidence.Sequence = s.sequence
	s.evidence[evidence.RecordID] = append(s.evidence[evidence.RecordID], evidence)

	return evidence, nil
}

// ListByRecord implements attendance.EvidenceRepository.
func (s *Store) ListByRecord(ctx context.Context, recordID string) ([]attendance.Evidence, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]attendance.Evidence{}, s.evidence[recordID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}
