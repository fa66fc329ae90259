package attendance

import (
	"context"
)

// RecordRepository stores attendance records keyed by (employee, date).
// Implementations must enforce at most one record per employee per date.
type RecordRepository interface {
	// FindOpenRecord returns the record that has not been checked out yet, or nil.
	FindOpenRecord(ctx context.Context, key EmployeeKey, date string) (*Record, error)

	// FindRecord returns the most recent record for the employee and date regardless of status, or nil.
	FindRecord(ctx context.Context, key EmployeeKey, date string) (*Record, error)

	// Create inserts a new record with Version 1.
	// Returns ErrDuplicateRecord if a record already exists for the key and date.
	Create(ctx context.Context, record Record) (Record, error)

	// Save replaces the stored document when its version still equals record.Version.
	// Returns the stored value with the bumped version, or ErrVersionConflict.
	Save(ctx context.Context, record Record) (Record, error)
}

// EvidenceRepository is the append-only evidence log.
type EvidenceRepository interface {
	// Append adds an entry; returns ErrRecordNotFound if the record does not exist.
	Append(ctx context.Context, evidence Evidence) (Evidence, error)

	// ListByRecord returns the entries of a record in append order.
	ListByRecord(ctx context.Context, recordID string) ([]Evidence, error)
}
