package attendance

import (
	"context"
)

// AttendanceService is the attendance lifecycle engine
type AttendanceService interface {
	// Punch applies a check-in, break, bio-break or check-out action to the employee's record for the date
	Punch(ctx context.Context, req PunchRequest) (RecordResponse, error)

	// GetRecord returns the employee's record for the date, or ErrRecordNotFound
	GetRecord(ctx context.Context, req GetRecordRequest) (RecordResponse, error)

	// AttachEvidence appends an evidence reference to the employee's latest record for the date
	AttachEvidence(ctx context.Context, req AttachEvidenceRequest) (EvidenceResponse, error)
}
