package postgresql

import (
	"context"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/database"
)

// evidenceRepository writes only to attendance_evidence, so evidence never
// contends with state transitions on attendance_records.
type evidenceRepository struct {
	db database.Querier
}

// Append implements attendance.EvidenceRepository.
func (e *evidenceRepository) Append(ctx context.Context, evidence attendance.Evidence) (attendance.Evidence, error) {
	query := `
		INSERT INTO attendance_evidence (record_id, action, url, taken_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, seq
	`

	err := e.db.QueryRow(ctx, query,
		evidence.RecordID,
		string(evidence.Action),
		evidence.URL,
		evidence.TakenAt,
	).Scan(&evidence.ID, &evidence.Sequence)
	if err != nil {
		return attendance.Evidence{}, mapError("append attendance evidence", err)
	}

	return evidence, nil
}

// ListByRecord implements attendance.EvidenceRepository.
func (e *evidenceRepository) ListByRecord(ctx context.Context, recordID string) ([]attendance.Evidence, error) {
	query := `
		SELECT id, record_id, seq, action, url, taken_at
		FROM attendance_evidence
		WHERE record_id = $1
		ORDER BY seq ASC
	`

	rows, err := e.db.Query(ctx, query, recordID)
	if err != nil {
		return nil, mapError("list attendance evidence", err)
	}
	defer rows.Close()

	evidence := []attendance.Evidence{}
	for rows.Next() {
		var ev attendance.Evidence
		var action string
		if err := rows.Scan(&ev.ID, &ev.RecordID, &ev.Sequence, &action, &ev.URL, &ev.TakenAt); err != nil {
			return nil, mapError("scan attendance evidence", err)
		}
		ev.Action = attendance.Action(action)
		evidence = append(evidence, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate attendance evidence", err)
	}

	return evidence, nil
}

func NewEvidenceRepository(db database.Querier) attendance.EvidenceRepository {
	return &evidenceRepository{
		db: db,
	}
}
