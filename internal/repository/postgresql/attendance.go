package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/database"
)

type attendanceRepository struct {
	db database.Querier
}

const recordColumns = `
	id, employee_name, employee_email, work_date,
	check_in, check_out, break_sessions, bio_break_sessions,
	total_break_minutes, total_bio_break_minutes, total_worked_minutes,
	status, version, created_at, updated_at
`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var status string
	err := row.Scan(
		&rec.ID, &rec.EmployeeKey.Name, &rec.EmployeeKey.Email, &rec.Date,
		&rec.CheckIn, &rec.CheckOut, &rec.BreakSessions, &rec.BioBreakSessions,
		&rec.TotalBreakMinutes, &rec.TotalBioBreakMinutes, &rec.TotalWorkedMinutes,
		&status, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	rec.Status = attendance.Status(status)
	return rec, err
}

func intervalsOrEmpty(in []attendance.Interval) []attendance.Interval {
	if in == nil {
		return []attendance.Interval{}
	}
	return in
}

// FindOpenRecord implements attendance.RecordRepository.
func (a *attendanceRepository) FindOpenRecord(ctx context.Context, key attendance.EmployeeKey, date string) (*attendance.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_name = $1
		  AND employee_email = $2
		  AND work_date = $3
		  AND status <> 'checked-out'
		LIMIT 1
	`

	rec, err := scanRecord(a.db.QueryRow(ctx, query, key.Name, key.Email, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No open record
		}
		return nil, mapError("find open attendance record", err)
	}

	return &rec, nil
}

// FindRecord implements attendance.RecordRepository.
func (a *attendanceRepository) FindRecord(ctx context.Context, key attendance.EmployeeKey, date string) (*attendance.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_name = $1
		  AND employee_email = $2
		  AND work_date = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	rec, err := scanRecord(a.db.QueryRow(ctx, query, key.Name, key.Email, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("find attendance record", err)
	}

	return &rec, nil
}

// Create implements attendance.RecordRepository.
// The (employee_name, employee_email, work_date) unique constraint decides
// concurrent check-ins; the loser gets ErrDuplicateRecord.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	query := `
		INSERT INTO attendance_records (
			employee_name, employee_email, work_date,
			check_in, check_out, break_sessions, bio_break_sessions,
			total_break_minutes, total_bio_break_minutes, total_worked_minutes,
			status, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13
		) RETURNING ` + recordColumns

	created, err := scanRecord(a.db.QueryRow(ctx, query,
		record.EmployeeKey.Name,
		record.EmployeeKey.Email,
		record.Date,
		record.CheckIn,
		record.CheckOut,
		intervalsOrEmpty(record.BreakSessions),
		intervalsOrEmpty(record.BioBreakSessions),
		record.TotalBreakMinutes,
		record.TotalBioBreakMinutes,
		record.TotalWorkedMinutes,
		string(record.Status),
		record.CreatedAt,
		record.UpdatedAt,
	))
	if err != nil {
		return attendance.Record{}, mapError("create attendance record", err)
	}

	return created, nil
}

// Save implements attendance.RecordRepository.
// The whole document is replaced only if the stored version still matches.
func (a *attendanceRepository) Save(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	query := `
		UPDATE attendance_records SET
			check_in = $3,
			check_out = $4,
			break_sessions = $5,
			bio_break_sessions = $6,
			total_break_minutes = $7,
			total_bio_break_minutes = $8,
			total_worked_minutes = $9,
			status = $10,
			updated_at = $11,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING ` + recordColumns

	saved, err := scanRecord(a.db.QueryRow(ctx, query,
		record.ID,
		record.Version,
		record.CheckIn,
		record.CheckOut,
		intervalsOrEmpty(record.BreakSessions),
		intervalsOrEmpty(record.BioBreakSessions),
		record.TotalBreakMinutes,
		record.TotalBioBreakMinutes,
		record.TotalWorkedMinutes,
		string(record.Status),
		record.UpdatedAt,
	))
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, mapError("save attendance record", err)
	}

	// Nothing matched: either the record is gone or the version moved on
	var exists bool
	if err := a.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_records WHERE id = $1)`, record.ID).Scan(&exists); err != nil {
		return attendance.Record{}, mapError("check attendance record", err)
	}
	if !exists {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return attendance.Record{}, attendance.ErrVersionConflict
}

func NewAttendanceRepository(db database.Querier) attendance.RecordRepository {
	return &attendanceRepository{
		db: db,
	}
}
