package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/sse"
)

const (
	EventRecordUpdated    = "record.updated"
	EventEvidenceAttached = "evidence.attached"

	// clientSkewWarning is how far a client's advisory timestamp may drift before it is logged
	clientSkewWarning = 2 * time.Minute

	timeFormat = time.RFC3339
)

// Clock returns the engine's notion of now
type Clock func() time.Time

type AttendanceServiceImpl struct {
	attendance.RecordRepository
	attendance.EvidenceRepository
	hub            *sse.Hub
	now            Clock
	storageTimeout time.Duration
}

func NewAttendanceService(
	recordRepo attendance.RecordRepository,
	evidenceRepo attendance.EvidenceRepository,
	hub *sse.Hub,
	clock Clock,
	storageTimeout time.Duration,
) attendance.AttendanceService {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &AttendanceServiceImpl{
		RecordRepository:   recordRepo,
		EvidenceRepository: evidenceRepo,
		hub:                hub,
		now:                clock,
		storageTimeout:     storageTimeout,
	}
}

// Punch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Punch(ctx context.Context, req attendance.PunchRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	key := req.Employee.Normalize()
	now := s.now()
	s.logClientSkew(key, req, now)

	var (
		record attendance.Record
		err    error
	)
	if req.Action == attendance.ActionCheckIn {
		record, err = s.checkIn(ctx, key, req.Date, now)
	} else {
		record, err = s.advance(ctx, key, req.Date, req.Action, now)
	}
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidTransition) {
			slog.Info("Attendance punch rejected", "employee", key.String(), "date", req.Date, "action", req.Action, "reason", err.Error())
		}
		return attendance.RecordResponse{}, err
	}

	slog.Debug("Attendance punch applied", "employee", key.String(), "date", req.Date, "action", req.Action, "status", record.Status, "version", record.Version)

	// A failed evidence read after a stored transition is logged, not returned
	evidence, err := s.listEvidence(ctx, record.ID)
	if err != nil {
		slog.Warn("Failed to load attendance evidence after punch", "employee", key.String(), "date", req.Date, "error", err)
	} else {
		record.Evidence = evidence
	}

	result := mapRecordToResponse(record)
	s.publish(key, EventRecordUpdated, result)

	return result, nil
}

// checkIn creates the day's record. A lost creation race is re-read exactly
// once so the caller sees "already checked in" rather than a storage conflict.
func (s *AttendanceServiceImpl) checkIn(ctx context.Context, key attendance.EmployeeKey, date string, now time.Time) (attendance.Record, error) {
	existing, err := s.findRecord(ctx, key, date)
	if err != nil {
		return attendance.Record{}, err
	}

	next, err := Apply(existing, key, date, attendance.ActionCheckIn, now)
	if err != nil {
		return attendance.Record{}, err
	}

	created, err := s.create(ctx, next)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, attendance.ErrDuplicateRecord) {
		return attendance.Record{}, err
	}

	winner, rerr := s.findRecord(ctx, key, date)
	if rerr != nil {
		return attendance.Record{}, rerr
	}
	if winner == nil {
		return attendance.Record{}, err
	}
	_, err = Apply(winner, key, date, attendance.ActionCheckIn, now)
	return attendance.Record{}, err
}

// advance applies a non check-in action to the open record. A version
// conflict on save means another punch landed first; the record is re-read
// and the action re-validated once against the fresh state.
func (s *AttendanceServiceImpl) advance(ctx context.Context, key attendance.EmployeeKey, date string, action attendance.Action, now time.Time) (attendance.Record, error) {
	const attempts = 2

	for attempt := 1; attempt <= attempts; attempt++ {
		current, err := s.findOpenRecord(ctx, key, date)
		if err != nil {
			return attendance.Record{}, err
		}

		if current == nil {
			// Distinguish "never checked in" from "already checked out"
			closed, err := s.findRecord(ctx, key, date)
			if err != nil {
				return attendance.Record{}, err
			}
			_, err = Apply(closed, key, date, action, now)
			if err == nil {
				err = fmt.Errorf("%w: no open record for this date", attendance.ErrInvalidTransition)
			}
			return attendance.Record{}, err
		}

		next, err := Apply(current, key, date, action, now)
		if err != nil {
			return attendance.Record{}, err
		}

		saved, err := s.save(ctx, next)
		if errors.Is(err, attendance.ErrVersionConflict) {
			slog.Debug("Attendance record changed concurrently, re-reading", "employee", key.String(), "date", date, "attempt", attempt)
			continue
		}
		return saved, err
	}

	return attendance.Record{}, fmt.Errorf("%w: %w", attendance.ErrInvalidTransition, attendance.ErrVersionConflict)
}

// GetRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetRecord(ctx context.Context, req attendance.GetRecordRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	key := req.Employee.Normalize()

	record, err := s.findRecord(ctx, key, req.Date)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if record == nil {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	evidence, err := s.listEvidence(ctx, record.ID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	record.Evidence = evidence

	return mapRecordToResponse(project(*record, s.now())), nil
}

// AttachEvidence implements attendance.AttendanceService.
// It never changes the record's status or totals and may be called after check-out.
func (s *AttendanceServiceImpl) AttachEvidence(ctx context.Context, req attendance.AttachEvidenceRequest) (attendance.EvidenceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.EvidenceResponse{}, err
	}

	key := req.Employee.Normalize()

	record, err := s.findRecord(ctx, key, req.Date)
	if err != nil {
		return attendance.EvidenceResponse{}, err
	}
	if record == nil {
		return attendance.EvidenceResponse{}, attendance.ErrRecordNotFound
	}

	appended, err := s.appendEvidence(ctx, attendance.Evidence{
		RecordID: record.ID,
		Action:   req.Action,
		URL:      req.URL,
		TakenAt:  s.now(),
	})
	if err != nil {
		return attendance.EvidenceResponse{}, err
	}

	slog.Debug("Attendance evidence attached", "employee", key.String(), "date", req.Date, "action", req.Action, "sequence", appended.Sequence)

	result := mapEvidenceToResponse(appended)
	s.publish(key, EventEvidenceAttached, result)

	return result, nil
}

func (s *AttendanceServiceImpl) logClientSkew(key attendance.EmployeeKey, req attendance.PunchRequest, now time.Time) {
	if req.ClientTimestamp == nil {
		return
	}
	client, err := time.Parse(time.RFC3339Nano, *req.ClientTimestamp)
	if err != nil {
		return
	}
	skew := client.Sub(now)
	if skew < 0 {
		skew = -skew
	}
	if skew > clientSkewWarning {
		slog.Warn("Client clock differs from server clock", "employee", key.String(), "action", req.Action, "skew", skew.Round(time.Second).String())
	}
}

func (s *AttendanceServiceImpl) publish(key attendance.EmployeeKey, name string, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(sse.Event{Key: key.String(), Name: name, Data: data})
}

// Storage calls run under the configured timeout; repositories report an
// expired or cancelled context as ErrStorageUnavailable.

func (s *AttendanceServiceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storageTimeout)
}

func (s *AttendanceServiceImpl) findRecord(ctx context.Context, key attendance.EmployeeKey, date string) (*attendance.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.RecordRepository.FindRecord(ctx, key, date)
}

func (s *AttendanceServiceImpl) findOpenRecord(ctx context.Context, key attendance.EmployeeKey, date string) (*attendance.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.RecordRepository.FindOpenRecord(ctx, key, date)
}

func (s *AttendanceServiceImpl) create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.RecordRepository.Create(ctx, record)
}

func (s *AttendanceServiceImpl) save(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.RecordRepository.Save(ctx, record)
}

func (s *AttendanceServiceImpl) appendEvidence(ctx context.Context, evidence attendance.Evidence) (attendance.Evidence, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.EvidenceRepository.Append(ctx, evidence)
}

func (s *AttendanceServiceImpl) listEvidence(ctx context.Context, recordID string) ([]attendance.Evidence, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.EvidenceRepository.ListByRecord(ctx, recordID)
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(timeFormat)
	return &format
}

func mapIntervals(in []attendance.Interval) []attendance.IntervalResponse {
	out := make([]attendance.IntervalResponse, 0, len(in))
	for _, iv := range in {
		out = append(out, attendance.IntervalResponse{
			Start:   iv.Start.UTC().Format(timeFormat),
			End:     timePtrToString(iv.End),
			Minutes: iv.Minutes,
		})
	}
	return out
}

func mapEvidenceToResponse(ev attendance.Evidence) attendance.EvidenceResponse {
	return attendance.EvidenceResponse{
		ID:       ev.ID,
		Sequence: ev.Sequence,
		Action:   ev.Action,
		URL:      ev.URL,
		TakenAt:  ev.TakenAt.UTC().Format(timeFormat),
	}
}

// mapRecordToResponse converts a Record entity to RecordResponse
func mapRecordToResponse(rec attendance.Record) attendance.RecordResponse {
	evidence := make([]attendance.EvidenceResponse, 0, len(rec.Evidence))
	for _, ev := range rec.Evidence {
		evidence = append(evidence, mapEvidenceToResponse(ev))
	}

	return attendance.RecordResponse{
		ID:                   rec.ID,
		EmployeeName:         rec.EmployeeKey.Name,
		EmployeeEmail:        rec.EmployeeKey.Email,
		Date:                 rec.Date,
		Status:               rec.Status,
		CheckIn:              timePtrToString(rec.CheckIn),
		CheckOut:             timePtrToString(rec.CheckOut),
		BreakSessions:        mapIntervals(rec.BreakSessions),
		BioBreakSessions:     mapIntervals(rec.BioBreakSessions),
		TotalBreakMinutes:    rec.TotalBreakMinutes,
		TotalBioBreakMinutes: rec.TotalBioBreakMinutes,
		TotalWorkedMinutes:   rec.TotalWorkedMinutes,
		Evidence:             evidence,
		AllowedActions:       AllowedActions(&rec),
		Version:              rec.Version,
		CreatedAt:            rec.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:            rec.UpdatedAt.UTC().Format(timeFormat),
	}
}
