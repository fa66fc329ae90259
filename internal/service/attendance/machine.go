package attendance

import (
	"fmt"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
)

// transition lists the states an action may be taken from and where it leads.
type transition struct {
	from []attendance.Status
	to   attendance.Status
}

// Check-in is absent: it is only legal when no record exists yet.
var transitions = map[attendance.Action]transition{
	attendance.ActionBreakStart: {
		from: []attendance.Status{attendance.StatusCheckedIn, attendance.StatusReturned},
		to:   attendance.StatusOnBreak,
	},
	attendance.ActionBreakEnd: {
		from: []attendance.Status{attendance.StatusOnBreak},
		to:   attendance.StatusReturned,
	},
	attendance.ActionBioStart: {
		from: []attendance.Status{attendance.StatusCheckedIn, attendance.StatusReturned},
		to:   attendance.StatusOnBioBreak,
	},
	attendance.ActionBioEnd: {
		from: []attendance.Status{attendance.StatusOnBioBreak},
		to:   attendance.StatusReturned,
	},
	attendance.ActionCheckOut: {
		from: []attendance.Status{
			attendance.StatusCheckedIn,
			attendance.StatusReturned,
			attendance.StatusOnBreak,
			attendance.StatusOnBioBreak,
		},
		to: attendance.StatusCheckedOut,
	},
}

// AllowedActions returns the actions that are legal from the given record.
// A nil record means nothing has been punched for the day.
func AllowedActions(current *attendance.Record) []attendance.Action {
	if current == nil {
		return []attendance.Action{attendance.ActionCheckIn}
	}

	allowed := []attendance.Action{}
	for _, action := range attendance.Actions {
		if canApply(current.Status, action) {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

func canApply(status attendance.Status, action attendance.Action) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == status {
			return true
		}
	}
	return false
}

// Apply validates action against the current record and returns the next
// record value. current is never modified. For check-in, current must be nil
// and the returned record carries key and date; for every other action key
// and date are taken from current.
func Apply(current *attendance.Record, key attendance.EmployeeKey, date string, action attendance.Action, now time.Time) (attendance.Record, error) {
	if !action.Valid() {
		return attendance.Record{}, fmt.Errorf("%w: %q", attendance.ErrInvalidAction, action)
	}

	if action == attendance.ActionCheckIn {
		if current != nil {
			return attendance.Record{}, rejected(action, current.Status)
		}
		return startDay(key, date, now), nil
	}

	if current == nil {
		return attendance.Record{}, fmt.Errorf("%w: cannot %s before checking in", attendance.ErrInvalidTransition, action)
	}
	if !canApply(current.Status, action) {
		return attendance.Record{}, rejected(action, current.Status)
	}

	next := current.Clone()
	switch action {
	case attendance.ActionBreakStart:
		next.BreakSessions = append(next.BreakSessions, attendance.Interval{Start: now})
	case attendance.ActionBreakEnd:
		if !closeOpen(next.BreakSessions, now) {
			return attendance.Record{}, fmt.Errorf("%w: no open break to end", attendance.ErrInvalidTransition)
		}
	case attendance.ActionBioStart:
		next.BioBreakSessions = append(next.BioBreakSessions, attendance.Interval{Start: now})
	case attendance.ActionBioEnd:
		if !closeOpen(next.BioBreakSessions, now) {
			return attendance.Record{}, fmt.Errorf("%w: no open bio break to end", attendance.ErrInvalidTransition)
		}
	case attendance.ActionCheckOut:
		// Leaving while on a break ends that break first.
		closeOpen(next.BreakSessions, now)
		closeOpen(next.BioBreakSessions, now)
		checkOut := now
		next.CheckOut = &checkOut
	}

	next.Status = transitions[action].to
	next.UpdatedAt = now
	recompute(&next, now)

	return next, nil
}

func startDay(key attendance.EmployeeKey, date string, now time.Time) attendance.Record {
	checkIn := now
	rec := attendance.Record{
		EmployeeKey:      key,
		Date:             date,
		CheckIn:          &checkIn,
		BreakSessions:    []attendance.Interval{},
		BioBreakSessions: []attendance.Interval{},
		Status:           attendance.StatusCheckedIn,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	recompute(&rec, now)
	return rec
}

// closeOpen ends the most recent interval if it is still open.
func closeOpen(intervals []attendance.Interval, now time.Time) bool {
	if len(intervals) == 0 {
		return false
	}
	last := &intervals[len(intervals)-1]
	if last.End != nil {
		return false
	}
	end := now
	last.End = &end
	return true
}

func rejected(action attendance.Action, status attendance.Status) error {
	switch {
	case action == attendance.ActionCheckIn && status == attendance.StatusCheckedOut:
		return fmt.Errorf("%w: already checked out for this date", attendance.ErrInvalidTransition)
	case action == attendance.ActionCheckIn:
		return fmt.Errorf("%w: already checked in for this date", attendance.ErrInvalidTransition)
	case status == attendance.StatusCheckedOut:
		return fmt.Errorf("%w: record is closed after check-out", attendance.ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: cannot %s while %s", attendance.ErrInvalidTransition, action, status)
	}
}
