package attendance

import (
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
)

// IntervalMinutes returns the whole minutes from start to end.
// An end before start (clock skew, bad data) counts as zero.
func IntervalMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// SumClosedMinutes adds up the closed intervals. Open intervals contribute nothing.
func SumClosedMinutes(intervals []attendance.Interval) int {
	total := 0
	for _, iv := range intervals {
		if iv.End == nil {
			continue
		}
		total += IntervalMinutes(iv.Start, *iv.End)
	}
	return total
}

// WorkedMinutes is the elapsed time from checkIn to checkOut (or now while the
// day is still open) minus both break totals, floored at zero.
func WorkedMinutes(checkIn time.Time, checkOut *time.Time, now time.Time, breakMinutes, bioBreakMinutes int) int {
	end := now
	if checkOut != nil {
		end = *checkOut
	}

	worked := IntervalMinutes(checkIn, end) - breakMinutes - bioBreakMinutes
	if worked < 0 {
		return 0
	}
	return worked
}

// recompute derives every interval's minutes and all totals from the stored
// timestamps. Nothing is carried over from previous totals.
func recompute(rec *attendance.Record, now time.Time) {
	for i := range rec.BreakSessions {
		rec.BreakSessions[i].Minutes = closedMinutes(rec.BreakSessions[i])
	}
	for i := range rec.BioBreakSessions {
		rec.BioBreakSessions[i].Minutes = closedMinutes(rec.BioBreakSessions[i])
	}

	rec.TotalBreakMinutes = SumClosedMinutes(rec.BreakSessions)
	rec.TotalBioBreakMinutes = SumClosedMinutes(rec.BioBreakSessions)

	if rec.CheckIn == nil {
		rec.TotalWorkedMinutes = 0
		return
	}

	// A break still in progress is not work either, though it only enters the
	// break totals once it is closed.
	breakMinutes := rec.TotalBreakMinutes + openMinutes(rec.BreakSessions, now)
	bioBreakMinutes := rec.TotalBioBreakMinutes + openMinutes(rec.BioBreakSessions, now)
	rec.TotalWorkedMinutes = WorkedMinutes(*rec.CheckIn, rec.CheckOut, now, breakMinutes, bioBreakMinutes)
}

// project returns a copy of rec with its totals measured against now. Closed
// records are returned unchanged.
func project(rec attendance.Record, now time.Time) attendance.Record {
	if !rec.IsOpen() {
		return rec
	}
	out := rec.Clone()
	recompute(&out, now)
	return out
}

func openMinutes(intervals []attendance.Interval, now time.Time) int {
	total := 0
	for _, iv := range intervals {
		if iv.End == nil {
			total += IntervalMinutes(iv.Start, now)
		}
	}
	return total
}

func closedMinutes(iv attendance.Interval) int {
	if iv.End == nil {
		return 0
	}
	return IntervalMinutes(iv.Start, *iv.End)
}
