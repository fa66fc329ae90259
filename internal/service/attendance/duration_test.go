package attendance

import (
	"testing"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-03-10 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func closed(start, end string) attendance.Interval {
	e := at(end)
	return attendance.Interval{Start: at(start), End: &e}
}

func TestIntervalMinutes(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"thirty minutes", at("12:00"), at("12:30"), 30},
		{"partial minute truncated", at("12:00"), at("12:00").Add(90 * time.Second), 1},
		{"zero length", at("12:00"), at("12:00"), 0},
		{"end before start floors to zero", at("12:30"), at("12:00"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntervalMinutes(tt.start, tt.end))
		})
	}
}

func TestSumClosedMinutes(t *testing.T) {
	t.Run("sums closed intervals", func(t *testing.T) {
		intervals := []attendance.Interval{
			closed("10:00", "10:15"),
			closed("12:00", "12:30"),
		}
		assert.Equal(t, 45, SumClosedMinutes(intervals))
	})

	t.Run("skewed interval does not reduce total", func(t *testing.T) {
		intervals := []attendance.Interval{
			closed("10:00", "10:15"),
			closed("12:30", "12:00"),
		}
		assert.Equal(t, 15, SumClosedMinutes(intervals))
	})

	t.Run("open interval ignored", func(t *testing.T) {
		intervals := []attendance.Interval{
			closed("10:00", "10:10"),
			{Start: at("12:00")},
		}
		assert.Equal(t, 10, SumClosedMinutes(intervals))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, SumClosedMinutes(nil))
	})
}

func TestWorkedMinutes(t *testing.T) {
	t.Run("closed day", func(t *testing.T) {
		out := at("18:00")
		assert.Equal(t, 510, WorkedMinutes(at("09:00"), &out, at("23:00"), 30, 0))
	})

	t.Run("open day measures to now", func(t *testing.T) {
		assert.Equal(t, 170, WorkedMinutes(at("09:00"), nil, at("12:00"), 0, 10))
	})

	t.Run("breaks exceeding elapsed floor to zero", func(t *testing.T) {
		out := at("10:00")
		assert.Equal(t, 0, WorkedMinutes(at("09:00"), &out, at("10:00"), 45, 30))
	})
}

func TestRecompute_DerivesTotalsFromIntervals(t *testing.T) {
	checkIn := at("09:00")
	checkOut := at("17:00")
	rec := attendance.Record{
		CheckIn:  &checkIn,
		CheckOut: &checkOut,
		BreakSessions: []attendance.Interval{
			closed("12:00", "12:45"),
		},
		BioBreakSessions: []attendance.Interval{
			closed("10:00", "10:05"),
			closed("15:10", "15:00"),
		},
		// Stale totals must be overwritten
		TotalBreakMinutes:    999,
		TotalBioBreakMinutes: 999,
		TotalWorkedMinutes:   999,
	}

	recompute(&rec, at("23:59"))

	assert.Equal(t, 45, rec.BreakSessions[0].Minutes)
	assert.Equal(t, 5, rec.BioBreakSessions[0].Minutes)
	assert.Equal(t, 0, rec.BioBreakSessions[1].Minutes)
	assert.Equal(t, 45, rec.TotalBreakMinutes)
	assert.Equal(t, 5, rec.TotalBioBreakMinutes)
	assert.Equal(t, 430, rec.TotalWorkedMinutes)
}
