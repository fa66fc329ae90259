package attendance

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day key format supplied by callers.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusCheckedIn  Status = "checked-in"
	StatusOnBreak    Status = "on-break"
	StatusOnBioBreak Status = "on-bio-break"
	StatusReturned   Status = "returned"
	StatusCheckedOut Status = "checked-out"
)

type Action string

const (
	ActionCheckIn    Action = "check-in"
	ActionBreakStart Action = "break-start"
	ActionBreakEnd   Action = "break-end"
	ActionBioStart   Action = "bio-start"
	ActionBioEnd     Action = "bio-end"
	ActionCheckOut   Action = "check-out"
)

var Actions = []Action{
	ActionCheckIn,
	ActionBreakStart,
	ActionBreakEnd,
	ActionBioStart,
	ActionBioEnd,
	ActionCheckOut,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// EmployeeKey identifies an employee for attendance purposes.
// Email alone is not unique: two declared names sharing one email are two employees.
type EmployeeKey struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Normalize trims the name and lower-cases the email so the same person
// always maps to the same record.
func (k EmployeeKey) Normalize() EmployeeKey {
	return EmployeeKey{
		Name:  strings.TrimSpace(k.Name),
		Email: strings.ToLower(strings.TrimSpace(k.Email)),
	}
}

func (k EmployeeKey) String() string {
	return k.Name + " <" + k.Email + ">"
}

// Interval is one break or bio-break session. End is nil while the session is open.
type Interval struct {
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end"`
	Minutes int        `json:"minutes"`
}

func (iv Interval) IsOpen() bool {
	return iv.End == nil
}

// Evidence is a photographic reference attached to a punch action.
type Evidence struct {
	ID       string    `json:"id"`
	RecordID string    `json:"record_id"`
	Sequence int64     `json:"sequence"`
	Action   Action    `json:"action"`
	URL      string    `json:"url"`
	TakenAt  time.Time `json:"taken_at"`
}

// Record is the attendance document of one employee for one calendar day.
// Values are treated as immutable: every transition produces a new Record
// which the repository swaps in for the stored one.
type Record struct {
	ID                   string
	EmployeeKey          EmployeeKey
	Date                 string
	CheckIn              *time.Time
	CheckOut             *time.Time
	BreakSessions        []Interval
	BioBreakSessions     []Interval
	TotalBreakMinutes    int
	TotalBioBreakMinutes int
	TotalWorkedMinutes   int
	Status               Status
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Populated on read from the evidence log
	Evidence []Evidence
}

func (r Record) IsOpen() bool {
	return r.Status != StatusCheckedOut
}

// Clone returns a deep copy so callers can derive a new value without
// touching slices shared with the original.
func (r Record) Clone() Record {
	out := r
	out.CheckIn = cloneTime(r.CheckIn)
	out.CheckOut = cloneTime(r.CheckOut)
	out.BreakSessions = cloneIntervals(r.BreakSessions)
	out.BioBreakSessions = cloneIntervals(r.BioBreakSessions)
	if r.Evidence != nil {
		out.Evidence = append([]Evidence(nil), r.Evidence...)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneIntervals(in []Interval) []Interval {
	if in == nil {
		return nil
	}
	out := make([]Interval, len(in))
	for i, iv := range in {
		out[i] = Interval{Start: iv.Start, End: cloneTime(iv.End), Minutes: iv.Minutes}
	}
	return out
}
