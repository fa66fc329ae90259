package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(key attendance.EmployeeKey, date string) attendance.Record {
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return attendance.Record{
		EmployeeKey:      key,
		Date:             date,
		CheckIn:          &checkIn,
		BreakSessions:    []attendance.Interval{},
		BioBreakSessions: []attendance.Interval{},
		Status:           attendance.StatusCheckedIn,
		CreatedAt:        checkIn,
		UpdatedAt:        checkIn,
	}
}

func uniqueKey() attendance.EmployeeKey {
	return attendance.EmployeeKey{
		Name:  "Test Employee",
		Email: "test-" + uuid.NewString() + "@example.com",
	}
}

func TestAttendanceRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.Tx(t))
	key := uniqueKey()

	created, err := repo.Create(ctx, newTestRecord(key, "2025-03-10"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, attendance.StatusCheckedIn, created.Status)
	assert.NotNil(t, created.BreakSessions)

	found, err := repo.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.CheckIn.Equal(*created.CheckIn))

	open, err := repo.FindOpenRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, open)

	missing, err := repo.FindRecord(ctx, key, "2025-03-11")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAttendanceRepository_SaveRoundTripsIntervals(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.Tx(t))
	key := uniqueKey()

	created, err := repo.Create(ctx, newTestRecord(key, "2025-03-10"))
	require.NoError(t, err)

	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	checkOut := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	next := created.Clone()
	next.BreakSessions = []attendance.Interval{{Start: start, End: &end, Minutes: 30}}
	next.BioBreakSessions = []attendance.Interval{}
	next.CheckOut = &checkOut
	next.TotalBreakMinutes = 30
	next.TotalWorkedMinutes = 510
	next.Status = attendance.StatusCheckedOut
	next.UpdatedAt = checkOut

	saved, err := repo.Save(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	found, err := repo.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.BreakSessions, 1)
	assert.True(t, found.BreakSessions[0].Start.Equal(start))
	require.NotNil(t, found.BreakSessions[0].End)
	assert.True(t, found.BreakSessions[0].End.Equal(end))
	assert.Equal(t, 30, found.TotalBreakMinutes)
	assert.Equal(t, 510, found.TotalWorkedMinutes)
	assert.Equal(t, attendance.StatusCheckedOut, found.Status)

	open, err := repo.FindOpenRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestAttendanceRepository_SaveStaleVersion(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.Tx(t))

	created, err := repo.Create(ctx, newTestRecord(uniqueKey(), "2025-03-10"))
	require.NoError(t, err)

	first := created.Clone()
	first.Status = attendance.StatusOnBreak
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	stale := created.Clone()
	stale.Status = attendance.StatusOnBioBreak
	_, err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, attendance.ErrVersionConflict)
}

func TestAttendanceRepository_SaveMissingRecord(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.Tx(t))

	rec := newTestRecord(uniqueKey(), "2025-03-10")
	rec.ID = uuid.NewString()
	rec.Version = 1

	_, err := repo.Save(ctx, rec)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestAttendanceRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.Tx(t))
	key := uniqueKey()

	_, err := repo.Create(ctx, newTestRecord(key, "2025-03-10"))
	require.NoError(t, err)

	// The failed insert aborts the transaction, so this must be the last statement
	_, err = repo.Create(ctx, newTestRecord(key, "2025-03-10"))
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)
}

func TestAttendanceRepository_CancelledContext(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindRecord(ctx, uniqueKey(), "2025-03-10")
	assert.ErrorIs(t, err, attendance.ErrStorageUnavailable)
}

func TestEvidenceRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	tx := setup.Tx(t)
	records := postgresql.NewAttendanceRepository(tx)
	evidence := postgresql.NewEvidenceRepository(tx)

	created, err := records.Create(ctx, newTestRecord(uniqueKey(), "2025-03-10"))
	require.NoError(t, err)

	takenAt := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)
	first, err := evidence.Append(ctx, attendance.Evidence{
		RecordID: created.ID,
		Action:   attendance.ActionCheckIn,
		URL:      "https://cdn.example.com/1.jpg",
		TakenAt:  takenAt,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := evidence.Append(ctx, attendance.Evidence{
		RecordID: created.ID,
		Action:   attendance.ActionCheckOut,
		URL:      "https://cdn.example.com/2.jpg",
		TakenAt:  takenAt.Add(9 * time.Hour),
	})
	require.NoError(t, err)
	assert.Greater(t, second.Sequence, first.Sequence)

	list, err := evidence.ListByRecord(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, attendance.ActionCheckOut, list[1].Action)
	assert.True(t, list[0].TakenAt.Equal(takenAt))
}

func TestEvidenceRepository_AppendUnknownRecord(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	evidence := postgresql.NewEvidenceRepository(setup.Tx(t))

	_, err := evidence.Append(ctx, attendance.Evidence{
		RecordID: uuid.NewString(),
		Action:   attendance.ActionCheckIn,
		URL:      "https://cdn.example.com/1.jpg",
		TakenAt:  time.Now(),
	})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}
