package memory

import (
	"context"
	"testing"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = attendance.EmployeeKey{Name: "Ana Reyes", Email: "ana@example.com"}

func newRecord(date string) attendance.Record {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return attendance.Record{
		EmployeeKey:      key,
		Date:             date,
		CheckIn:          &now,
		BreakSessions:    []attendance.Interval{},
		BioBreakSessions: []attendance.Interval{},
		Status:           attendance.StatusCheckedIn,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, err := store.Create(ctx, newRecord("2025-03-10"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	found, err := store.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	open, err := store.FindOpenRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, open)

	missing, err := store.FindRecord(ctx, key, "2025-03-11")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.Create(ctx, newRecord("2025-03-10"))
	require.NoError(t, err)

	_, err = store.Create(ctx, newRecord("2025-03-10"))
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)

	_, err = store.Create(ctx, newRecord("2025-03-11"))
	assert.NoError(t, err)
}

func TestStore_SaveCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, err := store.Create(ctx, newRecord("2025-03-10"))
	require.NoError(t, err)

	next := created.Clone()
	next.Status = attendance.StatusOnBreak
	saved, err := store.Save(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	// Stale version loses
	stale := created.Clone()
	stale.Status = attendance.StatusOnBioBreak
	_, err = store.Save(ctx, stale)
	assert.ErrorIs(t, err, attendance.ErrVersionConflict)

	found, err := store.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnBreak, found.Status)
}

func TestStore_SaveUnknownRecord(t *testing.T) {
	store := NewStore()

	rec := newRecord("2025-03-10")
	rec.ID = "missing"
	rec.Version = 1
	_, err := store.Save(context.Background(), rec)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestStore_FindOpenRecordSkipsCheckedOut(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, err := store.Create(ctx, newRecord("2025-03-10"))
	require.NoError(t, err)

	next := created.Clone()
	next.Status = attendance.StatusCheckedOut
	_, err = store.Save(ctx, next)
	require.NoError(t, err)

	open, err := store.FindOpenRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	assert.Nil(t, open)

	closedRec, err := store.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	assert.NotNil(t, closedRec)
}

func TestStore_ReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, err := store.Create(ctx, newRecord("2025-03-10"))
	require.NoError(t, err)

	found, err := store.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	found.BreakSessions = append(found.BreakSessions, attendance.Interval{Start: time.Now()})
	found.Status = attendance.StatusOnBreak

	again, err := store.FindRecord(ctx, key, "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, again.BreakSessions)
	assert.Equal(t, created.Status, again.Status)
}

func TestStore_EvidenceLog(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, err := store.Create(ctx, newRecord("2025-03-10"))
	require.NoError(t, err)

	first, err := store.Append(ctx, attendance.Evidence{RecordID: created.ID, Action: attendance.ActionCheckIn, URL: "https://cdn.example.com/1.jpg"})
	require.NoError(t, err)
	second, err := store.Append(ctx, attendance.Evidence{RecordID: created.ID, Action: attendance.ActionCheckIn, URL: "https://cdn.example.com/2.jpg"})
	require.NoError(t, err)
	assert.Greater(t, second.Sequence, first.Sequence)

	list, err := store.ListByRecord(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	_, err = store.Append(ctx, attendance.Evidence{RecordID: "missing", Action: attendance.ActionCheckIn, URL: "https://cdn.example.com/3.jpg"})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestStore_CancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindRecord(ctx, key, "2025-03-10")
	assert.ErrorIs(t, err, attendance.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Create(ctx, newRecord("2025-03-10"))
	assert.ErrorIs(t, err, attendance.ErrStorageUnavailable)
}
