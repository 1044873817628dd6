package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/server/models"
	"github.com/dmitrijs2005/attendpass/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertCheckInRe   = `(?s)INSERT\s+INTO\s+checkins\b`
	incrementCountsRe = `(?s)INSERT\s+INTO\s+session_attendance\b`
)

func newRecorder(t *testing.T) (*PostgresRecorder, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRecorder(db, repomanager.NewPostgresRepositoryManager()), mock, db
}

func TestPostgresRecorder_NewCheckIn(t *testing.T) {
	st := newStack(t)
	_, c := st.wire(t, "s1")

	r, mock, db := newRecorder(t)
	defer db.Close()

	scanned := st.clock.Now()
	mock.ExpectBegin()
	mock.ExpectExec(insertCheckInRe).
		WithArgs(sqlmock.AnyArg(), "s1", "e1", "h1", "att-1", c.Nonce, c.IssuedTime(), c.ExpiresTime(), scanned).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(incrementCountsRe).
		WithArgs("s1", "e1", scanned).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := r.Record(context.Background(), c.Payload, "att-1", scanned)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_DuplicateSkipsCounter(t *testing.T) {
	st := newStack(t)
	_, c := st.wire(t, "s1")

	r, mock, db := newRecorder(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(insertCheckInRe).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := r.Record(context.Background(), c.Payload, "att-1", st.clock.Now())
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_RollsBackOnError(t *testing.T) {
	st := newStack(t)
	_, c := st.wire(t, "s1")

	r, mock, db := newRecorder(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(insertCheckInRe).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(incrementCountsRe).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := r.Record(context.Background(), c.Payload, "att-1", st.clock.Now())
	assert.ErrorContains(t, err, "error updating attendance")
	assert.ErrorContains(t, err, "deadlock")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_Attendance(t *testing.T) {
	r, mock, db := newRecorder(t)
	defer db.Close()

	updated := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT\s+session_id,\s+event_id,\s+checkins,\s+updated_at\s+FROM\s+session_attendance`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "event_id", "checkins", "updated_at"}).
			AddRow("s1", "e1", int64(7), updated))

	a, err := r.Attendance(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, &models.SessionAttendance{SessionID: "s1", EventID: "e1", CheckIns: 7, UpdatedAt: updated}, a)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryRecorder(t *testing.T) {
	ctx := context.Background()
	st := newStack(t)
	_, c1 := st.wire(t, "s1")
	_, c2 := st.wire(t, "s1")

	m := NewMemoryRecorder()
	_, err := m.Attendance(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	scanned := st.clock.Now()
	created, err := m.Record(ctx, c1.Payload, "att-1", scanned)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Record(ctx, c2.Payload, "att-1", scanned.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created, "an attendee counts once per session")

	created, err = m.Record(ctx, c1.Payload, "att-2", scanned.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, created, "another attendee on the same code")

	a, err := m.Attendance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.CheckIns)
	assert.Equal(t, "e1", a.EventID)
	assert.Equal(t, scanned.Add(2*time.Minute), a.UpdatedAt)

	a.CheckIns = 100
	again, _ := m.Attendance(ctx, "s1")
	assert.Equal(t, int64(2), again.CheckIns, "callers get a copy")
}
