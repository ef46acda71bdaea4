package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careview/portal/pkg/audit"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db), mock
}

func TestLog(t *testing.T) {
	store, mock := newMockStore(t)

	event := audit.NewEvent(audit.ActionLogin).
		WithSubject("usr-1", "patient@healthcare.com", "patient").
		WithOutcome(true, "")

	mock.ExpectExec(`INSERT INTO auth_audit`).
		WithArgs(event.ID, event.Timestamp, "login", event.Email,
			event.UserID, event.Role, event.Success, event.Detail).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store.Log(context.Background(), event)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogSwallowsInsertError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO auth_audit`).
		WillReturnError(assert.AnError)

	// Must not panic or propagate.
	store.Log(context.Background(), audit.NewEvent(audit.ActionLogout))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecent(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "timestamp", "action", "email", "user_id", "role", "success", "detail"}).
		AddRow("ev-2", now, "logout", "doctor@healthcare.com", "usr-2", "doctor", true, "").
		AddRow("ev-1", now.Add(-time.Minute), "login", "doctor@healthcare.com", "usr-2", "doctor", true, "")

	mock.ExpectQuery(`SELECT .+ FROM auth_audit ORDER BY timestamp DESC LIMIT 2`).
		WillReturnRows(rows)

	events, err := store.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionLogout, events[0].Action)
	assert.Equal(t, audit.ActionLogin, events[1].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
