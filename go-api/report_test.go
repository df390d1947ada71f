package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserReportQuery(t *testing.T) {
	query, args, err := userReportQuery("").ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "FROM users u LEFT JOIN notes n ON n.user_id = u.id LEFT JOIN tasks t ON t.user_id = u.id")
	assert.Contains(t, query, "t.status <> $1")
	assert.NotContains(t, query, "WHERE")
	assert.Equal(t, []interface{}{"done"}, args)

	query, args, err = userReportQuery("uid-1").ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE u.firebase_uid = $2")
	assert.Equal(t, []interface{}{"done", "uid-1"}, args)
}

func TestUserReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	created := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT u\.firebase_uid, u\.email, u\.created_at, .* FROM users u LEFT JOIN notes n .* WHERE u\.firebase_uid = \$2 GROUP BY`).
		WithArgs("done", "uid-1").
		WillReturnRows(sqlmock.NewRows([]string{"firebase_uid", "email", "created_at", "notes", "tasks", "open_tasks"}).
			AddRow("uid-1", "a@example.com", created, 2, 5, 3))

	rows, err := userReport(context.Background(), sqlxDB, "uid-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, userStats{
		FirebaseUID: "uid-1", Email: "a@example.com", CreatedAt: created,
		Notes: 2, Tasks: 5, OpenTasks: 3,
	}, rows[0])
	require.NoError(t, mock.ExpectationsWereMet())

	var out bytes.Buffer
	require.NoError(t, printUserReport(&out, rows))
	assert.Contains(t, out.String(), "SUBJECT")
	assert.Contains(t, out.String(), "uid-1")
	assert.Contains(t, out.String(), "2024-03-01T08:30:00Z")
}

func TestUserReportQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT u\.firebase_uid`).WillReturnError(errors.New("connection reset"))
	_, err = userReport(context.Background(), sqlx.NewDb(db, "sqlmock"), "")
	assert.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}
